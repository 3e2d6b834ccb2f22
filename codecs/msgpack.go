package codecs

import "github.com/unkn0wn-root/msgpack/value"

// Msgpack is a Codec that serializes dynamic values using this module's
// own wire codec (msgpack.Packer/Unpacker via the value package). The
// zero value is ready to use.
type Msgpack struct{}

func (Msgpack) Encode(v any) ([]byte, error) { return value.Marshal(v) }
func (Msgpack) Decode(b []byte) (any, error) { return value.Unmarshal(b) }

package codecs

import "github.com/fxamacker/cbor/v2"

// CBOR is a Codec that serializes values using fxamacker/cbor, kept
// alongside Msgpack as a structurally different wire format: tests use
// it to cross-check that two codecs agree on the semantic round-trip of
// the same value trees.
type CBOR[V any] struct {
	enc *cbor.EncOptions
	dec *cbor.DecOptions
}

// NewCBOR constructs a CBOR codec. When deterministic is true, map keys
// are sorted and floats/times use a canonical encoding so identical
// values always produce identical bytes.
func NewCBOR[V any](deterministic bool) CBOR[V] {
	enc := cbor.EncOptions{}
	if deterministic {
		enc.Time = cbor.TimeRFC3339Nano
		enc.Deterministic = true
		enc.Canonical = true
	}
	dec := cbor.DecOptions{}
	return CBOR[V]{enc: &enc, dec: &dec}
}

func (c CBOR[V]) Encode(v V) ([]byte, error) {
	mode, err := c.enc.EncMode()
	if err != nil {
		return nil, err
	}
	return mode.Marshal(v)
}

func (c CBOR[V]) Decode(b []byte) (V, error) {
	var v V
	mode, err := c.dec.DecMode()
	if err != nil {
		return v, err
	}
	err = mode.Unmarshal(b, &v)
	return v, err
}

package codecs

import (
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// ProtobufValue is a Codec that serializes dynamic values as a protobuf
// structpb.Value message. It plays the same role for dynamic values that
// structured, generated-message codecs play elsewhere: a third,
// independently-implemented wire format for the cross-codec round-trip
// tests to compare against. v must be representable as a structpb.Value
// (nil, bool, float64-range numbers, string, []any, map[string]any).
type ProtobufValue struct{}

func (ProtobufValue) Encode(v any) ([]byte, error) {
	pv, err := structpb.NewValue(v)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(pv)
}

func (ProtobufValue) Decode(b []byte) (any, error) {
	var pv structpb.Value
	if err := proto.Unmarshal(b, &pv); err != nil {
		return nil, err
	}
	return pv.AsInterface(), nil
}

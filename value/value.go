// Package value provides a convenience marshal/unmarshal pair over
// dynamic Go values, built on top of the msgpack package's streaming
// Packer/Unpacker. It exists for callers that want "encode this Go
// value" rather than driving the item-at-a-time API directly — the core
// codec in the parent package has no notion of a whole-value tree, by
// design (see spec §1).
//
// Unlike the core Packer/Unpacker, Marshal/Unmarshal own their memory:
// Marshal grows its own buffer as needed, and Unmarshal copies blob
// payloads out of the source buffer rather than aliasing it, since the
// returned value is expected to outlive the call.
package value

import (
	"fmt"
	"reflect"

	"github.com/unkn0wn-root/msgpack"
)

// Ext represents a MessagePack extension value: a signed 8-bit type
// code plus its raw payload.
type Ext struct {
	Type int8
	Data []byte
}

// Marshal encodes v as MessagePack bytes. v's dynamic type must be nil,
// bool, a sized int/uint, float32/float64, string, []byte, Ext, or a
// slice/map (of any element/key type whose elements are themselves
// marshalable — []any and map[string]any are the common case; other
// concrete slice/map types are handled via reflection).
func Marshal(v any) ([]byte, error) {
	buf := make([]byte, 64)
	p, err := msgpack.NewPacker(buf, msgpack.PackerOptions{OnOverflow: grow})
	if err != nil {
		return nil, err
	}
	if err := marshalValue(p, v); err != nil {
		return nil, err
	}
	return append([]byte(nil), p.Written()...), nil
}

// grow doubles the Packer's buffer, or, when that is still too small for
// what is written plus requested, grows to twice that needed size;
// what's already been written is preserved.
func grow(p *msgpack.Packer, requested int) error {
	written := p.Written()
	need := len(written) + requested
	newCap := cap(written) * 2
	if newCap < need {
		newCap = need * 2
	}
	buf := make([]byte, newCap)
	copy(buf, written)
	p.Continue(buf, len(written))
	return nil
}

func marshalValue(p *msgpack.Packer, v any) error {
	switch vv := v.(type) {
	case nil:
		return p.PackNil()
	case bool:
		return p.PackBool(vv)
	case int:
		return p.PackInt(int64(vv))
	case int8:
		return p.PackInt(int64(vv))
	case int16:
		return p.PackInt(int64(vv))
	case int32:
		return p.PackInt(int64(vv))
	case int64:
		return p.PackInt(vv)
	case uint:
		return p.PackUint(uint64(vv))
	case uint8:
		return p.PackUint(uint64(vv))
	case uint16:
		return p.PackUint(uint64(vv))
	case uint32:
		return p.PackUint(uint64(vv))
	case uint64:
		return p.PackUint(vv)
	case float32:
		return p.PackFloat32(vv)
	case float64:
		return p.PackFloat64(vv)
	case string:
		return p.PackString(vv)
	case []byte:
		return p.PackBinary(vv)
	case Ext:
		return p.PackExt(vv.Type, vv.Data)
	case []any:
		if err := p.PackArrayHeader(uint32(len(vv))); err != nil {
			return err
		}
		for _, item := range vv {
			if err := marshalValue(p, item); err != nil {
				return err
			}
		}
		return nil
	case map[string]any:
		if err := p.PackMapHeader(uint32(len(vv))); err != nil {
			return err
		}
		for k, val := range vv {
			if err := p.PackString(k); err != nil {
				return err
			}
			if err := marshalValue(p, val); err != nil {
				return err
			}
		}
		return nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		n := rv.Len()
		if err := p.PackArrayHeader(uint32(n)); err != nil {
			return err
		}
		for i := 0; i < n; i++ {
			if err := marshalValue(p, rv.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	case reflect.Map:
		keys := rv.MapKeys()
		if err := p.PackMapHeader(uint32(len(keys))); err != nil {
			return err
		}
		for _, k := range keys {
			if err := marshalValue(p, k.Interface()); err != nil {
				return err
			}
			if err := marshalValue(p, rv.MapIndex(k).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("msgpack/value: cannot marshal %T", v)
}

// Unmarshal decodes MessagePack bytes into a dynamic value: one of nil,
// bool, uint64, int64, float32, float64, string, []byte, []any,
// map[string]any, or Ext.
func Unmarshal(b []byte) (any, error) {
	u, err := msgpack.NewUnpacker(b, msgpack.UnpackerOptions{})
	if err != nil {
		return nil, err
	}
	if err := u.Next(); err != nil {
		return nil, err
	}
	return unmarshalValue(u)
}

func unmarshalValue(u *msgpack.Unpacker) (any, error) {
	item := u.Current
	switch item.Kind {
	case msgpack.KindNil:
		return nil, nil
	case msgpack.KindBool:
		return item.Bool, nil
	case msgpack.KindPositiveInt:
		return item.U64, nil
	case msgpack.KindNegativeInt:
		return item.I64, nil
	case msgpack.KindFloat32:
		return float32(item.F64), nil
	case msgpack.KindFloat64:
		return item.F64, nil
	case msgpack.KindString:
		return string(item.Bytes), nil
	case msgpack.KindBinary:
		return append([]byte(nil), item.Bytes...), nil
	case msgpack.KindExtension:
		return Ext{Type: item.ExtType, Data: append([]byte(nil), item.Bytes...)}, nil
	case msgpack.KindArray:
		n := int(item.Count)
		out := make([]any, n)
		for i := 0; i < n; i++ {
			if err := u.Next(); err != nil {
				return nil, err
			}
			v, err := unmarshalValue(u)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case msgpack.KindMap:
		n := int(item.Count)
		out := make(map[string]any, n)
		for i := 0; i < n; i++ {
			if err := u.Next(); err != nil {
				return nil, err
			}
			k, err := unmarshalValue(u)
			if err != nil {
				return nil, err
			}
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("msgpack/value: non-string map key %T", k)
			}
			if err := u.Next(); err != nil {
				return nil, err
			}
			v, err := unmarshalValue(u)
			if err != nil {
				return nil, err
			}
			out[ks] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("msgpack/value: unknown kind %v", item.Kind)
	}
}

package msgpack

// Kind discriminates the closed set of MessagePack item types an
// Unpacker can produce, per spec §3.
type Kind uint8

const (
	KindNil Kind = iota
	KindBool
	KindPositiveInt
	KindNegativeInt
	KindFloat32
	KindFloat64
	KindArray
	KindMap
	KindString
	KindBinary
	KindExtension
)

func (k Kind) String() string {
	switch k {
	case KindNil:
		return "nil"
	case KindBool:
		return "bool"
	case KindPositiveInt:
		return "positive integer"
	case KindNegativeInt:
		return "negative integer"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindArray:
		return "array"
	case KindMap:
		return "map"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindExtension:
		return "extension"
	default:
		return "unknown kind"
	}
}

// Item is the single current-item record an Unpacker overwrites on each
// call to Next. Only the field(s) relevant to Kind are meaningful; the
// rest hold their zero value.
//
// Bytes, when set (KindString, KindBinary, KindExtension), aliases the
// Unpacker's source buffer directly — no copy is made. It is valid only
// until the next Unpacker call that might invoke OnUnderflow and replace
// the window.
type Item struct {
	Kind Kind

	// ExtType is the signed 8-bit MessagePack extension type code, valid
	// only when Kind == KindExtension. Values >= 0x80 on the wire read
	// back negative here by design (see DESIGN.md Open Question).
	ExtType int8

	Bool bool

	// U64 holds the value for KindPositiveInt (always >= 0, regardless of
	// which wire tag carried it).
	U64 uint64

	// I64 holds the value for KindNegativeInt (always < 0).
	I64 int64

	// F64 holds the value for KindFloat32 (widened, losslessly
	// re-narrowable) and KindFloat64.
	F64 float64

	// Count is the element count (KindArray) or pair count (KindMap) of a
	// composite header. The contained items themselves are not part of
	// this record — the caller recurses, or uses Unpacker.Skip.
	Count uint32

	// Bytes is the blob payload for KindString, KindBinary, and
	// KindExtension (the extension's user-type byte lives in ExtType, not
	// here).
	Bytes []byte
}

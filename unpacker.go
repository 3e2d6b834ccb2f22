package msgpack

import (
	"math"

	"github.com/unkn0wn-root/msgpack/internal/endian"
)

// UnderflowHandler is invoked when an Unpacker needs at least requested
// more readable bytes than the current window has. A nil-error return
// must guarantee at least requested contiguous bytes are now available
// (typically via u.Reset with a freshly filled buffer). Returning
// ErrEndOfInput signals clean stream termination; it is only meaningful
// when requested at an item boundary (see Next's doc).
type UnderflowHandler func(u *Unpacker, requested int) error

// UnpackerOptions configures an Unpacker. The zero value is usable: no
// underflow handler (exhaustion is fatal) and a NopLogger.
type UnpackerOptions struct {
	OnUnderflow UnderflowHandler
	Logger      Logger
}

// Unpacker reads MessagePack items one at a time out of a caller-owned
// byte buffer. Current holds the most recently read item; it is
// overwritten by each call to Next.
type Unpacker struct {
	state

	buf             []byte
	start, cur, end int
	onUnderflow     UnderflowHandler
	log             Logger

	Current Item
}

// NewUnpacker constructs an Unpacker reading from buf starting at offset
// 0. It returns ErrWrongByteOrder if the endian self-check fails.
func NewUnpacker(buf []byte, opts UnpackerOptions) (*Unpacker, error) {
	if !endian.Check() {
		coalesceLogger(opts.Logger).Error("unpacker: endian self-check failed", Fields{"op": "unpack.init"})
		return nil, &Error{Code: WrongByteOrder, Op: "unpack.init"}
	}
	return &Unpacker{
		buf:         buf,
		end:         len(buf),
		onUnderflow: opts.OnUnderflow,
		log:         coalesceLogger(opts.Logger),
	}, nil
}

// Reset rearms the Unpacker against a fresh buffer, starting at offset
// 0. Use this from an OnUnderflow handler after refilling elsewhere.
// Any Item.Bytes slices returned by a prior Next are invalidated.
func (u *Unpacker) Reset(buf []byte) {
	u.buf = buf
	u.start, u.cur, u.end = 0, 0, len(buf)
}

// demand ensures at least k more bytes are available at u.cur, invoking
// the underflow handler as needed. atBoundary distinguishes the
// end-of-input/buffer-underflow pair from spec §4.3: true only when k is
// being demanded for the first byte of a new item.
func (u *Unpacker) demand(op string, k int, atBoundary bool) error {
	if err := u.checkStopped(op); err != nil {
		return err
	}
	for u.cur+k > u.end {
		if u.onUnderflow == nil {
			return u.exhausted(op, atBoundary)
		}
		u.log.Debug("unpacker: invoking underflow handler", Fields{"op": op, "requested": k})
		err := u.onUnderflow(u, k)
		if err == nil {
			continue
		}
		if codeOf(err, 0) == EndOfInput {
			return u.exhausted(op, atBoundary)
		}
		c := codeOf(err, BufferUnderflow)
		u.poison(c)
		return err
	}
	return nil
}

func (u *Unpacker) exhausted(op string, atBoundary bool) error {
	if atBoundary {
		u.poison(EndOfInput)
		return &Error{Code: EndOfInput, Op: op}
	}
	u.poison(BufferUnderflow)
	u.log.Error("unpacker: truncated item", Fields{"op": op})
	return &Error{Code: BufferUnderflow, Op: op}
}

func (u *Unpacker) malformed(op string) error {
	u.poison(MalformedInput)
	u.log.Error("unpacker: malformed prefix byte", Fields{"op": op})
	return &Error{Code: MalformedInput, Op: op}
}

// readUint reads an n-byte (1, 2, or 4) big-endian unsigned field.
func readUint(b []byte, n int) uint64 {
	switch n {
	case 1:
		return uint64(b[0])
	case 2:
		return uint64(endian.Uint16(b))
	default:
		return uint64(endian.Uint32(b))
	}
}

// Next reads the next item into u.Current. If the context is already
// poisoned it returns ErrStopped. On a clean, empty stream at an item
// boundary it returns ErrEndOfInput; a truncated item returns
// ErrBufferUnderflow.
func (u *Unpacker) Next() error {
	if err := u.demand("unpack.next", 1, true); err != nil {
		return err
	}
	c := u.buf[u.cur]
	u.cur++

	switch {
	case c <= 0x7f:
		u.Current = Item{Kind: KindPositiveInt, U64: uint64(c)}
	case c&0xf0 == 0x80:
		u.Current = Item{Kind: KindMap, Count: uint32(c & 0x0f)}
	case c&0xf0 == 0x90:
		u.Current = Item{Kind: KindArray, Count: uint32(c & 0x0f)}
	case c&0xe0 == 0xa0:
		return u.readBlob(KindString, int(c&0x1f))
	case c == 0xc0:
		u.Current = Item{Kind: KindNil}
	case c == 0xc1:
		return u.malformed("unpack.next")
	case c == 0xc2:
		u.Current = Item{Kind: KindBool, Bool: false}
	case c == 0xc3:
		u.Current = Item{Kind: KindBool, Bool: true}
	case c >= 0xc4 && c <= 0xc6:
		lenBytes := 1 << (c - 0xc4)
		if err := u.demand("unpack.binary.len", lenBytes, false); err != nil {
			return err
		}
		n := int(readUint(u.buf[u.cur:], lenBytes))
		u.cur += lenBytes
		return u.readBlob(KindBinary, n)
	case c >= 0xc7 && c <= 0xc9:
		lenBytes := 1 << (c - 0xc7)
		if err := u.demand("unpack.ext.len", lenBytes, false); err != nil {
			return err
		}
		n := int(readUint(u.buf[u.cur:], lenBytes))
		u.cur += lenBytes
		return u.readExt(n)
	case c == 0xca:
		if err := u.demand("unpack.float32", 4, false); err != nil {
			return err
		}
		bits := endian.Uint32(u.buf[u.cur:])
		u.cur += 4
		u.Current = Item{Kind: KindFloat32, F64: float64(math.Float32frombits(bits))}
	case c == 0xcb:
		if err := u.demand("unpack.float64", 8, false); err != nil {
			return err
		}
		bits := endian.Uint64(u.buf[u.cur:])
		u.cur += 8
		u.Current = Item{Kind: KindFloat64, F64: math.Float64frombits(bits)}
	case c >= 0xcc && c <= 0xcf:
		n := 1 << (c - 0xcc)
		if err := u.demand("unpack.uint", n, false); err != nil {
			return err
		}
		v := readUintN(u.buf[u.cur:], n)
		u.cur += n
		u.Current = Item{Kind: KindPositiveInt, U64: v}
	case c >= 0xd0 && c <= 0xd3:
		n := 1 << (c - 0xd0)
		if err := u.demand("unpack.int", n, false); err != nil {
			return err
		}
		v := readIntN(u.buf[u.cur:], n)
		u.cur += n
		if v >= 0 {
			u.Current = Item{Kind: KindPositiveInt, U64: uint64(v)}
		} else {
			u.Current = Item{Kind: KindNegativeInt, I64: v}
		}
	case c >= 0xd4 && c <= 0xd8:
		n := fixextLen(c)
		return u.readExt(n)
	case c >= 0xd9 && c <= 0xdb:
		lenBytes := 1 << (c - 0xd9)
		if err := u.demand("unpack.string.len", lenBytes, false); err != nil {
			return err
		}
		n := int(readUint(u.buf[u.cur:], lenBytes))
		u.cur += lenBytes
		return u.readBlob(KindString, n)
	case c == 0xdc || c == 0xdd:
		lenBytes := 2
		if c == 0xdd {
			lenBytes = 4
		}
		if err := u.demand("unpack.array.len", lenBytes, false); err != nil {
			return err
		}
		n := readUint(u.buf[u.cur:], lenBytes)
		u.cur += lenBytes
		u.Current = Item{Kind: KindArray, Count: uint32(n)}
	case c == 0xde || c == 0xdf:
		lenBytes := 2
		if c == 0xdf {
			lenBytes = 4
		}
		if err := u.demand("unpack.map.len", lenBytes, false); err != nil {
			return err
		}
		n := readUint(u.buf[u.cur:], lenBytes)
		u.cur += lenBytes
		u.Current = Item{Kind: KindMap, Count: uint32(n)}
	default: // 0xe0..0xff
		u.Current = Item{Kind: KindNegativeInt, I64: int64(int8(c))}
	}
	return nil
}

func readUintN(b []byte, n int) uint64 {
	if n == 8 {
		return endian.Uint64(b)
	}
	return readUint(b, n)
}

func readIntN(b []byte, n int) int64 {
	switch n {
	case 1:
		return int64(int8(b[0]))
	case 2:
		return int64(int16(endian.Uint16(b)))
	case 4:
		return int64(int32(endian.Uint32(b)))
	default:
		return int64(endian.Uint64(b))
	}
}

func fixextLen(c byte) int {
	switch c {
	case 0xd4:
		return 1
	case 0xd5:
		return 2
	case 0xd6:
		return 4
	case 0xd7:
		return 8
	default: // 0xd8
		return 16
	}
}

// readBlob demands n bytes and sets u.Current to a zero-copy alias of
// them for the given Kind.
func (u *Unpacker) readBlob(kind Kind, n int) error {
	if err := u.demand("unpack.blob", n, false); err != nil {
		return err
	}
	u.Current = Item{Kind: kind, Bytes: u.buf[u.cur : u.cur+n]}
	u.cur += n
	return nil
}

// readExt demands the type byte plus n payload bytes (contiguous) and
// sets u.Current accordingly.
func (u *Unpacker) readExt(n int) error {
	if err := u.demand("unpack.ext", 1+n, false); err != nil {
		return err
	}
	extType := int8(u.buf[u.cur])
	u.cur++
	u.Current = Item{Kind: KindExtension, ExtType: extType, Bytes: u.buf[u.cur : u.cur+n]}
	u.cur += n
	return nil
}

// Skip advances over n top-level items, including everything nested
// inside arrays and maps, without decoding their primitive contents. It
// uses a single counter rather than recursion, so nesting depth is
// unbounded by stack size.
func (u *Unpacker) Skip(n int) error {
	remaining := int64(n)
	for remaining > 0 {
		if err := u.demand("unpack.skip", 1, true); err != nil {
			return err
		}
		c := u.buf[u.cur]
		u.cur++
		remaining--

		switch {
		case c <= 0x7f, c >= 0xe0, c == 0xc0, c == 0xc2, c == 0xc3:
			// no extra bytes
		case c&0xf0 == 0x80:
			remaining += 2 * int64(c&0x0f)
		case c&0xf0 == 0x90:
			remaining += int64(c & 0x0f)
		case c&0xe0 == 0xa0:
			if err := u.skipBytes("unpack.skip.str", int(c&0x1f)); err != nil {
				return err
			}
		case c == 0xc1:
			return u.malformed("unpack.skip")
		case c >= 0xc4 && c <= 0xc6:
			lenBytes := 1 << (c - 0xc4)
			n, err := u.skipLenPrefixed("unpack.skip.binary", lenBytes)
			if err != nil {
				return err
			}
			if err := u.skipBytes("unpack.skip.binary", n); err != nil {
				return err
			}
		case c >= 0xc7 && c <= 0xc9:
			lenBytes := 1 << (c - 0xc7)
			n, err := u.skipLenPrefixed("unpack.skip.ext", lenBytes)
			if err != nil {
				return err
			}
			if err := u.skipBytes("unpack.skip.ext", n+1); err != nil {
				return err
			}
		case c == 0xca:
			if err := u.skipBytes("unpack.skip.float32", 4); err != nil {
				return err
			}
		case c == 0xcb:
			if err := u.skipBytes("unpack.skip.float64", 8); err != nil {
				return err
			}
		case c >= 0xcc && c <= 0xcf:
			if err := u.skipBytes("unpack.skip.uint", 1<<(c-0xcc)); err != nil {
				return err
			}
		case c >= 0xd0 && c <= 0xd3:
			if err := u.skipBytes("unpack.skip.int", 1<<(c-0xd0)); err != nil {
				return err
			}
		case c >= 0xd4 && c <= 0xd8:
			if err := u.skipBytes("unpack.skip.ext", fixextLen(c)+1); err != nil {
				return err
			}
		case c >= 0xd9 && c <= 0xdb:
			lenBytes := 1 << (c - 0xd9)
			n, err := u.skipLenPrefixed("unpack.skip.str", lenBytes)
			if err != nil {
				return err
			}
			if err := u.skipBytes("unpack.skip.str", n); err != nil {
				return err
			}
		case c == 0xdc || c == 0xdd:
			lenBytes := 2
			if c == 0xdd {
				lenBytes = 4
			}
			if err := u.demand("unpack.skip.array.len", lenBytes, false); err != nil {
				return err
			}
			cnt := readUint(u.buf[u.cur:], lenBytes)
			u.cur += lenBytes
			remaining += int64(cnt)
		case c == 0xde || c == 0xdf:
			lenBytes := 2
			if c == 0xdf {
				lenBytes = 4
			}
			if err := u.demand("unpack.skip.map.len", lenBytes, false); err != nil {
				return err
			}
			cnt := readUint(u.buf[u.cur:], lenBytes)
			u.cur += lenBytes
			remaining += 2 * int64(cnt)
		default:
			return u.malformed("unpack.skip")
		}
	}
	return nil
}

func (u *Unpacker) skipBytes(op string, n int) error {
	if err := u.demand(op, n, false); err != nil {
		return err
	}
	u.cur += n
	return nil
}

// skipLenPrefixed reads an n-byte big-endian length field and advances
// past it, returning the decoded length.
func (u *Unpacker) skipLenPrefixed(op string, lenBytes int) (int, error) {
	if err := u.demand(op, lenBytes, false); err != nil {
		return 0, err
	}
	n := int(readUint(u.buf[u.cur:], lenBytes))
	u.cur += lenBytes
	return n, nil
}

package msgpack

import (
	"math"

	"github.com/unkn0wn-root/msgpack/internal/endian"
)

// OverflowHandler is invoked when a Packer needs at least requested more
// writable bytes than the current window has. A successful (nil-error)
// return must guarantee at least requested bytes are now available —
// typically by flushing p.Written() somewhere durable and then calling
// p.Reset or p.Continue with a fresh buffer. The codec does not verify
// this beyond continuing to write.
type OverflowHandler func(p *Packer, requested int) error

// PackerOptions configures a Packer. The zero value is usable: no
// overflow handler (exhaustion is fatal) and a NopLogger.
type PackerOptions struct {
	OnOverflow OverflowHandler
	Logger     Logger
}

// Packer serializes typed items into a caller-owned byte buffer, using
// the shortest legal MessagePack encoding for each. See the package doc
// for the buffer/handler discipline.
type Packer struct {
	state

	buf             []byte
	start, cur, end int
	onOverflow      OverflowHandler
	log             Logger
}

// NewPacker constructs a Packer writing into buf starting at offset 0.
// It returns ErrWrongByteOrder if the endian self-check fails.
func NewPacker(buf []byte, opts PackerOptions) (*Packer, error) {
	if !endian.Check() {
		coalesceLogger(opts.Logger).Error("packer: endian self-check failed", Fields{"op": "pack.init"})
		return nil, &Error{Code: WrongByteOrder, Op: "pack.init"}
	}
	return &Packer{
		buf:        buf,
		end:        len(buf),
		onOverflow: opts.OnOverflow,
		log:        coalesceLogger(opts.Logger),
	}, nil
}

// Written returns the bytes emitted so far within the current window
// (buf[start:cur]). The slice aliases the Packer's buffer.
func (p *Packer) Written() []byte { return p.buf[p.start:p.cur] }

// Reset rearms the Packer against a fresh buffer, starting at offset 0.
// Use this from an OverflowHandler after flushing Written() elsewhere.
func (p *Packer) Reset(buf []byte) {
	p.buf = buf
	p.start, p.cur, p.end = 0, 0, len(buf)
}

// Continue rearms the Packer against a fresh, larger buffer that already
// contains a copy of Written() at its start, resuming the cursor at
// offset at (typically at == the prior len(Written())). Use this from an
// OverflowHandler that grows the buffer in place rather than flushing it.
func (p *Packer) Continue(buf []byte, at int) {
	p.buf = buf
	p.start, p.cur, p.end = 0, at, len(buf)
}

func (p *Packer) reserve(op string, n int) error {
	if err := p.checkStopped(op); err != nil {
		return err
	}
	if p.cur+n <= p.end {
		return nil
	}
	if p.onOverflow == nil {
		p.poison(BufferOverflow)
		p.log.Error("packer: buffer overflow, no handler", Fields{"op": op, "requested": n})
		return &Error{Code: BufferOverflow, Op: op}
	}
	p.log.Debug("packer: invoking overflow handler", Fields{"op": op, "requested": n})
	if err := p.onOverflow(p, n); err != nil {
		c := codeOf(err, BufferOverflow)
		p.poison(c)
		return err
	}
	if p.cur+n > p.end {
		p.poison(BufferOverflow)
		p.log.Error("packer: handler did not supply enough room", Fields{"op": op, "requested": n})
		return &Error{Code: BufferOverflow, Op: op}
	}
	return nil
}

// PackNil writes the nil item.
func (p *Packer) PackNil() error {
	if err := p.reserve("pack.nil", 1); err != nil {
		return err
	}
	p.buf[p.cur] = 0xc0
	p.cur++
	return nil
}

// PackBool writes a boolean item.
func (p *Packer) PackBool(v bool) error {
	if err := p.reserve("pack.bool", 1); err != nil {
		return err
	}
	if v {
		p.buf[p.cur] = 0xc3
	} else {
		p.buf[p.cur] = 0xc2
	}
	p.cur++
	return nil
}

// PackUint writes an unsigned integer item using the shortest encoding
// that fits v.
func (p *Packer) PackUint(v uint64) error {
	switch {
	case v < 1<<7:
		if err := p.reserve("pack.uint", 1); err != nil {
			return err
		}
		p.buf[p.cur] = byte(v)
		p.cur++
	case v < 1<<8:
		if err := p.reserve("pack.uint", 2); err != nil {
			return err
		}
		p.buf[p.cur] = 0xcc
		p.buf[p.cur+1] = byte(v)
		p.cur += 2
	case v < 1<<16:
		if err := p.reserve("pack.uint", 3); err != nil {
			return err
		}
		p.buf[p.cur] = 0xcd
		endian.PutUint16(p.buf[p.cur+1:], uint16(v))
		p.cur += 3
	case v < 1<<32:
		if err := p.reserve("pack.uint", 5); err != nil {
			return err
		}
		p.buf[p.cur] = 0xce
		endian.PutUint32(p.buf[p.cur+1:], uint32(v))
		p.cur += 5
	default:
		if err := p.reserve("pack.uint", 9); err != nil {
			return err
		}
		p.buf[p.cur] = 0xcf
		endian.PutUint64(p.buf[p.cur+1:], v)
		p.cur += 9
	}
	return nil
}

// PackInt writes a signed integer item using the shortest encoding that
// fits v. Non-negative values delegate to PackUint.
func (p *Packer) PackInt(v int64) error {
	if v >= 0 {
		return p.PackUint(uint64(v))
	}
	switch {
	case v >= -32:
		if err := p.reserve("pack.int", 1); err != nil {
			return err
		}
		p.buf[p.cur] = byte(v)
		p.cur++
	case v >= -128:
		if err := p.reserve("pack.int", 2); err != nil {
			return err
		}
		p.buf[p.cur] = 0xd0
		p.buf[p.cur+1] = byte(int8(v))
		p.cur += 2
	case v >= -32768:
		if err := p.reserve("pack.int", 3); err != nil {
			return err
		}
		p.buf[p.cur] = 0xd1
		endian.PutUint16(p.buf[p.cur+1:], uint16(int16(v)))
		p.cur += 3
	case v >= -(1 << 31):
		if err := p.reserve("pack.int", 5); err != nil {
			return err
		}
		p.buf[p.cur] = 0xd2
		endian.PutUint32(p.buf[p.cur+1:], uint32(int32(v)))
		p.cur += 5
	default:
		if err := p.reserve("pack.int", 9); err != nil {
			return err
		}
		p.buf[p.cur] = 0xd3
		endian.PutUint64(p.buf[p.cur+1:], uint64(v))
		p.cur += 9
	}
	return nil
}

// PackFloat32 writes a float item: the IEEE-754 bit pattern, big-endian.
func (p *Packer) PackFloat32(v float32) error {
	if err := p.reserve("pack.float32", 5); err != nil {
		return err
	}
	p.buf[p.cur] = 0xca
	endian.PutUint32(p.buf[p.cur+1:], math.Float32bits(v))
	p.cur += 5
	return nil
}

// PackFloat64 writes a double item: the IEEE-754 bit pattern, big-endian.
func (p *Packer) PackFloat64(v float64) error {
	if err := p.reserve("pack.float64", 9); err != nil {
		return err
	}
	p.buf[p.cur] = 0xcb
	endian.PutUint64(p.buf[p.cur+1:], math.Float64bits(v))
	p.cur += 9
	return nil
}

// PackArrayHeader writes an array header announcing n following items.
// The caller is responsible for then emitting exactly n items; the
// codec does not track container nesting.
func (p *Packer) PackArrayHeader(n uint32) error {
	return p.packContainerHeader("pack.array", n, 0x90, 0xdc, 0xdd)
}

// PackMapHeader writes a map header announcing n following key/value
// pairs. The caller is responsible for then emitting exactly 2*n items.
func (p *Packer) PackMapHeader(n uint32) error {
	return p.packContainerHeader("pack.map", n, 0x80, 0xde, 0xdf)
}

func (p *Packer) packContainerHeader(op string, n uint32, fixBase, tag16, tag32 byte) error {
	switch {
	case n < 16:
		if err := p.reserve(op, 1); err != nil {
			return err
		}
		p.buf[p.cur] = fixBase | byte(n)
		p.cur++
	case n < 1<<16:
		if err := p.reserve(op, 3); err != nil {
			return err
		}
		p.buf[p.cur] = tag16
		endian.PutUint16(p.buf[p.cur+1:], uint16(n))
		p.cur += 3
	default:
		if err := p.reserve(op, 5); err != nil {
			return err
		}
		p.buf[p.cur] = tag32
		endian.PutUint32(p.buf[p.cur+1:], n)
		p.cur += 5
	}
	return nil
}

// PackString writes a string blob. Header and payload are reserved
// together so a successful reservation guarantees the whole item fits.
func (p *Packer) PackString(s string) error {
	n := len(s)
	hdr, hdrLen := stringHeader(n)
	if err := p.reserve("pack.string", hdrLen+n); err != nil {
		return err
	}
	copy(p.buf[p.cur:], hdr[:hdrLen])
	p.cur += hdrLen
	copy(p.buf[p.cur:], s)
	p.cur += n
	return nil
}

func stringHeader(n int) (hdr [5]byte, hdrLen int) {
	switch {
	case n < 32:
		hdr[0] = 0xa0 | byte(n)
		return hdr, 1
	case n < 1<<8:
		hdr[0] = 0xd9
		hdr[1] = byte(n)
		return hdr, 2
	case n < 1<<16:
		hdr[0] = 0xda
		endian.PutUint16(hdr[1:], uint16(n))
		return hdr, 3
	default:
		hdr[0] = 0xdb
		endian.PutUint32(hdr[1:], uint32(n))
		return hdr, 5
	}
}

// PackBinary writes a binary blob.
func (p *Packer) PackBinary(b []byte) error {
	n := len(b)
	hdr, hdrLen := binaryHeader(n)
	if err := p.reserve("pack.binary", hdrLen+n); err != nil {
		return err
	}
	copy(p.buf[p.cur:], hdr[:hdrLen])
	p.cur += hdrLen
	copy(p.buf[p.cur:], b)
	p.cur += n
	return nil
}

func binaryHeader(n int) (hdr [5]byte, hdrLen int) {
	switch {
	case n < 1<<8:
		hdr[0] = 0xc4
		hdr[1] = byte(n)
		return hdr, 2
	case n < 1<<16:
		hdr[0] = 0xc5
		endian.PutUint16(hdr[1:], uint16(n))
		return hdr, 3
	default:
		hdr[0] = 0xc6
		endian.PutUint32(hdr[1:], uint32(n))
		return hdr, 5
	}
}

// PackExt writes an extension blob tagged with the signed 8-bit extType.
func (p *Packer) PackExt(extType int8, data []byte) error {
	n := len(data)
	hdr, hdrLen := extHeader(extType, n)
	if err := p.reserve("pack.ext", hdrLen+n); err != nil {
		return err
	}
	copy(p.buf[p.cur:], hdr[:hdrLen])
	p.cur += hdrLen
	copy(p.buf[p.cur:], data)
	p.cur += n
	return nil
}

func extHeader(extType int8, n int) (hdr [6]byte, hdrLen int) {
	switch n {
	case 1:
		hdr[0], hdr[1] = 0xd4, byte(extType)
		return hdr, 2
	case 2:
		hdr[0], hdr[1] = 0xd5, byte(extType)
		return hdr, 2
	case 4:
		hdr[0], hdr[1] = 0xd6, byte(extType)
		return hdr, 2
	case 8:
		hdr[0], hdr[1] = 0xd7, byte(extType)
		return hdr, 2
	case 16:
		hdr[0], hdr[1] = 0xd8, byte(extType)
		return hdr, 2
	}
	switch {
	case n < 1<<8:
		hdr[0] = 0xc7
		hdr[1] = byte(n)
		hdr[2] = byte(extType)
		return hdr, 3
	case n < 1<<16:
		hdr[0] = 0xc8
		endian.PutUint16(hdr[1:], uint16(n))
		hdr[3] = byte(extType)
		return hdr, 4
	default:
		hdr[0] = 0xc9
		endian.PutUint32(hdr[1:], uint32(n))
		hdr[5] = byte(extType)
		return hdr, 6
	}
}

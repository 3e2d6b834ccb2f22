package msgpack

import (
	"errors"
	"testing"
)

func mustUnpacker(t *testing.T, buf []byte, opts UnpackerOptions) *Unpacker {
	t.Helper()
	u, err := NewUnpacker(buf, opts)
	if err != nil {
		t.Fatalf("NewUnpacker: %v", err)
	}
	return u
}

func TestNextPositiveFixint(t *testing.T) {
	u := mustUnpacker(t, []byte{0x05}, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.Kind != KindPositiveInt || u.Current.U64 != 5 {
		t.Fatalf("got %+v", u.Current)
	}
}

func TestNextSignedSlotNonNegativeReportsPositive(t *testing.T) {
	// int 8 (0xd0) carrying the non-negative value 5 must report
	// KindPositiveInt, never KindNegativeInt, per spec §3.
	u := mustUnpacker(t, []byte{0xd0, 0x05}, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.Kind != KindPositiveInt || u.Current.U64 != 5 {
		t.Fatalf("got %+v, want positive integer 5", u.Current)
	}
}

func TestNextNegativeFixint(t *testing.T) {
	u := mustUnpacker(t, []byte{0xff}, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.Kind != KindNegativeInt || u.Current.I64 != -1 {
		t.Fatalf("got %+v", u.Current)
	}
}

func TestNextFixString(t *testing.T) {
	u := mustUnpacker(t, []byte{0xa2, 0x68, 0x69}, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.Kind != KindString || string(u.Current.Bytes) != "hi" {
		t.Fatalf("got %+v", u.Current)
	}
}

func TestNextExtension(t *testing.T) {
	u := mustUnpacker(t, []byte{0xd4, 0x07, 0x01}, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.Kind != KindExtension || u.Current.ExtType != 7 || len(u.Current.Bytes) != 1 || u.Current.Bytes[0] != 1 {
		t.Fatalf("got %+v", u.Current)
	}
}

func TestNextExtensionHighTypeCodeReadsNegative(t *testing.T) {
	// ext type byte 0x80 (128) must read back as -128, not 128: the ext
	// type field is signed 8-bit per spec §3/§9.
	u := mustUnpacker(t, []byte{0xd4, 0x80, 0x01}, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.ExtType != -128 {
		t.Fatalf("ExtType = %d, want -128", u.Current.ExtType)
	}
}

func TestFloatFidelity(t *testing.T) {
	buf := make([]byte, 16)
	p := mustPacker(t, buf, PackerOptions{})
	if err := p.PackFloat32(3.5); err != nil {
		t.Fatal(err)
	}
	u := mustUnpacker(t, p.Written(), UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	if u.Current.Kind != KindFloat32 || float32(u.Current.F64) != 3.5 {
		t.Fatalf("got %+v", u.Current)
	}
}

func TestUnderflowBoundary(t *testing.T) {
	t.Run("truncated item is buffer underflow", func(t *testing.T) {
		u := mustUnpacker(t, []byte{0xcd}, UnpackerOptions{})
		err := u.Next()
		if !errors.Is(err, ErrBufferUnderflow) {
			t.Fatalf("got %v, want ErrBufferUnderflow", err)
		}
	})
	t.Run("empty stream is end of input", func(t *testing.T) {
		u := mustUnpacker(t, []byte{}, UnpackerOptions{})
		err := u.Next()
		if !errors.Is(err, ErrEndOfInput) {
			t.Fatalf("got %v, want ErrEndOfInput", err)
		}
	})
}

func TestMalformedInputPoisons(t *testing.T) {
	u := mustUnpacker(t, []byte{0xc1, 0x00}, UnpackerOptions{})
	if err := u.Next(); !errors.Is(err, ErrMalformedInput) {
		t.Fatalf("got %v, want ErrMalformedInput", err)
	}
	if err := u.Next(); !errors.Is(err, ErrStopped) {
		t.Fatalf("got %v, want ErrStopped after poisoning", err)
	}
}

func TestUnderflowHandlerRefills(t *testing.T) {
	full := []byte{0xcd, 0x03, 0xe8} // uint16(1000)
	calls := 0
	u := mustUnpacker(t, full[:1], UnpackerOptions{
		OnUnderflow: func(u *Unpacker, requested int) error {
			calls++
			u.Reset(full[1:]) // the unread remainder after the prefix byte
			return nil
		},
	})
	if err := u.Next(); err != nil {
		t.Fatalf("Next: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
	if u.Current.Kind != KindPositiveInt || u.Current.U64 != 1000 {
		t.Fatalf("got %+v", u.Current)
	}
}

func TestBlobAliasesSourceBuffer(t *testing.T) {
	buf := []byte{0xa2, 0x68, 0x69}
	u := mustUnpacker(t, buf, UnpackerOptions{})
	if err := u.Next(); err != nil {
		t.Fatal(err)
	}
	buf[1] = 'X'
	if u.Current.Bytes[0] != 'X' {
		t.Fatalf("Item.Bytes did not alias the source buffer")
	}
}

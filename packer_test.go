package msgpack

import (
	"bytes"
	"testing"
)

func mustPacker(t *testing.T, buf []byte, opts PackerOptions) *Packer {
	t.Helper()
	p, err := NewPacker(buf, opts)
	if err != nil {
		t.Fatalf("NewPacker: %v", err)
	}
	return p
}

func TestPackUintShortestForm(t *testing.T) {
	cases := []struct {
		v    uint64
		want []byte
	}{
		{0, []byte{0x00}},
		{127, []byte{0x7f}},
		{128, []byte{0xcc, 0x80}},
		{255, []byte{0xcc, 0xff}},
		{256, []byte{0xcd, 0x01, 0x00}},
		{1<<16 - 1, []byte{0xcd, 0xff, 0xff}},
		{1 << 16, []byte{0xce, 0x00, 0x01, 0x00, 0x00}},
		{1<<32 - 1, []byte{0xce, 0xff, 0xff, 0xff, 0xff}},
		{1 << 32, []byte{0xcf, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x00}},
	}
	for _, tc := range cases {
		buf := make([]byte, 16)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackUint(tc.v); err != nil {
			t.Fatalf("PackUint(%d): %v", tc.v, err)
		}
		if !bytes.Equal(p.Written(), tc.want) {
			t.Fatalf("PackUint(%d) = % x, want % x", tc.v, p.Written(), tc.want)
		}
	}
}

func TestPackIntShortestForm(t *testing.T) {
	cases := []struct {
		v    int64
		want []byte
	}{
		{0, []byte{0x00}},
		{-1, []byte{0xff}},
		{-32, []byte{0xe0}},
		{-33, []byte{0xd0, 0xdf}},
		{-128, []byte{0xd0, 0x80}},
		{-129, []byte{0xd1, 0xff, 0x7f}},
		{-32768, []byte{0xd1, 0x80, 0x00}},
		{-32769, []byte{0xd2, 0xff, 0xff, 0x7f, 0xff}},
		{-(1 << 31), []byte{0xd2, 0x80, 0x00, 0x00, 0x00}},
		{-(1<<31) - 1, []byte{0xd3, 0xff, 0xff, 0xff, 0xff, 0x7f, 0xff, 0xff, 0xff}},
	}
	for _, tc := range cases {
		buf := make([]byte, 16)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackInt(tc.v); err != nil {
			t.Fatalf("PackInt(%d): %v", tc.v, err)
		}
		if !bytes.Equal(p.Written(), tc.want) {
			t.Fatalf("PackInt(%d) = % x, want % x", tc.v, p.Written(), tc.want)
		}
	}
}

func TestByteExactVectors(t *testing.T) {
	t.Run("nil true false sequence", func(t *testing.T) {
		buf := make([]byte, 8)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackNil(); err != nil {
			t.Fatal(err)
		}
		if err := p.PackBool(true); err != nil {
			t.Fatal(err)
		}
		if err := p.PackBool(false); err != nil {
			t.Fatal(err)
		}
		want := []byte{0xc0, 0xc3, 0xc2}
		if !bytes.Equal(p.Written(), want) {
			t.Fatalf("got % x, want % x", p.Written(), want)
		}
	})

	t.Run("array of three uints", func(t *testing.T) {
		buf := make([]byte, 8)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackArrayHeader(3); err != nil {
			t.Fatal(err)
		}
		for _, v := range []uint64{1, 2, 3} {
			if err := p.PackUint(v); err != nil {
				t.Fatal(err)
			}
		}
		want := []byte{0x93, 0x01, 0x02, 0x03}
		if !bytes.Equal(p.Written(), want) {
			t.Fatalf("got % x, want % x", p.Written(), want)
		}
	})

	t.Run("string hi", func(t *testing.T) {
		buf := make([]byte, 8)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackString("hi"); err != nil {
			t.Fatal(err)
		}
		want := []byte{0xa2, 0x68, 0x69}
		if !bytes.Equal(p.Written(), want) {
			t.Fatalf("got % x, want % x", p.Written(), want)
		}
	})

	t.Run("ext type 7 one byte", func(t *testing.T) {
		buf := make([]byte, 8)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackExt(7, []byte{0x01}); err != nil {
			t.Fatal(err)
		}
		want := []byte{0xd4, 0x07, 0x01}
		if !bytes.Equal(p.Written(), want) {
			t.Fatalf("got % x, want % x", p.Written(), want)
		}
	})
}

func TestPackArrayHeaderShortestForm(t *testing.T) {
	cases := []struct {
		n    uint32
		want []byte
	}{
		{0, []byte{0x90}},
		{15, []byte{0x9f}},
		{16, []byte{0xdc, 0x00, 0x10}},
		{1<<16 - 1, []byte{0xdc, 0xff, 0xff}},
		{1 << 16, []byte{0xdd, 0x00, 0x01, 0x00, 0x00}},
	}
	for _, tc := range cases {
		buf := make([]byte, 8)
		p := mustPacker(t, buf, PackerOptions{})
		if err := p.PackArrayHeader(tc.n); err != nil {
			t.Fatalf("PackArrayHeader(%d): %v", tc.n, err)
		}
		if !bytes.Equal(p.Written(), tc.want) {
			t.Fatalf("PackArrayHeader(%d) = % x, want % x", tc.n, p.Written(), tc.want)
		}
	}
}

func TestOverflowNoHandler(t *testing.T) {
	buf := make([]byte, 1)
	p := mustPacker(t, buf, PackerOptions{})
	err := p.PackUint(1000) // needs 3 bytes, buffer has 1
	if err == nil {
		t.Fatal("expected overflow error")
	}
	if !errorsIsCode(err, BufferOverflow) {
		t.Fatalf("got %v, want BufferOverflow", err)
	}
	if p.Code() != BufferOverflow {
		t.Fatalf("Code() = %v, want BufferOverflow", p.Code())
	}

	// poisoned: next call is rejected as Stopped regardless of fit.
	if err := p.PackNil(); !errorsIsCode(err, Stopped) {
		t.Fatalf("expected Stopped after poisoning, got %v", err)
	}
}

func TestOverflowHandlerGrows(t *testing.T) {
	small := make([]byte, 1)
	calls := 0
	p := mustPacker(t, small, PackerOptions{
		OnOverflow: func(p *Packer, requested int) error {
			calls++
			bigger := make([]byte, 64)
			copy(bigger, p.Written())
			p.Continue(bigger, len(p.Written()))
			return nil
		},
	})
	if err := p.PackUint(1000); err != nil {
		t.Fatalf("PackUint after growth: %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler called %d times, want 1", calls)
	}
	want := []byte{0xcd, 0x03, 0xe8}
	if !bytes.Equal(p.Written(), want) {
		t.Fatalf("got % x, want % x", p.Written(), want)
	}
}

func errorsIsCode(err error, c Code) bool {
	e, ok := err.(*Error)
	return ok && e.Code == c
}

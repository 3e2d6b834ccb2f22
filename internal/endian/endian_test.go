package endian

import "testing"

func TestCheckSucceeds(t *testing.T) {
	if !Check() {
		t.Fatal("Check() = false, want true")
	}
}

func TestUint16RoundTrip(t *testing.T) {
	b := make([]byte, 2)
	PutUint16(b, 0xbeef)
	if got := Uint16(b); got != 0xbeef {
		t.Fatalf("Uint16 = %#x, want 0xbeef", got)
	}
	if b[0] != 0xbe || b[1] != 0xef {
		t.Fatalf("bytes = % x, want be ef (big-endian)", b)
	}
}

func TestUint32RoundTrip(t *testing.T) {
	b := make([]byte, 4)
	PutUint32(b, 0xdeadbeef)
	if got := Uint32(b); got != 0xdeadbeef {
		t.Fatalf("Uint32 = %#x, want 0xdeadbeef", got)
	}
	if b[0] != 0xde || b[3] != 0xef {
		t.Fatalf("bytes = % x, want leading de trailing ef", b)
	}
}

func TestUint64RoundTrip(t *testing.T) {
	b := make([]byte, 8)
	PutUint64(b, 0x0102030405060708)
	if got := Uint64(b); got != 0x0102030405060708 {
		t.Fatalf("Uint64 = %#x, want 0x0102030405060708", got)
	}
	want := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	for i, w := range want {
		if b[i] != w {
			t.Fatalf("bytes = % x, want % x", b, want)
		}
	}
}

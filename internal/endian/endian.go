// Package endian provides the big-endian load/store helpers the packer
// and unpacker use for multi-byte fields, plus a startup self-check.
//
// MessagePack fields are always big-endian on the wire regardless of
// host byte order, so every Put/Get here is unconditional network byte
// order — there is no host-endian fast path to select between. Check
// exists anyway, and runs once per context construction, to catch a
// build that has somehow broken that assumption before it corrupts the
// first encoded item rather than after.
package endian

import "encoding/binary"

// pattern is the ASCII bytes "1234" read as a big-endian uint32, used by
// Check to verify that PutUint32 lays it out as the bytes "1234".
const pattern uint32 = 0x31323334

// Check runs the self-check described in spec §4.1. It always succeeds
// for this implementation (encoding/binary.BigEndian is unconditionally
// correct on every Go-supported architecture); it exists so construction
// failures show up the same way a hand-rolled byte-swap implementation's
// would, rather than silently assuming correctness.
func Check() bool {
	var b [4]byte
	PutUint32(b[:], pattern)
	return string(b[:]) == "1234"
}

func PutUint16(b []byte, v uint16) { binary.BigEndian.PutUint16(b, v) }
func Uint16(b []byte) uint16       { return binary.BigEndian.Uint16(b) }

func PutUint32(b []byte, v uint32) { binary.BigEndian.PutUint32(b, v) }
func Uint32(b []byte) uint32       { return binary.BigEndian.Uint32(b) }

func PutUint64(b []byte, v uint64) { binary.BigEndian.PutUint64(b, v) }
func Uint64(b []byte) uint64       { return binary.BigEndian.Uint64(b) }

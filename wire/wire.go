// Package wire implements the little-endian integer and length-encoded
// codecs used by the MySQL client/server wire protocol.
package wire

import "encoding/binary"

// PutUint16 writes v as a 2-byte little-endian integer into dst.
func PutUint16(dst []byte, v uint16) {
	binary.LittleEndian.PutUint16(dst, v)
}

// Uint16 reads a 2-byte little-endian integer from src.
func Uint16(src []byte) uint16 {
	return binary.LittleEndian.Uint16(src)
}

// PutUint24 writes v as a 3-byte little-endian integer into dst.
// Used for MySQL packet payload lengths; v must fit in 24 bits.
func PutUint24(dst []byte, v uint32) {
	dst[0] = byte(v)
	dst[1] = byte(v >> 8)
	dst[2] = byte(v >> 16)
}

// Uint24 reads a 3-byte little-endian integer from src.
func Uint24(src []byte) uint32 {
	return uint32(src[0]) | uint32(src[1])<<8 | uint32(src[2])<<16
}

// PutUint32 writes v as a 4-byte little-endian integer into dst.
func PutUint32(dst []byte, v uint32) {
	binary.LittleEndian.PutUint32(dst, v)
}

// Uint32 reads a 4-byte little-endian integer from src.
func Uint32(src []byte) uint32 {
	return binary.LittleEndian.Uint32(src)
}

// Uint64 reads an 8-byte little-endian integer from src.
func Uint64(src []byte) uint64 {
	return binary.LittleEndian.Uint64(src)
}

// PutUint64 writes v as an 8-byte little-endian integer into dst.
func PutUint64(dst []byte, v uint64) {
	binary.LittleEndian.PutUint64(dst, v)
}

// Length-encoded integer discriminator bytes (MySQL convention).
const (
	lencNull  = 0xFB
	lenc2Byte = 0xFC
	lenc3Byte = 0xFD
	lenc8Byte = 0xFE
)

// AppendLengthEncodedInt appends n to dst using the MySQL
// length-encoded integer convention and returns the extended slice.
func AppendLengthEncodedInt(dst []byte, n uint64) []byte {
	switch {
	case n < 251:
		return append(dst, byte(n))
	case n <= 0xFFFF:
		dst = append(dst, lenc2Byte, byte(n), byte(n>>8))
		return dst
	case n <= 0xFFFFFF:
		dst = append(dst, lenc3Byte, byte(n), byte(n>>8), byte(n>>16))
		return dst
	default:
		dst = append(dst, lenc8Byte)
		var buf [8]byte
		binary.LittleEndian.PutUint64(buf[:], n)
		return append(dst, buf[:]...)
	}
}

// LengthEncodedInt reads a length-encoded integer from src starting at
// offset 0. It returns the value, the number of bytes consumed, and
// whether the value was the NULL marker (0xFB). n is 0 if src is too
// short to contain a complete encoding.
func LengthEncodedInt(src []byte) (value uint64, n int, isNull bool) {
	if len(src) == 0 {
		return 0, 0, false
	}
	switch b := src[0]; {
	case b < 251:
		return uint64(b), 1, false
	case b == lencNull:
		return 0, 1, true
	case b == lenc2Byte:
		if len(src) < 3 {
			return 0, 0, false
		}
		return uint64(Uint16(src[1:3])), 3, false
	case b == lenc3Byte:
		if len(src) < 4 {
			return 0, 0, false
		}
		return uint64(Uint24(src[1:4])), 4, false
	case b == lenc8Byte:
		if len(src) < 9 {
			return 0, 0, false
		}
		return Uint64(src[1:9]), 9, false
	default:
		return 0, 0, false
	}
}

// LengthEncodedString reads a length-encoded string from src starting
// at offset 0 and returns it along with the number of bytes consumed
// (including the length prefix). n is 0 if src does not hold a
// complete string.
func LengthEncodedString(src []byte) (s []byte, n int) {
	length, prefixLen, isNull := LengthEncodedInt(src)
	if prefixLen == 0 || isNull {
		return nil, 0
	}
	total := prefixLen + int(length)
	if total > len(src) {
		return nil, 0
	}
	return src[prefixLen:total], total
}

// AppendLengthEncodedString appends s to dst as a length-encoded
// string (length prefix followed by the raw bytes).
func AppendLengthEncodedString(dst []byte, s []byte) []byte {
	dst = AppendLengthEncodedInt(dst, uint64(len(s)))
	return append(dst, s...)
}

// NullTerminated returns the bytes in src up to (not including) the
// first NUL byte, and the number of bytes consumed including the
// terminator. ok is false if no terminator was found.
func NullTerminated(src []byte) (s []byte, n int, ok bool) {
	for i, b := range src {
		if b == 0 {
			return src[:i], i + 1, true
		}
	}
	return nil, 0, false
}

package wire

import (
	"bytes"
	"testing"
)

func TestUint24RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 255, 256, 65535, 65536, 0xFFFFFF}
	for _, v := range cases {
		var buf [3]byte
		PutUint24(buf[:], v)
		if got := Uint24(buf[:]); got != v {
			t.Errorf("Uint24(PutUint24(%d)) = %d", v, got)
		}
	}
}

func TestUint16RoundTrip(t *testing.T) {
	cases := []uint16{0, 1, 255, 256, 65535}
	for _, v := range cases {
		var buf [2]byte
		PutUint16(buf[:], v)
		if got := Uint16(buf[:]); got != v {
			t.Errorf("Uint16(PutUint16(%d)) = %d", v, got)
		}
	}
}

func TestUint32RoundTrip(t *testing.T) {
	cases := []uint32{0, 1, 0xFFFFFFFF, 1234567}
	for _, v := range cases {
		var buf [4]byte
		PutUint32(buf[:], v)
		if got := Uint32(buf[:]); got != v {
			t.Errorf("Uint32(PutUint32(%d)) = %d", v, got)
		}
	}
}

func TestLengthEncodedIntRoundTrip(t *testing.T) {
	cases := []uint64{0, 1, 250, 251, 65535, 65536, 0xFFFFFF, 0x1000000, 1 << 40, 0xFFFFFFFFFFFFFFFF}
	for _, n := range cases {
		enc := AppendLengthEncodedInt(nil, n)
		got, consumed, isNull := LengthEncodedInt(enc)
		if isNull {
			t.Errorf("n=%d: unexpected NULL marker", n)
		}
		if consumed != len(enc) {
			t.Errorf("n=%d: consumed %d, want %d", n, consumed, len(enc))
		}
		if got != n {
			t.Errorf("LengthEncodedInt(AppendLengthEncodedInt(%d)) = %d", n, got)
		}
	}
}

func TestLengthEncodedIntTruncated(t *testing.T) {
	enc := AppendLengthEncodedInt(nil, 1<<20)
	for i := 0; i < len(enc); i++ {
		if _, n, _ := LengthEncodedInt(enc[:i]); n != 0 {
			t.Errorf("truncated input at %d bytes should report n=0, got %d", i, n)
		}
	}
}

func TestLengthEncodedString(t *testing.T) {
	s := []byte("root")
	enc := AppendLengthEncodedString(nil, s)
	got, n := LengthEncodedString(enc)
	if n != len(enc) || !bytes.Equal(got, s) {
		t.Errorf("LengthEncodedString round-trip failed: got %q, n=%d", got, n)
	}
}

func TestNullTerminated(t *testing.T) {
	src := []byte("5.6.0\x00trailing")
	s, n, ok := NullTerminated(src)
	if !ok || string(s) != "5.6.0" || n != 6 {
		t.Errorf("NullTerminated = %q, %d, %v", s, n, ok)
	}

	if _, _, ok := NullTerminated([]byte("no-terminator")); ok {
		t.Error("expected ok=false for unterminated input")
	}
}

package auth

import (
	"bytes"
	"testing"

	"github.com/ascore-go/ascore/errcode"
)

// buildHandshakePayload constructs the §8 scenario-1 test server's
// handshake payload:
//
//	[0a]['5.6.0'\0][01 00 00 00][01..08][00][ff f7][08][02 00][00x13][09..14 00]
func buildHandshakePayload() []byte {
	var buf bytes.Buffer
	buf.WriteByte(10)
	buf.WriteString("5.6.0")
	buf.WriteByte(0)
	buf.Write([]byte{0x01, 0x00, 0x00, 0x00}) // thread id = 1
	buf.Write([]byte{1, 2, 3, 4, 5, 6, 7, 8}) // scramble part 1
	buf.WriteByte(0)                          // filler
	buf.Write([]byte{0xff, 0xf7})             // capabilities, PROTOCOL_41 set
	buf.WriteByte(0x08)                       // charset
	buf.Write([]byte{0x02, 0x00})             // server status
	buf.Write(make([]byte, 13))               // filler
	buf.Write([]byte{9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20})
	buf.WriteByte(0) // terminator
	return buf.Bytes()
}

func TestParseHandshakeHappyPath(t *testing.T) {
	var errs errcode.State
	h, ok := ParseHandshake(buildHandshakePayload(), &errs)
	if !ok {
		t.Fatalf("ParseHandshake failed: %v %q", errs.Code, errs.Message)
	}
	if h.ThreadID != 1 {
		t.Errorf("ThreadID = %d, want 1", h.ThreadID)
	}
	if h.ServerVersion != "5.6.0" {
		t.Errorf("ServerVersion = %q, want 5.6.0", h.ServerVersion)
	}
	want := [20]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12, 13, 14, 15, 16, 17, 18, 19, 20}
	if h.Scramble != want {
		t.Errorf("Scramble = %v, want %v", h.Scramble, want)
	}
	if h.ServerCapabilities&CapabilityProtocol41 == 0 {
		t.Error("expected PROTOCOL_41 bit set")
	}
}

func TestParseHandshakeBadProtocolVersion(t *testing.T) {
	var errs errcode.State
	payload := buildHandshakePayload()
	payload[0] = 9
	_, ok := ParseHandshake(payload, &errs)
	if ok || errs.Code != errcode.BadProtocol {
		t.Errorf("expected BadProtocol, got ok=%v code=%v", ok, errs.Code)
	}
}

func TestParseHandshakeNoOldAuth(t *testing.T) {
	var errs errcode.State
	payload := buildHandshakePayload()
	// Clear the PROTOCOL_41 bit (bit 9) from the capabilities field.
	caps := payload[1+6+4+8+1 : 1+6+4+8+1+2]
	caps[1] &^= 0x02 // clear bit 9 (PROTOCOL_41), which lives in the high capability byte
	_, ok := ParseHandshake(payload, &errs)
	if ok || errs.Code != errcode.NoOldAuth {
		t.Errorf("expected NoOldAuth, got ok=%v code=%v", ok, errs.Code)
	}
}

func TestParseHandshakeUnboundedVersionFails(t *testing.T) {
	var errs errcode.State
	var buf bytes.Buffer
	buf.WriteByte(10)
	buf.Write(bytes.Repeat([]byte{'a'}, 200)) // no NUL terminator at all
	_, ok := ParseHandshake(buf.Bytes(), &errs)
	if ok || errs.Code != errcode.BadProtocol {
		t.Errorf("expected BadProtocol for unterminated version, got ok=%v code=%v", ok, errs.Code)
	}
}

func TestScramblePasswordDeterministic(t *testing.T) {
	var scramble [20]byte
	for i := range scramble {
		scramble[i] = byte(i + 1)
	}
	a := ScramblePassword("pw", scramble)
	b := ScramblePassword("pw", scramble)
	if a != b {
		t.Error("ScramblePassword is not deterministic")
	}

	other := ScramblePassword("different", scramble)
	if a == other {
		t.Error("different passwords produced the same scramble token")
	}
}

func TestBuildResponseEmptyPassword(t *testing.T) {
	h := Handshake{ServerCapabilities: CapabilityProtocol41 | CapabilityLongPassword}
	var errs errcode.State
	resp, ok := BuildResponse(h, "root", "", "", ResponseOptions{}, 8192, &errs)
	if !ok {
		t.Fatalf("BuildResponse failed: %v", errs.Message)
	}
	// capabilities(4) + max-packet(4) + charset(1) + reserved(23) + "root\x00" = 37
	passwordFieldOffset := 4 + 4 + 1 + 23 + len("root") + 1
	if resp[passwordFieldOffset] != 0 {
		t.Errorf("expected single zero byte for empty password field, got %#x", resp[passwordFieldOffset])
	}
}

func TestBuildResponseNoScrambleFails(t *testing.T) {
	h := Handshake{ServerCapabilities: CapabilityProtocol41}
	var errs errcode.State
	_, ok := BuildResponse(h, "root", "secret", "", ResponseOptions{}, 8192, &errs)
	if ok || errs.Code != errcode.NoScramble {
		t.Errorf("expected NoScramble, got ok=%v code=%v", ok, errs.Code)
	}
}

func TestIsImmediateFailure(t *testing.T) {
	payload := append([]byte{0xff}, []byte("\x15\x04#28000Access denied")...)
	msg, is := IsImmediateFailure(payload)
	if !is {
		t.Fatal("expected immediate failure marker to be recognized")
	}
	if msg == "" {
		t.Error("expected a non-empty message")
	}

	if _, is := IsImmediateFailure([]byte{0x0a}); is {
		t.Error("protocol-version byte 0x0a must not be mistaken for the failure marker")
	}
}

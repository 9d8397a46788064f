// Package auth parses the server's protocol-10 handshake greeting,
// computes the scrambled password, and builds the client handshake
// response payload.
package auth

import (
	"crypto/sha1" //nolint:gosec // MySQL's native password scramble is specified in terms of SHA-1.
	"fmt"

	"github.com/ascore-go/ascore/errcode"
	"github.com/ascore-go/ascore/wire"
)

// Capability bits relevant to the handshake. Only the subset this
// core negotiates is named; unused/reserved bits are left to the
// caller's ServerCapabilities mask.
const (
	CapabilityLongPassword uint32 = 1 << 0
	CapabilityFoundRows    uint32 = 1 << 1
	CapabilityLongFlag     uint32 = 1 << 2
	CapabilityConnectWithDB uint32 = 1 << 3
	CapabilityProtocol41   uint32 = 1 << 9
	CapabilityInteractive  uint32 = 1 << 10
	CapabilitySecureConn   uint32 = 1 << 15
	CapabilityMultiStatements uint32 = 1 << 16
	CapabilityMultiResults uint32 = 1 << 17
	CapabilityPluginAuth   uint32 = 1 << 19

	// CapabilityClient is the set of capability bits this core asks
	// for from whatever the server advertises, before any of the
	// option-driven bits below are OR-ed in.
	CapabilityClient = CapabilityLongPassword | CapabilityLongFlag | CapabilityConnectWithDB | CapabilityProtocol41 | CapabilitySecureConn | CapabilityMultiResults
)

const (
	scrambleSize       = 20
	maxServerVersion   = 32
	part1ScrambleSize  = 8
	part2ScrambleSize  = 12
	fillerSize         = 13
)

// Handshake holds the fields extracted from a server protocol-10
// handshake packet (§4.6 step 1-10 of the base spec).
type Handshake struct {
	ServerVersion   string
	ThreadID        uint32
	Scramble        [scrambleSize]byte
	ServerCapabilities uint32
	Charset         byte
	ServerStatus    uint16
}

// ParseHandshake parses payload (the framed HANDSHAKE packet body,
// header already stripped). It returns the parsed Handshake and true
// on success, or false with errs set to BadProtocol or NoOldAuth on
// failure. The connection's packet handler checks for the
// immediate-auth-failure marker (payload[0] == 0xFF) with
// IsImmediateFailure before calling this; ParseHandshake assumes it
// has already been ruled out.
func ParseHandshake(payload []byte, errs *errcode.State) (Handshake, bool) {
	var h Handshake

	if len(payload) < 1 {
		errs.Set(errcode.BadProtocol, "handshake: empty payload")
		return h, false
	}
	if payload[0] != 10 {
		errs.Set(errcode.BadProtocol, "handshake: unsupported protocol version %d", payload[0])
		return h, false
	}
	pos := 1

	version, n, ok := wire.NullTerminated(payload[pos:])
	if !ok || len(version) > maxServerVersion {
		errs.Set(errcode.BadProtocol, "handshake: malformed or oversize server version string")
		return h, false
	}
	h.ServerVersion = string(version)
	pos += n

	if pos+4 > len(payload) {
		errs.Set(errcode.BadProtocol, "handshake: truncated before thread id")
		return h, false
	}
	h.ThreadID = wire.Uint32(payload[pos : pos+4])
	pos += 4

	// 8 bytes of scramble part 1, then a 1-byte filler.
	if pos+part1ScrambleSize+1 > len(payload) {
		errs.Set(errcode.BadProtocol, "handshake: truncated scramble part 1")
		return h, false
	}
	copy(h.Scramble[:part1ScrambleSize], payload[pos:pos+part1ScrambleSize])
	pos += part1ScrambleSize + 1

	if pos+2 > len(payload) {
		errs.Set(errcode.BadProtocol, "handshake: truncated capabilities")
		return h, false
	}
	h.ServerCapabilities = uint32(wire.Uint16(payload[pos : pos+2]))
	pos += 2

	if h.ServerCapabilities&CapabilityProtocol41 == 0 {
		errs.Set(errcode.NoOldAuth, "handshake: MySQL 4.1 protocol and higher required")
		// Per spec: this is fatal but parsing continues so the
		// remaining fixed-width fields stay aligned for callers that
		// still want ServerVersion/ThreadID for diagnostics.
	}

	if pos+1 > len(payload) {
		errs.Set(errcode.BadProtocol, "handshake: truncated charset")
		return h, false
	}
	h.Charset = payload[pos]
	pos++

	if pos+2 > len(payload) {
		errs.Set(errcode.BadProtocol, "handshake: truncated server status")
		return h, false
	}
	h.ServerStatus = wire.Uint16(payload[pos : pos+2])
	pos += 2

	// 13 filler bytes (includes the scramble-length byte this version
	// intentionally ignores).
	pos += fillerSize
	if pos+part2ScrambleSize+1 > len(payload) {
		errs.Set(errcode.BadProtocol, "handshake: truncated scramble part 2")
		return h, false
	}
	copy(h.Scramble[part1ScrambleSize:], payload[pos:pos+part2ScrambleSize])
	// Remainder (terminator + optional auth-plugin name) is ignored in
	// this version per §4.6 step 10.

	return h, !errs.IsSet()
}

// ScramblePassword implements §4.6's password scramble algorithm:
//
//	stage1 = SHA1(P)
//	stage2 = SHA1(stage1)
//	token  = SHA1(scramble || stage2) XOR stage1
//
// It is a pure function of (password, scramble): same inputs always
// produce the same 20-byte token.
func ScramblePassword(password string, scramble [scrambleSize]byte) [scrambleSize]byte {
	stage1 := sha1.Sum([]byte(password))
	stage2 := sha1.Sum(stage1[:])

	h := sha1.New()
	h.Write(scramble[:])
	h.Write(stage2[:])
	var token [scrambleSize]byte
	h.Sum(token[:0])

	for i := range token {
		token[i] ^= stage1[i]
	}
	return token
}

// ResponseOptions mirrors the Connection options that influence which
// capability bits the handshake response requests.
type ResponseOptions struct {
	FoundRows       bool
	Interactive     bool
	MultiStatements bool
	AuthPlugin      bool
}

// BuildResponse assembles the client handshake response payload per
// §4.6: capability mask, max packet size, charset, 23 reserved zero
// bytes, user, password field, and schema. If password is non-empty
// and h.Scramble is all zero bytes (no scramble supplied by the
// server), BuildResponse fails with NoScramble.
func BuildResponse(h Handshake, user, password, schema string, opts ResponseOptions, maxPacketSize uint32, errs *errcode.State) ([]byte, bool) {
	capabilities := h.ServerCapabilities & CapabilityClient
	if opts.FoundRows {
		capabilities |= CapabilityFoundRows
	}
	if opts.Interactive {
		capabilities |= CapabilityInteractive
	}
	if opts.MultiStatements {
		capabilities |= CapabilityMultiStatements
	}
	if opts.AuthPlugin {
		capabilities |= CapabilityPluginAuth
	}

	buf := make([]byte, 0, 64+len(user)+len(password)+len(schema))
	var tmp [4]byte

	wire.PutUint32(tmp[:], capabilities)
	buf = append(buf, tmp[:]...)

	wire.PutUint32(tmp[:], maxPacketSize)
	buf = append(buf, tmp[:]...)

	buf = append(buf, 0) // charset 0: server default, per §4.6.
	buf = append(buf, make([]byte, 23)...)

	buf = append(buf, []byte(user)...)
	buf = append(buf, 0)

	if password == "" {
		buf = append(buf, 0)
	} else {
		var zero [scrambleSize]byte
		if h.Scramble == zero {
			errs.Set(errcode.NoScramble, "handshake response: no scramble supplied by server")
			return nil, false
		}
		token := ScramblePassword(password, h.Scramble)
		buf = append(buf, scrambleSize)
		buf = append(buf, token[:]...)
	}

	buf = append(buf, []byte(schema)...)
	buf = append(buf, 0)

	return buf, true
}

// immediateFailureMarker is the first payload byte the connection's
// packet handler watches for in place of a handshake: the server
// rejected the connection before a greeting was even sent.
const immediateFailureMarker = 0xFF

// IsImmediateFailure reports whether payload begins with the
// immediate-auth-failure marker, and if so extracts the trailing
// SQL-state-prefixed error message.
func IsImmediateFailure(payload []byte) (message string, is bool) {
	if len(payload) == 0 || payload[0] != immediateFailureMarker {
		return "", false
	}
	body := payload[1:]
	// ERR packet layout: errno(2) '#' sqlstate(5) message
	if len(body) > 7 && body[2] == '#' {
		return fmt.Sprintf("[%s] %s", body[3:8], body[8:]), true
	}
	return string(body), true
}

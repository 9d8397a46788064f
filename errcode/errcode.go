// Package errcode holds the fixed local error taxonomy and the
// bounded human-readable message buffer a Connection carries once it
// stops being usable.
package errcode

import "fmt"

// Code is a local error code from the fixed taxonomy. Unlike a Go
// error, a Code is stable and inspectable after the connection that
// produced it has transitioned to a terminal status.
type Code int

const (
	OK Code = iota
	UserTooLong
	SchemaTooLong
	DNSError
	ConnectError
	BadProtocol
	NoOldAuth
	NoScramble
	BadScramble
	AuthFailed
	PacketOutOfSequence
)

func (c Code) String() string {
	switch c {
	case OK:
		return "OK"
	case UserTooLong:
		return "USER_TOO_LONG"
	case SchemaTooLong:
		return "SCHEMA_TOO_LONG"
	case DNSError:
		return "DNS_ERROR"
	case ConnectError:
		return "CONNECT_ERROR"
	case BadProtocol:
		return "BAD_PROTOCOL"
	case NoOldAuth:
		return "NO_OLD_AUTH"
	case NoScramble:
		return "NO_SCRAMBLE"
	case BadScramble:
		return "BAD_SCRAMBLE"
	case AuthFailed:
		return "AUTH_FAILED"
	case PacketOutOfSequence:
		return "PACKET_OUT_OF_SEQUENCE"
	}
	return fmt.Sprintf("UNKNOWN_ERRCODE(%d)", int(c))
}

// MessageBufferSize is the fixed capacity of the human-readable error
// message carried alongside a Code.
const MessageBufferSize = 512

// State is the error surface a Connection exposes: a code from the
// fixed taxonomy plus a bounded message. The zero value is OK with an
// empty message.
type State struct {
	Code    Code
	Message string
}

// Set records code and a formatted message, truncating the message to
// MessageBufferSize bytes exactly like the core's bounded snprintf
// into a fixed errmsg buffer.
func (s *State) Set(code Code, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if len(msg) > MessageBufferSize {
		msg = msg[:MessageBufferSize]
	}
	s.Code = code
	s.Message = msg
}

// IsSet reports whether an error has been recorded.
func (s *State) IsSet() bool {
	return s.Code != OK
}

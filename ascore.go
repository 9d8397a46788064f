// Package ascore is an asynchronous client engine for a
// MySQL-compatible wire protocol: it establishes a connection,
// performs the handshake and challenge-response authentication, and
// exposes a non-blocking state machine upper layers drive to
// completion by calling Poll.
//
// Query execution, TLS, compression, pre-4.1 authentication,
// pluggable auth plugins, and any user-facing callback API are out of
// scope; see SPEC_FULL.md.
package ascore

import (
	"github.com/google/uuid"

	"github.com/ascore-go/ascore/errcode"
)

// Bounds from the base spec's data model.
const (
	MaxUserLen   = 63
	MaxSchemaLen = 63
)

// Protocol selects the transport a Connection dials.
type Protocol int

const (
	ProtocolUnknown Protocol = iota
	ProtocolTCP
	ProtocolUDS
)

// Status is the Connection's externally observable lifecycle state.
type Status int

const (
	StatusNotConnected Status = iota
	StatusParameterError
	StatusConnecting
	StatusIdle
	StatusConnectFailed
	StatusProcessing
)

func (s Status) String() string {
	switch s {
	case StatusNotConnected:
		return "NOT_CONNECTED"
	case StatusParameterError:
		return "PARAMETER_ERROR"
	case StatusConnecting:
		return "CONNECTING"
	case StatusIdle:
		return "IDLE"
	case StatusConnectFailed:
		return "CONNECT_FAILED"
	case StatusProcessing:
		return "PROCESSING"
	}
	return "UNKNOWN_STATUS"
}

// Option enumerates the boolean (and protocol-selecting) knobs a
// caller can set before calling Connect.
type Option int

const (
	OptionPolling Option = iota
	OptionRawScramble
	OptionFoundRows
	OptionInteractive
	OptionMultiStatements
	OptionAuthPlugin
	OptionProtocolTCP
	OptionProtocolUDS
)

type options struct {
	polling         bool
	rawScramble     bool
	foundRows       bool
	interactive     bool
	multiStatements bool
	authPlugin      bool
}

// ID returns the connection's stable identifier, assigned at Create
// time. Upper layers (pools, loggers) use it as a handle distinct from
// the Go pointer.
func (c *Connection) ID() uuid.UUID {
	return c.id
}

// Status returns the connection's current lifecycle status.
func (c *Connection) Status() Status {
	return c.status
}

// Err returns the local error code and bounded message recorded on
// the connection, if any.
func (c *Connection) Err() errcode.State {
	return c.errs
}

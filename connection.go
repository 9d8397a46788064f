package ascore

import (
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ascore-go/ascore/auth"
	"github.com/ascore-go/ascore/buffer"
	"github.com/ascore-go/ascore/errcode"
	"github.com/ascore-go/ascore/frame"
	"github.com/ascore-go/ascore/ioloop"
)

// phase records the connection's internal progress, kept separate
// from the coarser, externally-observed Status. It is updated at every
// transition but no code path branches on it: the parser applied to a
// packet is selected by nextPacketType, and Poll/Connect decide on
// Status.
type phase int

const (
	phaseNotConnected phase = iota
	phaseResolving
	phaseDialing
	phaseAwaitingHandshake
	phaseAuthSent
	phaseIdle
	phaseFailed
)

// Connection is the central entity: a single MySQL-compatible client
// connection driven to completion by repeated calls to Poll. The zero
// value is not usable; construct with Create. A Connection is owned
// exclusively by its caller and must not be used from more than one
// goroutine at a time (§5 of the base spec).
type Connection struct {
	id uuid.UUID

	host     string
	port     uint16
	protocol Protocol

	user     string
	password string
	schema   string

	options options

	status Status
	errs   errcode.State

	handshake      auth.Handshake
	serverStatus   uint16
	nextPacketType frame.PacketType
	phase          phase

	loop *ioloop.Loop
	conn net.Conn
	buf  *buffer.Buffer

	dead atomic.Bool
}

// Create validates parameters and returns a new Connection. Violating
// the user/schema length bounds returns a Connection in
// StatusParameterError; such a connection is still safe to pass to
// Destroy, but Connect on it is a no-op that returns the same status.
func Create(host string, port uint16, user, password, schema string) *Connection {
	c := &Connection{
		id:       uuid.New(),
		host:     host,
		port:     port,
		user:     user,
		password: password,
		schema:   schema,
		status:   StatusNotConnected,
	}

	if len(user) > MaxUserLen {
		c.errs.Set(errcode.UserTooLong, "user name exceeds %d bytes", MaxUserLen)
		c.status = StatusParameterError
		return c
	}
	if len(schema) > MaxSchemaLen {
		c.errs.Set(errcode.SchemaTooLong, "schema name exceeds %d bytes", MaxSchemaLen)
		c.status = StatusParameterError
		return c
	}

	return c
}

// Connect initiates the connection and runs the event loop once in the
// mode Poll uses: one iteration with OptionPolling set, otherwise to
// quiescence. If status is anything other than StatusNotConnected it
// returns the current status unchanged (§4.5).
func (c *Connection) Connect() Status {
	if c.status != StatusNotConnected {
		return c.status
	}

	if c.protocol == ProtocolUnknown {
		if c.port == 0 {
			c.protocol = ProtocolUDS
		} else {
			c.protocol = ProtocolTCP
		}
	}

	c.loop = ioloop.New()
	c.status = StatusConnecting

	switch c.protocol {
	case ProtocolTCP:
		c.phase = phaseResolving
		c.loop.Resolve(c.host, c.onResolved)
	case ProtocolUDS:
		c.phase = phaseDialing
		c.loop.DialUnix(c.host, c.onConnect)
	default:
		c.fail(errcode.ConnectError, "unknown protocol")
	}

	c.runLoop()
	return c.status
}

// Poll advances the event loop one iteration (ModePoll) or to
// quiescence (ModeBlocking), depending on the OptionPolling setting,
// and returns the post-run status. Calls after a terminal status
// (NotConnected, Idle, ConnectFailed, ParameterError) short-circuit
// without running the loop.
func (c *Connection) Poll() Status {
	switch c.status {
	case StatusNotConnected, StatusIdle, StatusConnectFailed, StatusParameterError:
		return c.status
	}
	c.runLoop()
	return c.status
}

func (c *Connection) runLoop() {
	mode := ioloop.ModeBlocking
	if c.options.polling {
		mode = ioloop.ModePoll
	}
	c.loop.Run(mode)
}

// Destroy closes any I/O handle, drains the loop once so the runtime
// can reclaim it, frees the read buffer, and marks the connection
// dead. Destroy is idempotent and safe on a nil Connection.
//
// The connection is marked dead before draining so that any callback
// still in flight observes deadness and no-ops instead of mutating a
// connection mid-teardown (Design Note 9b).
func (c *Connection) Destroy() {
	if c == nil {
		return
	}
	c.dead.Store(true)

	if c.conn != nil {
		_ = c.conn.Close()
	}
	if c.loop != nil {
		c.loop.Run(ioloop.ModePoll)
	}
	if c.buf != nil {
		c.buf.Free()
		c.buf = nil
	}
}

func (c *Connection) fail(code errcode.Code, format string, args ...any) {
	c.errs.Set(code, format, args...)
	c.status = StatusConnectFailed
	c.phase = phaseFailed
}

func (c *Connection) onResolved(addrs []netip.Addr, err error) {
	if c.dead.Load() {
		return
	}
	if err != nil {
		c.fail(errcode.DNSError, "dns lookup failure for %s: %v", c.host, err)
		return
	}
	if len(addrs) == 0 {
		c.fail(errcode.DNSError, "dns lookup for %s returned no addresses", c.host)
		return
	}
	// Use the first resolved address; others are discarded in this
	// version (§4.5).
	c.phase = phaseDialing
	c.loop.DialTCP(addrs[0], c.port, c.onConnect)
}

func (c *Connection) onConnect(conn net.Conn, err error) {
	if c.dead.Load() {
		return
	}
	if err != nil {
		c.fail(errcode.ConnectError, "connect to %s:%d failed: %v", c.host, c.port, err)
		return
	}
	c.conn = conn
	c.phase = phaseAwaitingHandshake
	c.nextPacketType = frame.PacketHandshake
	c.armRead()
}

// armRead issues one asynchronous read, growing and lazily creating
// the read buffer as needed, then processes whatever complete packets
// the frame layer can extract once the read lands.
func (c *Connection) armRead() {
	if c.buf == nil {
		c.buf = buffer.New()
	}
	size := c.buf.Available()
	if size == 0 {
		size = buffer.DefaultCapacity
	}
	c.loop.Read(c.conn, size, func(data []byte) {
		if c.dead.Load() {
			return
		}
		dst := c.buf.WriteRegion(len(data))
		n := copy(dst, data)
		c.buf.Produced(n)
	}, c.onRead)
}

func (c *Connection) onRead(n int, err error) {
	if c.dead.Load() {
		return
	}
	if err != nil {
		if err == io.EOF {
			c.fail(errcode.ConnectError, "server closed the connection")
			return
		}
		c.fail(errcode.ConnectError, "read failed: %v", err)
		return
	}
	if n == 0 {
		c.fail(errcode.ConnectError, "server closed the connection")
		return
	}

	if err := frame.Dispatch(c.buf, c.nextPacketType, c.dispatchPacket); err != nil {
		return // dispatchPacket already recorded the failure.
	}
	if c.status == StatusConnectFailed || c.status == StatusIdle {
		return
	}
	// Still waiting on more bytes for the current packet; keep reading.
	c.armRead()
}

func (c *Connection) dispatchPacket(packetType frame.PacketType, seq byte, payload []byte) error {
	if msg, isFailure := auth.IsImmediateFailure(payload); isFailure && packetType == frame.PacketHandshake {
		c.fail(errcode.AuthFailed, "authentication failed: %s", msg)
		return fmt.Errorf("ascore: %s", msg)
	}

	switch packetType {
	case frame.PacketHandshake:
		return c.handleHandshake(payload)
	case frame.PacketResponse:
		return c.handleAuthResponse(seq, payload)
	default:
		c.fail(errcode.PacketOutOfSequence, "unexpected packet type")
		return fmt.Errorf("ascore: unexpected packet type")
	}
}

func (c *Connection) handleHandshake(payload []byte) error {
	h, ok := auth.ParseHandshake(payload, &c.errs)
	if !ok {
		c.status = StatusConnectFailed
		c.phase = phaseFailed
		return fmt.Errorf("ascore: %s", c.errs.Message)
	}
	c.handshake = h
	c.serverStatus = h.ServerStatus

	resp, ok := auth.BuildResponse(h, c.user, c.password, c.schema, auth.ResponseOptions{
		FoundRows:       c.options.foundRows,
		Interactive:     c.options.interactive,
		MultiStatements: c.options.multiStatements,
		AuthPlugin:      c.options.authPlugin,
	}, buffer.DefaultCapacity, &c.errs)
	if !ok {
		c.status = StatusConnectFailed
		c.phase = phaseFailed
		return fmt.Errorf("ascore: %s", c.errs.Message)
	}

	framed := frame.AppendPacket(nil, 1, resp)
	c.phase = phaseAuthSent
	c.nextPacketType = frame.PacketResponse
	c.loop.Write(c.conn, framed, c.onWriteError)
	return nil
}

func (c *Connection) onWriteError(err error) {
	if c.dead.Load() || err == nil {
		return
	}
	c.fail(errcode.ConnectError, "write failed: %v", err)
}

// handleAuthResponse consumes the server's OK/ERR packet following
// the handshake response.
func (c *Connection) handleAuthResponse(_ byte, payload []byte) error {
	if len(payload) == 0 {
		c.fail(errcode.PacketOutOfSequence, "empty auth response packet")
		return fmt.Errorf("ascore: empty auth response")
	}
	switch payload[0] {
	case 0x00: // OK packet
		c.phase = phaseIdle
		c.status = StatusIdle
		return nil
	case 0xFF: // ERR packet
		msg, _ := auth.IsImmediateFailure(payload)
		c.fail(errcode.AuthFailed, "server rejected authentication: %s", msg)
		return fmt.Errorf("ascore: %s", msg)
	default:
		c.fail(errcode.PacketOutOfSequence, "unexpected byte %#x in auth response", payload[0])
		return fmt.Errorf("ascore: unexpected auth response")
	}
}

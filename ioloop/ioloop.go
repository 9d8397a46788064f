// Package ioloop is the cooperative, single-threaded I/O fabric (C3):
// it drives DNS resolution, TCP/Unix-domain connects, reads, and
// writes asynchronously and delivers their completions as callbacks
// invoked from Run, never from the background goroutines that do the
// actual blocking syscalls.
//
// The background goroutines this package spawns never touch
// connection state directly — they only compute a result and hand a
// completion thunk to the loop's channel, which Run drains on
// whichever goroutine calls it. That is what gives "no callback
// re-enters while another is executing" (§5 of the base spec): Run is
// not reentrant, and nothing outside Run ever invokes a completion.
package ioloop

import (
	"context"
	"net"
	"net/netip"
	"sync/atomic"
)

// Mode selects how Run drains the completion queue.
type Mode int

const (
	// ModePoll runs whatever completions are already queued, then
	// returns immediately. Matches the "polling" option's non-blocking
	// run-once style.
	ModePoll Mode = iota
	// ModeBlocking runs until no operation is in flight and the queue
	// is empty — i.e. until the loop is quiescent.
	ModeBlocking
)

type completion func()

// Loop is the per-connection event loop. The zero value is not usable;
// construct with New.
type Loop struct {
	ch       chan completion
	inFlight int32
}

// New creates a Loop with its completion queue ready to use.
func New() *Loop {
	return &Loop{ch: make(chan completion, 32)}
}

// Run drains queued completions according to mode and returns the
// number processed.
func (l *Loop) Run(mode Mode) int {
	n := 0
	switch mode {
	case ModePoll:
		for {
			select {
			case fn := <-l.ch:
				fn()
				n++
			default:
				return n
			}
		}
	case ModeBlocking:
		for atomic.LoadInt32(&l.inFlight) > 0 || len(l.ch) > 0 {
			fn := <-l.ch
			fn()
			n++
		}
		return n
	default:
		return n
	}
}

// spawn runs work on a new goroutine and enqueues its returned
// completion for later execution by Run. The in-flight counter is
// incremented before the goroutine starts and decremented as part of
// running the completion, so it only ever changes on a loop-owning
// goroutine plus this one increment here.
func (l *Loop) spawn(work func() completion) {
	atomic.AddInt32(&l.inFlight, 1)
	go func() {
		fn := work()
		l.ch <- func() {
			atomic.AddInt32(&l.inFlight, -1)
			fn()
		}
	}()
}

// Resolve performs asynchronous DNS resolution of host, yielding
// whatever IPv4 addresses the resolver returns. This core only dials
// the first one (§4.5), but the callback receives the full set so a
// future version can widen address-family support without changing
// this contract (Design Note 9c).
func (l *Loop) Resolve(host string, onResolved func(addrs []netip.Addr, err error)) {
	l.spawn(func() completion {
		ips, err := net.DefaultResolver.LookupIP(context.Background(), "ip4", host)
		if err != nil {
			return func() { onResolved(nil, err) }
		}
		addrs := make([]netip.Addr, 0, len(ips))
		for _, ip := range ips {
			if v4 := ip.To4(); v4 != nil {
				if a, ok := netip.AddrFromSlice(v4); ok {
					addrs = append(addrs, a)
				}
			}
		}
		return func() { onResolved(addrs, nil) }
	})
}

// DialTCP connects to addr:port over TCP.
func (l *Loop) DialTCP(addr netip.Addr, port uint16, onConnect func(net.Conn, error)) {
	l.spawn(func() completion {
		target := netip.AddrPortFrom(addr, port).String()
		conn, err := net.Dial("tcp", target)
		return func() { onConnect(conn, err) }
	})
}

// DialUnix connects to a Unix-domain socket at path.
func (l *Loop) DialUnix(path string, onConnect func(net.Conn, error)) {
	l.spawn(func() completion {
		conn, err := net.Dial("unix", path)
		return func() { onConnect(conn, err) }
	})
}

// Read performs one asynchronous read from conn into a scratch buffer
// sized maxSize. store is called on the loop-owning goroutine (from
// within Run), once the read has completed, with exactly the bytes
// read — mirroring the base spec's on_alloc/on_read split while
// keeping every touch of shared connection state (growing and copying
// into the real read buffer) on a single goroutine instead of racing
// the background reader against it. onRead then receives the byte
// count and any error (including io.EOF on a clean close). The caller
// re-issues Read for the next chunk; this core does not keep a read
// perpetually armed the way the original continuous uv_read_start
// does — see DESIGN.md.
func (l *Loop) Read(conn net.Conn, maxSize int, store func(data []byte), onRead func(n int, err error)) {
	l.spawn(func() completion {
		scratch := make([]byte, maxSize)
		n, err := conn.Read(scratch)
		data := scratch[:n]
		return func() {
			if n > 0 {
				store(data)
			}
			onRead(n, err)
		}
	})
}

// Write enqueues a write to conn. Per §4.3/§5, writes are
// fire-and-forget from the state machine's perspective: the only
// signal is onError, invoked with nil on success.
func (l *Loop) Write(conn net.Conn, data []byte, onError func(error)) {
	l.spawn(func() completion {
		_, err := conn.Write(data)
		return func() { onError(err) }
	})
}

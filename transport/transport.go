// Package transport dials or listens for the single peer-to-peer TCP
// connection DFTP runs its handshake, negotiation, and transfer phases
// over.
//
// Ported from the original dftp's network.rs (build_send_stream /
// build_recv_stream), which bound an optional local port before
// connecting out, and listened with a small backlog before accepting
// exactly one peer. The teacher's transport/client_transport.go informed
// the decision to keep this a thin wrapper around net.Conn rather than a
// multiplexing layer: DFTP has no concurrent calls to multiplex, so
// there is nothing here beyond dial/listen plus phase deadlines.
package transport

import (
	"net"
	"strconv"
	"time"

	"github.com/theAester/dftp/dfterr"
)

// keepAlivePeriod matches what the transfer phase relies on instead of an
// application-level heartbeat (spec.md §5).
const keepAlivePeriod = 30 * time.Second

// Conn wraps a net.Conn with phase-deadline helpers used during the
// handshake and negotiation phases, and TCP keepalive enabled for the
// transfer phase that follows.
type Conn struct {
	net.Conn
}

// Dial connects out to addr, optionally bound to localPort first. A
// localPort of 0 lets the OS choose, matching the original's "-1 means no
// explicit bind" behavior.
func Dial(addr string, localPort int) (*Conn, error) {
	var localAddr *net.TCPAddr
	if localPort != 0 {
		localAddr = &net.TCPAddr{Port: localPort}
	}
	dialer := net.Dialer{
		LocalAddr: localAddr,
		Timeout:   10 * time.Second,
	}
	conn, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, dfterr.New(dfterr.Setup, "transport.Dial", err)
	}
	c := &Conn{Conn: conn}
	c.enableKeepAlive()
	return c, nil
}

// Listen binds to port on all interfaces and accepts exactly one peer,
// matching the original's single-accept receiver loop (spec.md §1: no
// multiplexing of multiple files/peers).
func Listen(port int) (*Conn, error) {
	ln, err := net.Listen("tcp", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, dfterr.New(dfterr.Setup, "transport.Listen", err)
	}
	defer ln.Close()

	conn, err := ln.Accept()
	if err != nil {
		return nil, dfterr.New(dfterr.Setup, "transport.Listen", err)
	}
	c := &Conn{Conn: conn}
	c.enableKeepAlive()
	return c, nil
}

func (c *Conn) enableKeepAlive() {
	if tc, ok := c.Conn.(*net.TCPConn); ok {
		tc.SetKeepAlive(true)
		tc.SetKeepAlivePeriod(keepAlivePeriod)
	}
}

// SetPhaseDeadline bounds the next reads/writes to d, for use during the
// handshake and negotiation phases only (spec.md §5's optional timeout).
// A d of zero clears any existing deadline.
func (c *Conn) SetPhaseDeadline(d time.Duration) error {
	if d <= 0 {
		return c.Conn.SetDeadline(time.Time{})
	}
	return c.Conn.SetDeadline(time.Now().Add(d))
}

// ClearDeadline removes any deadline set by SetPhaseDeadline, so the
// transfer phase that follows blocks indefinitely and relies on TCP
// keepalive instead (spec.md §5).
func (c *Conn) ClearDeadline() error {
	return c.Conn.SetDeadline(time.Time{})
}


package transport

import (
	"net"
	"sync"

	"github.com/ringmesh/ringchat/internal/domain"
)

// Conn wraps a single TCP connection to a peer or client with the
// length-prefixed framing from SPEC_FULL.md §4.1. Writes are
// serialized with their own mutex so multiple goroutines may call
// Send concurrently; reads are expected to happen from a single
// receive-loop goroutine per connection (spec.md §5).
type Conn struct {
	id   domain.NodeID // remote peer/client id, empty until known
	conn net.Conn

	writeMu sync.Mutex
}

// WrapConn adapts an already-established net.Conn (accepted or dialed)
// into a Conn.
func WrapConn(id domain.NodeID, nc net.Conn) *Conn {
	return &Conn{id: id, conn: nc}
}

// ID returns the remote endpoint's node id, if known.
func (c *Conn) ID() domain.NodeID { return c.id }

// SetID records the remote id once the handshake (SERVER_JOIN /
// CLIENT_JOIN) reveals it.
func (c *Conn) SetID(id domain.NodeID) { c.id = id }

// RemoteAddr exposes the underlying socket's remote address.
func (c *Conn) RemoteAddr() net.Addr { return c.conn.RemoteAddr() }

// Send writes one framed message. Safe for concurrent callers.
func (c *Conn) Send(msg domain.Message) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return WriteFrame(c.conn, msg)
}

// Receive blocks for the next framed message. Must be called from a
// single goroutine at a time (the connection's receive loop).
func (c *Conn) Receive() (domain.Message, error) {
	return ReadFrame(c.conn)
}

// Close closes the underlying socket.
func (c *Conn) Close() error {
	return c.conn.Close()
}

package server

import (
	"net"
	"sync/atomic"
	"time"
)

// aLongTimeAgo is a deadline in the past; setting it makes blocked I/O on a
// connection or listener return immediately with a timeout error.
var aLongTimeAgo = time.Unix(1, 0)

// Session is the exclusive handle to one accepted connection. Only the
// serving worker reads and writes it; Interrupt and Close may be called from
// any goroutine.
type Session struct {
	conn       net.Conn
	remoteAddr string
	closed     atomic.Bool
}

func newSession(conn net.Conn) *Session {
	remote := "unknown"
	if addr := conn.RemoteAddr(); addr != nil {
		remote = addr.String()
	}
	return &Session{conn: conn, remoteAddr: remote}
}

// Conn returns the underlying connection
func (s *Session) Conn() net.Conn {
	return s.conn
}

// RemoteAddr returns the peer address as a string
func (s *Session) RemoteAddr() string {
	return s.remoteAddr
}

// Interrupt makes any read or write blocked on the connection return with a
// timeout error. The connection stays open so the caller can still close it
// from the serving goroutine.
func (s *Session) Interrupt() {
	_ = s.conn.SetDeadline(aLongTimeAgo)
}

// Close closes the connection. Only the first call reaches the socket; later
// calls return nil.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.conn.Close()
}

// Closed reports whether Close has been called
func (s *Session) Closed() bool {
	return s.closed.Load()
}

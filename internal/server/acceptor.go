package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/muurk/segclock/internal/logging"
	"go.uber.org/zap"
)

// ErrNotListening is returned by AcceptOne before Listen succeeded or after Close.
var ErrNotListening = errors.New("acceptor is not listening")

// Acceptor owns the listening socket and at most one accepted session.
type Acceptor struct {
	host    string
	port    int
	retries int

	mu       sync.Mutex
	listener net.Listener
	session  *Session
}

// NewAcceptor creates an acceptor for host:port. Port 0 picks a free port.
func NewAcceptor(host string, port int) *Acceptor {
	return &Acceptor{host: host, port: port}
}

// SetListenRetries sets how many extra bind attempts Listen makes, with
// exponential backoff between them. Zero (the default) means a single attempt.
func (a *Acceptor) SetListenRetries(n int) {
	a.retries = n
}

// Listen binds the listening socket once.
func (a *Acceptor) Listen(ctx context.Context) error {
	addr := net.JoinHostPort(a.host, strconv.Itoa(a.port))
	var lc net.ListenConfig

	attempt := 0
	bind := func() error {
		attempt++
		ln, err := lc.Listen(ctx, "tcp", addr)
		if err != nil {
			logging.Warn("Bind attempt failed",
				zap.String("addr", addr),
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			return err
		}
		a.mu.Lock()
		a.listener = ln
		a.mu.Unlock()
		return nil
	}

	var err error
	if a.retries <= 0 {
		err = bind()
	} else {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = 250 * time.Millisecond
		b.MaxInterval = 5 * time.Second
		err = backoff.Retry(bind, backoff.WithContext(backoff.WithMaxRetries(b, uint64(a.retries)), ctx))
	}
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	return nil
}

// Addr returns the bound address, or nil before Listen.
func (a *Acceptor) Addr() net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.listener == nil {
		return nil
	}
	return a.listener.Addr()
}

// AcceptOne tears down any previous session and blocks until exactly one
// client connects or ctx is cancelled. The returned session is also kept as
// the acceptor's current session until the next Teardown.
func (a *Acceptor) AcceptOne(ctx context.Context) (*Session, error) {
	a.Teardown()

	a.mu.Lock()
	ln := a.listener
	a.mu.Unlock()
	if ln == nil {
		return nil, ErrNotListening
	}

	stop := context.AfterFunc(ctx, func() {
		if d, ok := ln.(interface{ SetDeadline(time.Time) error }); ok {
			_ = d.SetDeadline(aLongTimeAgo)
			return
		}
		_ = ln.Close()
	})

	conn, err := ln.Accept()
	if !stop() {
		// Cancellation raced with the accept.
		if conn != nil {
			_ = conn.Close()
		}
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, fmt.Errorf("accept failed: %w", err)
	}

	s := newSession(conn)
	a.mu.Lock()
	a.session = s
	a.mu.Unlock()
	return s, nil
}

// Teardown forces the current session closed. Calling it with no session, or
// twice in a row, does nothing.
func (a *Acceptor) Teardown() {
	a.mu.Lock()
	s := a.session
	a.session = nil
	a.mu.Unlock()

	if s == nil {
		return
	}
	s.Interrupt()
	if err := s.Close(); err != nil {
		logging.Debug("Session close reported an error",
			zap.String("remote_addr", s.RemoteAddr()),
			zap.Error(err),
		)
	}
}

// Interrupt unblocks I/O on the current session without closing it.
func (a *Acceptor) Interrupt() {
	a.mu.Lock()
	s := a.session
	a.mu.Unlock()
	if s != nil {
		s.Interrupt()
	}
}

// Close tears down the session and closes the listener.
func (a *Acceptor) Close() error {
	a.Teardown()

	a.mu.Lock()
	ln := a.listener
	a.listener = nil
	a.mu.Unlock()

	if ln == nil {
		return nil
	}
	return ln.Close()
}

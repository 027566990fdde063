package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/muurk/segclock/internal/logging"
	"github.com/muurk/segclock/internal/protocol"
	"go.uber.org/zap"
)

// acceptRetryDelay paces the accept loop after a transient accept failure.
const acceptRetryDelay = 100 * time.Millisecond

// Config holds the server configuration
type Config struct {
	Host          string
	Port          int
	ReadTimeout   time.Duration // Budget for reading one whole request (0 = no limit)
	WriteTimeout  time.Duration // Budget for writing one reply (0 = no limit)
	ListenRetries int           // Extra bind attempts with backoff (0 = fail on first error)
	NoDelay       bool          // Disable Nagle on accepted connections
	Limits        protocol.Limits
	LogLevel      string // Initializes logging when set
}

// DefaultConfig returns the configuration the clock ships with.
func DefaultConfig() *Config {
	return &Config{
		Host:         "",
		Port:         80,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 5 * time.Second,
		NoDelay:      true,
		Limits:       protocol.DefaultLimits(),
	}
}

// Dispatcher turns a complete request into a reply. It is only called for
// GET and POST requests that parsed within limits.
type Dispatcher interface {
	Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(ctx context.Context, req *protocol.Request) *protocol.Response

// Dispatch calls f(ctx, req).
func (f DispatcherFunc) Dispatch(ctx context.Context, req *protocol.Request) *protocol.Response {
	return f(ctx, req)
}

// Server is the single-client HTTP server. It accepts one connection, reads
// one request, writes one reply, closes, and goes back to accepting.
type Server struct {
	config     *Config
	acceptor   *Acceptor
	dispatcher Dispatcher

	hasClient atomic.Bool
	served    atomic.Int64
	ready     chan struct{}
	readyOnce sync.Once

	mu     sync.Mutex
	cancel context.CancelFunc
}

// New creates a new Server instance
func New(config *Config, dispatcher Dispatcher) (*Server, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if dispatcher == nil {
		return nil, errors.New("dispatcher is required")
	}
	if config.Port < 0 || config.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", config.Port)
	}

	if config.LogLevel != "" {
		if err := logging.Initialize(config.LogLevel); err != nil {
			return nil, fmt.Errorf("failed to initialize logging: %w", err)
		}
	}

	acceptor := NewAcceptor(config.Host, config.Port)
	acceptor.SetListenRetries(config.ListenRetries)

	return &Server{
		config:     config,
		acceptor:   acceptor,
		dispatcher: dispatcher,
		ready:      make(chan struct{}),
	}, nil
}

// Run binds the listening socket and serves clients one at a time until ctx
// is cancelled or Stop is called. A bind failure is returned; cancellation
// returns nil.
func (s *Server) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()
	defer cancel()

	if err := s.acceptor.Listen(ctx); err != nil {
		logging.Error("Failed to start server", zap.Error(err))
		return err
	}
	defer func() {
		if err := s.acceptor.Close(); err != nil {
			logging.Debug("Error closing listener", zap.Error(err))
		}
	}()

	logging.Info("Server listening for connections",
		zap.String("addr", s.acceptor.Addr().String()),
	)
	s.readyOnce.Do(func() { close(s.ready) })

	for {
		session, err := s.acceptor.AcceptOne(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) || errors.Is(err, ErrNotListening) {
				logging.Info("Server stopped")
				return nil
			}
			logging.Error("Failed to accept connection", zap.Error(err))
			select {
			case <-ctx.Done():
				logging.Info("Server stopped")
				return nil
			case <-time.After(acceptRetryDelay):
			}
			continue
		}

		s.serve(ctx, session)
	}
}

// serve handles exactly one request on session and always leaves it closed.
func (s *Server) serve(ctx context.Context, session *Session) {
	remoteAddr := session.RemoteAddr()
	conn := session.Conn()

	s.hasClient.Store(true)
	defer func() {
		s.acceptor.Teardown()
		s.hasClient.Store(false)
		logging.LogConnection(remoteAddr, "connection_closed")
	}()

	logging.LogConnection(remoteAddr, "connection_accepted")

	// Cancellation only expires deadlines; the socket is closed here.
	stop := context.AfterFunc(ctx, session.Interrupt)
	defer stop()

	if s.config.NoDelay {
		if tcp, ok := conn.(*net.TCPConn); ok {
			_ = tcp.SetNoDelay(true)
		}
	}
	if s.config.ReadTimeout > 0 {
		_ = conn.SetReadDeadline(time.Now().Add(s.config.ReadTimeout))
	}

	req, err := protocol.ReadRequest(conn, s.config.Limits)
	if err != nil {
		if protocol.IsRejected(err) && protocol.RejectedMethod(err) == protocol.MethodUnknown {
			logging.Warn("Rejected request with unsupported method, closing without reply",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			return
		}
		if protocol.IsRejected(err) {
			logging.Warn("Rejected request",
				zap.String("remote_addr", remoteAddr),
				zap.Error(err),
			)
			s.reply(session, protocol.NotFound())
			return
		}
		logging.Info("Connection ended before a complete request",
			zap.String("remote_addr", remoteAddr),
			zap.Error(err),
		)
		return
	}

	logging.LogHTTPRequest(remoteAddr, req.Method.String(), req.Resource, req.ContentLength)

	if req.Method == protocol.MethodUnknown {
		logging.Warn("Unsupported method, closing without reply",
			zap.String("remote_addr", remoteAddr),
			zap.String("resource", req.Resource),
		)
		return
	}

	resp := s.dispatcher.Dispatch(ctx, req)
	if resp == nil {
		resp = protocol.NotFound()
	}
	s.reply(session, resp)
}

// reply writes resp, closes the session and then runs resp.OnSent.
func (s *Server) reply(session *Session, resp *protocol.Response) {
	conn := session.Conn()
	remoteAddr := session.RemoteAddr()

	if s.config.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
	}

	if err := protocol.WriteResponse(conn, resp.Status, resp.Body); err != nil {
		logging.Warn("Failed to send response",
			zap.String("remote_addr", remoteAddr),
			zap.Int("status", resp.Status),
			zap.Error(err),
		)
		s.acceptor.Teardown()
		return
	}
	logging.LogHTTPResponse(remoteAddr, resp.Status, len(resp.Body))
	s.served.Add(1)

	s.acceptor.Teardown()
	if resp.OnSent != nil {
		resp.OnSent()
	}
}

// Ready is closed once the listening socket is bound.
func (s *Server) Ready() <-chan struct{} {
	return s.ready
}

// Addr returns the bound address, or nil before Run has bound it.
func (s *Server) Addr() net.Addr {
	return s.acceptor.Addr()
}

// HasClient reports whether a connection is currently being served
func (s *Server) HasClient() bool {
	return s.hasClient.Load()
}

// Served returns how many replies have been written since start
func (s *Server) Served() int64 {
	return s.served.Load()
}

// SetNoDelay controls Nagle's algorithm on connections accepted from now on.
// Call it before Run.
func (s *Server) SetNoDelay(noDelay bool) {
	s.config.NoDelay = noDelay
}

// Stop asks Run to return. A blocked accept or read is interrupted.
func (s *Server) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.acceptor.Interrupt()
}

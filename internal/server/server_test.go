package server

import (
	"context"
	"io"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/muurk/segclock/internal/protocol"
)

type recordingDispatcher struct {
	calls atomic.Int32
	last  atomic.Pointer[protocol.Request]
	reply func(req *protocol.Request) *protocol.Response
}

func (d *recordingDispatcher) Dispatch(_ context.Context, req *protocol.Request) *protocol.Response {
	d.calls.Add(1)
	d.last.Store(req)
	if d.reply != nil {
		return d.reply(req)
	}
	return protocol.NewResponse(protocol.StatusOK, "ok")
}

func startServer(t *testing.T, cfg *Config, d Dispatcher) *Server {
	t.Helper()

	if cfg == nil {
		cfg = DefaultConfig()
	}
	cfg.Host = "127.0.0.1"
	cfg.Port = 0

	srv, err := New(cfg, d)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(ctx) }()

	select {
	case <-srv.Ready():
	case err := <-errCh:
		cancel()
		t.Fatalf("Run() returned early: %v", err)
	case <-time.After(2 * time.Second):
		cancel()
		t.Fatal("server did not start listening")
	}

	t.Cleanup(func() {
		cancel()
		select {
		case err := <-errCh:
			if err != nil {
				t.Errorf("Run() error = %v", err)
			}
		case <-time.After(2 * time.Second):
			t.Error("Run() did not return after cancel")
		}
	})
	return srv
}

// roundTrip sends raw bytes and reads until the server closes.
func roundTrip(t *testing.T, srv *Server, raw string) string {
	t.Helper()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(3 * time.Second))

	if _, err := io.WriteString(conn, raw); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := io.ReadAll(conn)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	return string(got)
}

func TestServerServesOneRequest(t *testing.T) {
	d := &recordingDispatcher{}
	srv := startServer(t, nil, d)

	got := roundTrip(t, srv, "GET /X HTTP/1.1\r\nHost: h\r\n\r\n")

	want := "HTTP/1.1 200 OK\r\nContent-Type: text/html\r\nContent-Length: 2\r\n\r\nok"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if n := d.calls.Load(); n != 1 {
		t.Fatalf("dispatch calls = %d, want 1", n)
	}
	req := d.last.Load()
	if req.Method != protocol.MethodGet || req.Resource != "/X" || req.ContentLength != 0 {
		t.Errorf("dispatched %v %q len %d, want GET /X len 0", req.Method, req.Resource, req.ContentLength)
	}
}

func TestServerPassesBody(t *testing.T) {
	d := &recordingDispatcher{}
	srv := startServer(t, nil, d)

	roundTrip(t, srv, "POST /updatecfg HTTP/1.1\r\nContent-Length: 10\r\n\r\n;timezone=")

	req := d.last.Load()
	if req == nil {
		t.Fatal("dispatcher was not called")
	}
	if req.BodyText() != ";timezone=" {
		t.Errorf("body = %q, want %q", req.BodyText(), ";timezone=")
	}
}

func TestServerUnknownMethodGetsNoReply(t *testing.T) {
	d := &recordingDispatcher{}
	srv := startServer(t, nil, d)

	got := roundTrip(t, srv, "PUT / HTTP/1.1\r\n\r\n")

	if got != "" {
		t.Errorf("reply = %q, want nothing", got)
	}
	if n := d.calls.Load(); n != 0 {
		t.Errorf("dispatch calls = %d, want 0", n)
	}
}

func TestServerUnknownMethodIsDroppedEvenWhenOversized(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"long resource", "PUT /" + strings.Repeat("r", 200) + " HTTP/1.1\r\n\r\n"},
		{"large body", "DELETE / HTTP/1.1\r\nContent-Length: 5000\r\n\r\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDispatcher{}
			srv := startServer(t, nil, d)

			if got := roundTrip(t, srv, tt.raw); got != "" {
				t.Errorf("reply = %q, want nothing", got)
			}
			if n := d.calls.Load(); n != 0 {
				t.Errorf("dispatch calls = %d, want 0", n)
			}
		})
	}
}

func TestServerRejectedRequestGets404(t *testing.T) {
	d := &recordingDispatcher{}
	srv := startServer(t, nil, d)

	got := roundTrip(t, srv, "POST / HTTP/1.1\r\nContent-Length: 5000\r\n\r\n")

	want := "HTTP/1.1 404 OK\r\nContent-Type: text/html\r\nContent-Length: 0\r\n\r\n"
	if got != want {
		t.Errorf("reply = %q, want %q", got, want)
	}
	if n := d.calls.Load(); n != 0 {
		t.Errorf("dispatch calls = %d, want 0", n)
	}
}

func TestServerNilResponseIsNotFound(t *testing.T) {
	d := &recordingDispatcher{reply: func(*protocol.Request) *protocol.Response { return nil }}
	srv := startServer(t, nil, d)

	got := roundTrip(t, srv, "GET /nothing HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(got, "HTTP/1.1 404 OK\r\n") {
		t.Errorf("reply = %q, want a 404", got)
	}
}

func TestServerOnSentRunsAfterClose(t *testing.T) {
	sent := make(chan struct{})
	d := &recordingDispatcher{reply: func(*protocol.Request) *protocol.Response {
		resp := protocol.NewResponse(protocol.StatusOK, "bye")
		resp.OnSent = func() { close(sent) }
		return resp
	}}
	srv := startServer(t, nil, d)

	got := roundTrip(t, srv, "POST /reboot HTTP/1.1\r\n\r\n")
	if !strings.HasSuffix(got, "\r\n\r\nbye") {
		t.Errorf("reply = %q, want body bye", got)
	}

	select {
	case <-sent:
	case <-time.After(2 * time.Second):
		t.Fatal("OnSent was not called")
	}
}

func TestServerServesClientsInTurn(t *testing.T) {
	d := &recordingDispatcher{}
	srv := startServer(t, nil, d)

	for i := 0; i < 3; i++ {
		got := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
		if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
			t.Fatalf("request %d: reply = %q", i, got)
		}
	}
	if n := srv.Served(); n != 3 {
		t.Errorf("Served() = %d, want 3", n)
	}
}

func TestServerSurvivesPeerClosingMidRequest(t *testing.T) {
	d := &recordingDispatcher{}
	srv := startServer(t, nil, d)

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	_, _ = io.WriteString(conn, "POST /x HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc")
	conn.Close()

	got := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(got, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("reply = %q, want 200", got)
	}
	if n := d.calls.Load(); n != 1 {
		t.Errorf("dispatch calls = %d, want 1", n)
	}
}

func TestServerReadTimeoutFreesTheSlot(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ReadTimeout = 100 * time.Millisecond
	d := &recordingDispatcher{}
	srv := startServer(t, cfg, d)

	idle, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer idle.Close()

	_ = idle.SetReadDeadline(time.Now().Add(2 * time.Second))
	got, _ := io.ReadAll(idle)
	if len(got) != 0 {
		t.Errorf("idle client got %q, want nothing", got)
	}

	reply := roundTrip(t, srv, "GET / HTTP/1.1\r\n\r\n")
	if !strings.HasPrefix(reply, "HTTP/1.1 200 OK\r\n") {
		t.Errorf("reply = %q, want 200", reply)
	}
}

func TestServerStopInterruptsBlockedRead(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.ReadTimeout = 0

	srv, err := New(cfg, &recordingDispatcher{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Run(context.Background()) }()
	<-srv.Ready()

	conn, err := net.Dial("tcp", srv.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for !srv.HasClient() {
		if time.Now().After(deadline) {
			t.Fatal("server never picked up the client")
		}
		time.Sleep(5 * time.Millisecond)
	}

	srv.Stop()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() error = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run() did not return after Stop")
	}
	if srv.HasClient() {
		t.Error("HasClient() = true after stop")
	}
}

func TestServerListenFailure(t *testing.T) {
	busy, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer busy.Close()

	cfg := DefaultConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = busy.Addr().(*net.TCPAddr).Port

	srv, err := New(cfg, &recordingDispatcher{})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := srv.Run(context.Background()); err == nil {
		t.Error("Run() should fail when the port is taken")
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := New(DefaultConfig(), nil); err == nil {
		t.Error("New() without a dispatcher should fail")
	}
	cfg := DefaultConfig()
	cfg.Port = 70000
	if _, err := New(cfg, &recordingDispatcher{}); err == nil {
		t.Error("New() with port 70000 should fail")
	}
}

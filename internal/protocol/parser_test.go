package protocol

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func TestReadRequest(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
		verify  func(t *testing.T, req *Request)
	}{
		{
			name:  "simple GET with host header",
			input: "GET /X HTTP/1.1\r\nHost: h\r\n\r\n",
			verify: func(t *testing.T, req *Request) {
				if req.Method != MethodGet {
					t.Errorf("method = %v, want GET", req.Method)
				}
				if req.Resource != "/X" {
					t.Errorf("resource = %q, want /X", req.Resource)
				}
				if req.ContentLength != 0 {
					t.Errorf("content length = %d, want 0", req.ContentLength)
				}
				if req.LineNumber != 2 {
					t.Errorf("line number = %d, want 2", req.LineNumber)
				}
				if len(req.Body) != 0 {
					t.Errorf("body = %q, want empty", req.Body)
				}
			},
		},
		{
			name:  "POST with body",
			input: "POST /cfg HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello",
			verify: func(t *testing.T, req *Request) {
				if req.Method != MethodPost {
					t.Errorf("method = %v, want POST", req.Method)
				}
				if req.Resource != "/cfg" {
					t.Errorf("resource = %q, want /cfg", req.Resource)
				}
				if !bytes.Equal(req.Body, []byte("hello")) {
					t.Errorf("body = %q, want %q", req.Body, "hello")
				}
				if len(req.Body) != 5 {
					t.Errorf("body length = %d, want 5", len(req.Body))
				}
			},
		},
		{
			name:  "unknown method is still consumed",
			input: "PUT / HTTP/1.1\r\n\r\n",
			verify: func(t *testing.T, req *Request) {
				if req.Method != MethodUnknown {
					t.Errorf("method = %v, want UNKNOWN", req.Method)
				}
			},
		},
		{
			name:  "lowercase method is unknown",
			input: "get / HTTP/1.1\r\n\r\n",
			verify: func(t *testing.T, req *Request) {
				if req.Method != MethodUnknown {
					t.Errorf("method = %v, want UNKNOWN", req.Method)
				}
			},
		},
		{
			name:  "repeated spaces before resource",
			input: "GET    /brighter HTTP/1.1\r\n\r\n",
			verify: func(t *testing.T, req *Request) {
				if req.Resource != "/brighter" {
					t.Errorf("resource = %q, want /brighter", req.Resource)
				}
			},
		},
		{
			name:  "bare line feeds",
			input: "POST /dimmer HTTP/1.1\nContent-Length: 2\n\nok",
			verify: func(t *testing.T, req *Request) {
				if req.Resource != "/dimmer" || string(req.Body) != "ok" {
					t.Errorf("got %q body %q, want /dimmer body ok", req.Resource, req.Body)
				}
			},
		},
		{
			name:  "leading blank lines are skipped",
			input: "\r\n\r\nGET /a HTTP/1.1\r\n\r\n",
			verify: func(t *testing.T, req *Request) {
				if req.Method != MethodGet || req.Resource != "/a" {
					t.Errorf("got %v %q, want GET /a", req.Method, req.Resource)
				}
			},
		},
		{
			name:  "request line without resource",
			input: "GET\r\n\r\n",
			verify: func(t *testing.T, req *Request) {
				if req.Method != MethodGet || req.Resource != "" {
					t.Errorf("got %v %q, want GET with empty resource", req.Method, req.Resource)
				}
			},
		},
		{
			name:  "content length header name is case-sensitive",
			input: "POST /x HTTP/1.1\r\ncontent-length: 5\r\n\r\nhello",
			verify: func(t *testing.T, req *Request) {
				if req.ContentLength != 0 || len(req.Body) != 0 {
					t.Errorf("content length = %d body %q, want 0 and empty", req.ContentLength, req.Body)
				}
			},
		},
		{
			name:  "content length without space after colon",
			input: "POST /x HTTP/1.1\r\nContent-Length:3\r\n\r\nabc",
			verify: func(t *testing.T, req *Request) {
				if string(req.Body) != "abc" {
					t.Errorf("body = %q, want abc", req.Body)
				}
			},
		},
		{
			name:  "last content length wins",
			input: "POST /x HTTP/1.1\r\nContent-Length: 9\r\nContent-Length: 2\r\n\r\nab",
			verify: func(t *testing.T, req *Request) {
				if req.ContentLength != 2 || string(req.Body) != "ab" {
					t.Errorf("got length %d body %q, want 2 ab", req.ContentLength, req.Body)
				}
			},
		},
		{
			name:  "bytes after the body are not part of it",
			input: "POST /x HTTP/1.1\r\nContent-Length: 3\r\n\r\nabcdef",
			verify: func(t *testing.T, req *Request) {
				if string(req.Body) != "abc" {
					t.Errorf("body = %q, want abc", req.Body)
				}
			},
		},
		{
			name:    "peer closes during headers",
			input:   "GET / HTTP/1.1\r\nHost: h\r\n",
			wantErr: true,
		},
		{
			name:    "peer closes during body",
			input:   "POST /x HTTP/1.1\r\nContent-Length: 10\r\n\r\nabc",
			wantErr: true,
		},
		{
			name:    "empty stream",
			input:   "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ReadRequest(strings.NewReader(tt.input), DefaultLimits())
			if (err != nil) != tt.wantErr {
				t.Fatalf("ReadRequest() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrConnectionClosed) {
					t.Errorf("error = %v, want ErrConnectionClosed", err)
				}
				return
			}
			tt.verify(t, req)
		})
	}
}

func TestReadRequestOneByteAtATime(t *testing.T) {
	input := "POST /updatecfg HTTP/1.1\r\nHost: clock\r\nContent-Length: 11\r\n\r\n;timezone=X"
	req, err := ReadRequest(iotest.OneByteReader(strings.NewReader(input)), DefaultLimits())
	if err != nil {
		t.Fatalf("ReadRequest() error = %v", err)
	}
	if req.Resource != "/updatecfg" || req.BodyText() != ";timezone=X" {
		t.Errorf("got %q body %q", req.Resource, req.BodyText())
	}
}

func TestReadRequestReadError(t *testing.T) {
	boom := errors.New("reset by peer")
	r := io.MultiReader(strings.NewReader("GET / HT"), iotest.ErrReader(boom))

	_, err := ReadRequest(r, DefaultLimits())
	if !errors.Is(err, ErrConnectionClosed) {
		t.Errorf("error = %v, want ErrConnectionClosed", err)
	}
	if !errors.Is(err, boom) {
		t.Errorf("error = %v, should keep the underlying cause", err)
	}
}

func TestReadRequestLimits(t *testing.T) {
	limits := Limits{MaxLine: 32, MaxResource: 8, MaxBody: 4}

	header := func(n int) string {
		// "X: " plus padding gives a header line of exactly n bytes
		return "X: " + strings.Repeat("p", n-3)
	}

	tests := []struct {
		name    string
		input   string
		wantErr error
	}{
		{
			name:  "header line at capacity",
			input: "GET / HTTP/1.1\r\n" + header(32) + "\r\n\r\n",
		},
		{
			name:    "header line one past capacity",
			input:   "GET / HTTP/1.1\r\n" + header(33) + "\r\n\r\n",
			wantErr: ErrLineTooLong,
		},
		{
			name:  "carriage returns do not count toward the line",
			input: "GET / HTTP/1.1\r\n" + header(32) + "\r\r\r\n\r\n",
		},
		{
			name:  "resource at capacity",
			input: "GET /2345678 HTTP/1.1\r\n\r\n",
		},
		{
			name:    "resource one past capacity",
			input:   "GET /23456789 HTTP/1.1\r\n\r\n",
			wantErr: ErrResourceTooLong,
		},
		{
			name:  "body at capacity",
			input: "POST / HTTP/1.1\r\nContent-Length: 4\r\n\r\nabcd",
		},
		{
			name:    "body one past capacity",
			input:   "POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nabcde",
			wantErr: ErrBodyTooLarge,
		},
		{
			name:    "many digit content length",
			input:   "POST / HTTP/1.1\r\nContent-Length: 999999999999\r\n\r\n",
			wantErr: ErrBodyTooLarge,
		},
		{
			name:    "non numeric content length",
			input:   "POST / HTTP/1.1\r\nContent-Length: five\r\n\r\n",
			wantErr: ErrBadContentLength,
		},
		{
			name:    "negative content length",
			input:   "POST / HTTP/1.1\r\nContent-Length: -1\r\n\r\n",
			wantErr: ErrBadContentLength,
		},
		{
			name:    "empty content length",
			input:   "POST / HTTP/1.1\r\nContent-Length:\r\n\r\n",
			wantErr: ErrBadContentLength,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequest(strings.NewReader(tt.input), limits)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ReadRequest() error = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ReadRequest() error = %v, want %v", err, tt.wantErr)
			}
			if !IsRejected(err) {
				t.Errorf("IsRejected(%v) = false, want true", err)
			}
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Errorf("error should be a *ParseError, got %T", err)
			}
		})
	}
}

func TestParseErrorCarriesLine(t *testing.T) {
	input := "POST / HTTP/1.1\r\nHost: h\r\nContent-Length: x\r\n\r\n"
	_, err := ReadRequest(strings.NewReader(input), DefaultLimits())

	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("error = %v, want *ParseError", err)
	}
	if pe.Line != 3 {
		t.Errorf("line = %d, want 3", pe.Line)
	}
	if pe.State != "await_headers" {
		t.Errorf("state = %q, want await_headers", pe.State)
	}
}

func TestRejectedRequestKeepsMethod(t *testing.T) {
	limits := Limits{MaxLine: 32, MaxResource: 8, MaxBody: 4}

	tests := []struct {
		name  string
		input string
		want  Method
	}{
		{"long resource", "GET /23456789 HTTP/1.1\r\n\r\n", MethodGet},
		{"large body", "POST / HTTP/1.1\r\nContent-Length: 5\r\n\r\nabcde", MethodPost},
		{"request line cut short", "GET /" + strings.Repeat("x", 40) + "\r\n\r\n", MethodGet},
		{"unknown method large body", "PUT / HTTP/1.1\r\nContent-Length: 5\r\n\r\n", MethodUnknown},
		{"no method token", strings.Repeat("x", 40) + "\r\n\r\n", MethodUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadRequest(strings.NewReader(tt.input), limits)
			if !IsRejected(err) {
				t.Fatalf("ReadRequest() error = %v, want a rejection", err)
			}
			if got := RejectedMethod(err); got != tt.want {
				t.Errorf("RejectedMethod() = %v, want %v", got, tt.want)
			}
		})
	}

	if got := RejectedMethod(ErrConnectionClosed); got != MethodUnknown {
		t.Errorf("RejectedMethod(ErrConnectionClosed) = %v, want %v", got, MethodUnknown)
	}
}

func TestUnknownMethodResourceIsNotBounded(t *testing.T) {
	limits := Limits{MaxLine: 64, MaxResource: 8, MaxBody: 4}
	input := "PUT /" + strings.Repeat("r", 20) + " HTTP/1.1\r\n\r\n"

	req, err := ReadRequest(strings.NewReader(input), limits)
	if err != nil {
		t.Fatalf("ReadRequest() error = %v, want nil", err)
	}
	if req.Method != MethodUnknown {
		t.Errorf("method = %v, want %v", req.Method, MethodUnknown)
	}
}

func TestIsRejected(t *testing.T) {
	if IsRejected(ErrConnectionClosed) {
		t.Error("closed connections are not rejections")
	}
	if IsRejected(nil) {
		t.Error("nil is not a rejection")
	}
}

func TestLimitsNormalized(t *testing.T) {
	got := Limits{}.normalized()
	if got != DefaultLimits() {
		t.Errorf("normalized() = %+v, want %+v", got, DefaultLimits())
	}
}

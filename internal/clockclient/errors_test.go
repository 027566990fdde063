package clockclient

import (
	"errors"
	"net"
	"net/url"
	"strings"
	"syscall"
	"testing"
)

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

func TestClassifyNetworkError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantType  ErrorType
		retryable bool
	}{
		{
			name:      "timeout",
			err:       &url.Error{Op: "Get", URL: "http://clock", Err: &net.OpError{Op: "dial", Net: "tcp", Err: timeoutError{}}},
			wantType:  ErrTypeTimeout,
			retryable: true,
		},
		{
			name:      "refused",
			err:       &url.Error{Op: "Get", URL: "http://clock", Err: &net.OpError{Op: "dial", Net: "tcp", Err: syscall.ECONNREFUSED}},
			wantType:  ErrTypeConnectionRefused,
			retryable: true,
		},
		{
			name:      "dns",
			err:       &net.DNSError{Err: "no such host", Name: "clock.invalid", IsNotFound: true},
			wantType:  ErrTypeDNS,
			retryable: false,
		},
		{
			name:      "other",
			err:       errors.New("connection reset"),
			wantType:  ErrTypeNetwork,
			retryable: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce := ClassifyNetworkError("request failed", tt.err)
			if ce.Type != tt.wantType {
				t.Errorf("Type = %v, want %v", ce.Type, tt.wantType)
			}
			if ce.Retryable != tt.retryable {
				t.Errorf("Retryable = %v, want %v", ce.Retryable, tt.retryable)
			}
			if !IsNetworkError(ce) {
				t.Error("IsNetworkError() = false")
			}
		})
	}

	if ClassifyNetworkError("x", nil) != nil {
		t.Error("ClassifyNetworkError(nil) should be nil")
	}
}

func TestHTTPErrorRetryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{404, false},
		{400, false},
		{500, true},
		{503, true},
	}
	for _, tt := range tests {
		if got := IsRetryable(NewHTTPError(tt.status, "x")); got != tt.want {
			t.Errorf("IsRetryable(HTTP %d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestErrorMessages(t *testing.T) {
	err := NewHTTPError(404, "POST /brighter: unexpected status 404")
	if !strings.Contains(err.Error(), "HTTP Error") {
		t.Errorf("Error() = %q", err.Error())
	}
	if got := GetShortErrorMessage(err); !strings.Contains(got, "404") {
		t.Errorf("GetShortErrorMessage() = %q, want mention of 404", got)
	}
	if GetTroubleshootingHint(err) == "" {
		t.Error("GetTroubleshootingHint() should explain 404")
	}

	wrapped := errors.New("plain")
	if got := GetShortErrorMessage(wrapped); got != "plain" {
		t.Errorf("GetShortErrorMessage(plain) = %q", got)
	}
	if IsRetryable(wrapped) {
		t.Error("plain errors are not retryable")
	}
}

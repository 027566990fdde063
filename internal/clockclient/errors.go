package clockclient

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeNetwork indicates a network-level error
	ErrTypeNetwork ErrorType = iota
	// ErrTypeTimeout indicates a request timeout
	ErrTypeTimeout
	// ErrTypeConnectionRefused indicates the clock refused the connection
	ErrTypeConnectionRefused
	// ErrTypeDNS indicates a DNS resolution failure
	ErrTypeDNS
	// ErrTypeHTTP indicates an unexpected status code
	ErrTypeHTTP
	// ErrTypeParse indicates a page the client could not read
	ErrTypeParse
	// ErrTypeValidation indicates values the clock would not accept
	ErrTypeValidation
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeNetwork:
		return "Network Error"
	case ErrTypeTimeout:
		return "Timeout"
	case ErrTypeConnectionRefused:
		return "Connection Refused"
	case ErrTypeDNS:
		return "DNS Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	case ErrTypeValidation:
		return "Validation Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// ClientError is returned by every Client method.
type ClientError struct {
	Type       ErrorType
	Message    string
	StatusCode int   // HTTP status code, for ErrTypeHTTP
	Err        error // Underlying error, if any
	Retryable  bool
}

// Error implements the error interface
func (e *ClientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ClientError) Unwrap() error {
	return e.Err
}

// ClassifyNetworkError maps a transport error to a ClientError.
func ClassifyNetworkError(message string, err error) *ClientError {
	if err == nil {
		return nil
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		err = urlErr.Err
	}

	ce := &ClientError{Type: ErrTypeNetwork, Message: message, Err: err, Retryable: true}

	var dnsErr *net.DNSError
	switch {
	case os.IsTimeout(err):
		ce.Type = ErrTypeTimeout
	case errors.As(err, &dnsErr):
		ce.Type = ErrTypeDNS
		ce.Retryable = false
	case errors.Is(err, syscall.ECONNREFUSED):
		ce.Type = ErrTypeConnectionRefused
	}
	return ce
}

// NewHTTPError creates an error for an unexpected status code. Server
// errors are retryable.
func NewHTTPError(statusCode int, message string) *ClientError {
	return &ClientError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  statusCode >= 500,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *ClientError {
	return &ClientError{Type: ErrTypeParse, Message: message, Err: err}
}

// NewValidationError creates a validation error
func NewValidationError(message string) *ClientError {
	return &ClientError{Type: ErrTypeValidation, Message: message}
}

func errorType(err error) (ErrorType, bool) {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Type, true
	}
	return 0, false
}

// IsNetworkError reports whether err is a transport failure of any kind.
func IsNetworkError(err error) bool {
	t, ok := errorType(err)
	return ok && (t == ErrTypeNetwork || t == ErrTypeTimeout || t == ErrTypeConnectionRefused || t == ErrTypeDNS)
}

// IsNotFound reports whether the clock answered 404.
func IsNotFound(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Type == ErrTypeHTTP && ce.StatusCode == 404
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	t, ok := errorType(err)
	return ok && t == ErrTypeValidation
}

// IsRetryable checks if an error should be retried
func IsRetryable(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce) && ce.Retryable
}

// GetShortErrorMessage returns a concise, user-friendly error message
func GetShortErrorMessage(err error) string {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return err.Error()
	}

	switch ce.Type {
	case ErrTypeTimeout:
		return "Clock not responding (timeout)"
	case ErrTypeConnectionRefused:
		return "Clock refused connection - is segclockd running?"
	case ErrTypeDNS:
		return "Cannot resolve clock hostname"
	case ErrTypeNetwork:
		return "Network error - check connection"
	case ErrTypeHTTP:
		if ce.StatusCode == 404 {
			return "Clock rejected the request (HTTP 404)"
		}
		return fmt.Sprintf("Clock error (HTTP %d)", ce.StatusCode)
	case ErrTypeParse:
		return "Failed to read the clock's page - version mismatch?"
	default:
		return ce.Message
	}
}

// GetTroubleshootingHint returns advice for an error, or "" when there is
// nothing useful to add.
func GetTroubleshootingHint(err error) string {
	var ce *ClientError
	if !errors.As(err, &ce) {
		return ""
	}

	switch ce.Type {
	case ErrTypeTimeout, ErrTypeConnectionRefused:
		return strings.Join([]string{
			"Troubleshooting:",
			"  • Check that segclockd is running on the clock",
			"  • The clock serves one client at a time; close other browser tabs",
			"  • Run 'segclock-cfg scan' to confirm its address",
		}, "\n")
	case ErrTypeDNS:
		return "Use the clock's IP address instead of its hostname."
	case ErrTypeHTTP:
		if ce.StatusCode == 404 {
			return "The clock replies 404 to unknown pages and oversized requests."
		}
	}
	return ""
}

package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrConnectionClosed means the stream ended (or failed) before the
	// request was complete. The caller should abandon the connection.
	ErrConnectionClosed = errors.New("connection closed before request completed")

	// ErrLineTooLong means a request or header line exceeded Limits.MaxLine.
	ErrLineTooLong = errors.New("line exceeds buffer capacity")

	// ErrResourceTooLong means the resource token exceeded Limits.MaxResource.
	ErrResourceTooLong = errors.New("resource exceeds buffer capacity")

	// ErrBodyTooLarge means Content-Length exceeded Limits.MaxBody.
	ErrBodyTooLarge = errors.New("content length exceeds buffer capacity")

	// ErrBadContentLength means the Content-Length value was not a decimal number.
	ErrBadContentLength = errors.New("malformed content length")
)

// ParseError records where in the request the parser gave up.
type ParseError struct {
	State  string // parser state when the error occurred
	Line   int    // line number being processed (1 = request line)
	Method Method // method token seen so far, MethodUnknown if none
	Err    error
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse request (%s, line %d): %v", e.State, e.Line, e.Err)
}

// Unwrap returns the underlying error for error chain inspection
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsRejected reports whether err comes from the bounded-buffer policy rather
// than from the peer going away. Rejected GET and POST requests get a 404;
// closed connections and other methods get nothing.
func IsRejected(err error) bool {
	return errors.Is(err, ErrLineTooLong) ||
		errors.Is(err, ErrResourceTooLong) ||
		errors.Is(err, ErrBodyTooLarge) ||
		errors.Is(err, ErrBadContentLength)
}

// RejectedMethod returns the method of a rejected request, or MethodUnknown
// when err carries none.
func RejectedMethod(err error) Method {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Method
	}
	return MethodUnknown
}

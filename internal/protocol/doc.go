// Package protocol implements the minimal HTTP/1.1 subset the clock speaks.
//
// A request is read by a byte-at-a-time state machine:
//
//	AWAIT_REQUEST_LINE -> AWAIT_HEADERS -> AWAIT_BODY -> COMPLETE
//
// Only GET and POST are recognised; any other method token is read to the
// end of the headers and reported as MethodUnknown so the caller can drop
// the connection without dispatching. The only header of interest is
// Content-Length (matched case-sensitively). There is no chunked transfer,
// keep-alive or pipelining: one request, one reply, then the connection is
// closed.
//
// # Buffer Policy
//
// Every buffer is bounded by Limits. Oversized input is rejected with a
// *ParseError wrapping ErrLineTooLong, ErrResourceTooLong, ErrBodyTooLarge or
// ErrBadContentLength. Nothing is silently truncated. The error records the
// method when one was read, so rejected GET and POST requests can be answered
// with a 404 while other methods are still dropped without a reply. The
// resource limit applies only to GET and POST.
//
// # Reply Format
//
// WriteResponse emits exactly:
//
//	HTTP/1.1 <code> OK\r\n
//	Content-Type: text/html\r\n
//	Content-Length: <n>\r\n
//	\r\n
//	<body>
package protocol

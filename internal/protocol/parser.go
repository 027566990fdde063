package protocol

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
)

// contentLengthPrefix is matched case-sensitively at the start of a header line.
var contentLengthPrefix = []byte("Content-Length:")

type parseState int

const (
	stateRequestLine parseState = iota
	stateHeaders
	stateBody
	stateComplete
)

func (s parseState) String() string {
	switch s {
	case stateRequestLine:
		return "await_request_line"
	case stateHeaders:
		return "await_headers"
	case stateBody:
		return "await_body"
	case stateComplete:
		return "complete"
	default:
		return fmt.Sprintf("parseState(%d)", int(s))
	}
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

// parser holds the per-connection state machine. The line buffer is
// allocated once at MaxLine capacity and never grows past it.
type parser struct {
	r      byteReader
	limits Limits
	state  parseState
	line   []byte
	req    *Request
}

// ReadRequest reads one request from r, one byte at a time.
//
// Carriage returns are discarded and a line feed ends a line. The first
// non-empty line is the request line; later lines are scanned for
// Content-Length until a blank line, after which exactly Content-Length body
// bytes are read. If r ends early the error wraps ErrConnectionClosed.
// Input that does not fit limits is rejected with a *ParseError wrapping one
// of the buffer errors.
//
// r is wrapped in a bufio.Reader unless it already implements io.ByteReader;
// bytes past the end of the request may therefore be consumed.
func ReadRequest(r io.Reader, limits Limits) (*Request, error) {
	limits = limits.normalized()

	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReaderSize(r, 512)
	}

	p := &parser{
		r:      br,
		limits: limits,
		state:  stateRequestLine,
		line:   make([]byte, 0, limits.MaxLine),
		req:    &Request{Method: MethodUnknown},
	}
	if err := p.run(); err != nil {
		return nil, err
	}
	return p.req, nil
}

func (p *parser) run() error {
	for p.state != stateComplete {
		if p.state == stateBody {
			if err := p.readBody(); err != nil {
				return err
			}
			p.state = stateComplete
			continue
		}

		c, err := p.r.ReadByte()
		if err != nil {
			return p.fail(closed(err))
		}

		switch c {
		case '\r':
			continue
		case '\n':
			if err := p.endLine(); err != nil {
				return err
			}
		default:
			if len(p.line) == p.limits.MaxLine {
				return p.fail(ErrLineTooLong)
			}
			p.line = append(p.line, c)
		}
	}
	return nil
}

// endLine classifies the completed line according to the current state.
func (p *parser) endLine() error {
	defer func() { p.line = p.line[:0] }()

	switch p.state {
	case stateRequestLine:
		// Stray blank lines ahead of the request line are skipped.
		if len(p.line) == 0 {
			return nil
		}
		p.req.LineNumber = 1
		if err := p.parseRequestLine(); err != nil {
			return p.fail(err)
		}
		p.state = stateHeaders

	case stateHeaders:
		if len(p.line) == 0 {
			if p.req.ContentLength > 0 {
				p.state = stateBody
			} else {
				p.state = stateComplete
			}
			return nil
		}
		p.req.LineNumber++
		if bytes.HasPrefix(p.line, contentLengthPrefix) {
			n, err := parseContentLength(p.line[len(contentLengthPrefix):], p.limits.MaxBody)
			if err != nil {
				return p.fail(err)
			}
			p.req.ContentLength = n
		}
	}
	return nil
}

// parseRequestLine splits "METHOD SP+ RESOURCE ..." into its parts.
func (p *parser) parseRequestLine() error {
	method, rest, _ := bytes.Cut(p.line, []byte{' '})
	p.req.Method = ParseMethod(string(method))

	rest = bytes.TrimLeft(rest, " ")
	resource, _, _ := bytes.Cut(rest, []byte{' '})
	// Unknown methods are never dispatched, so their resource is not bounded.
	if p.req.Method != MethodUnknown && len(resource) > p.limits.MaxResource {
		return ErrResourceTooLong
	}
	p.req.Resource = string(resource)
	return nil
}

func (p *parser) readBody() error {
	body := make([]byte, p.req.ContentLength)
	if _, err := io.ReadFull(p.r, body); err != nil {
		return p.fail(closed(err))
	}
	p.req.Body = body
	return nil
}

func (p *parser) fail(err error) error {
	if p.state == stateRequestLine && p.req.Method == MethodUnknown {
		// The request line was cut short; its method token is still buffered.
		method, _, found := bytes.Cut(p.line, []byte{' '})
		if found {
			p.req.Method = ParseMethod(string(method))
		}
	}
	return &ParseError{State: p.state.String(), Line: p.req.LineNumber, Method: p.req.Method, Err: err}
}

// parseContentLength reads the decimal value after "Content-Length:".
// Leading and trailing blanks are allowed; anything else is malformed.
func parseContentLength(v []byte, max int) (int, error) {
	v = bytes.Trim(v, " \t")
	if len(v) == 0 {
		return 0, ErrBadContentLength
	}

	n := 0
	for _, c := range v {
		if c < '0' || c > '9' {
			return 0, ErrBadContentLength
		}
		n = n*10 + int(c-'0')
		if n > max {
			return 0, ErrBodyTooLarge
		}
	}
	return n, nil
}

// closed folds any read failure into ErrConnectionClosed, keeping the cause.
func closed(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrConnectionClosed
	}
	return fmt.Errorf("%w: %w", ErrConnectionClosed, err)
}

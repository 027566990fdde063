package protocol

// Method is the request method recognised on the request line.
type Method int

const (
	// MethodUnknown covers every token other than GET and POST. Requests
	// carrying it are read to completion but never dispatched.
	MethodUnknown Method = iota
	MethodGet
	MethodPost
)

// String returns the wire token for the method
func (m Method) String() string {
	switch m {
	case MethodGet:
		return "GET"
	case MethodPost:
		return "POST"
	default:
		return "UNKNOWN"
	}
}

// ParseMethod maps a request-line token onto a Method. Matching is exact and
// case-sensitive.
func ParseMethod(token string) Method {
	switch token {
	case "GET":
		return MethodGet
	case "POST":
		return MethodPost
	default:
		return MethodUnknown
	}
}

// Default buffer capacities.
const (
	DefaultMaxLine     = 1024
	DefaultMaxResource = 128
	DefaultMaxBody     = 1024
)

// Limits bounds every buffer the parser fills. Input that does not fit is
// rejected, never truncated.
type Limits struct {
	MaxLine     int // longest header or request line, excluding CR/LF
	MaxResource int // longest resource path
	MaxBody     int // largest Content-Length accepted
}

// DefaultLimits returns the limits used by the daemon.
func DefaultLimits() Limits {
	return Limits{
		MaxLine:     DefaultMaxLine,
		MaxResource: DefaultMaxResource,
		MaxBody:     DefaultMaxBody,
	}
}

// normalized replaces non-positive fields with their defaults.
func (l Limits) normalized() Limits {
	if l.MaxLine <= 0 {
		l.MaxLine = DefaultMaxLine
	}
	if l.MaxResource <= 0 {
		l.MaxResource = DefaultMaxResource
	}
	if l.MaxBody <= 0 {
		l.MaxBody = DefaultMaxBody
	}
	return l
}

// Request is the state gathered from one connection. It lives only until
// the reply for that connection has been written.
type Request struct {
	Method        Method
	Resource      string
	ContentLength int
	Body          []byte

	// LineNumber counts the lines processed so far; the request line is 1.
	LineNumber int
}

// BodyText returns the body as a string.
func (r *Request) BodyText() string {
	return string(r.Body)
}

// Status codes used by the appliance.
const (
	StatusOK       = 200
	StatusCreated  = 201
	StatusNotFound = 404
)

// Response is what a dispatcher hands back for one request.
type Response struct {
	Status int
	Body   []byte

	// OnSent, if set, runs after the reply has been written and the
	// connection closed.
	OnSent func()
}

// NewResponse builds a response with a string body.
func NewResponse(status int, body string) *Response {
	return &Response{Status: status, Body: []byte(body)}
}

// NotFound is the reply for every unmatched or rejected request.
func NotFound() *Response {
	return &Response{Status: StatusNotFound}
}

package protocol

import (
	"fmt"
	"io"
	"strconv"

	"github.com/muurk/segclock/internal/logging"
)

// WriteResponse writes the complete reply in a single write:
//
//	HTTP/1.1 <code> OK\r\n
//	Content-Type: text/html\r\n
//	Content-Length: <len(body)>\r\n
//	\r\n
//	<body>
//
// The reason phrase is always "OK". The body is omitted when empty. Closing
// the connection is the caller's job.
func WriteResponse(w io.Writer, status int, body []byte) error {
	buf := make([]byte, 0, 96+len(body))
	buf = append(buf, "HTTP/1.1 "...)
	buf = strconv.AppendInt(buf, int64(status), 10)
	buf = append(buf, " OK\r\nContent-Type: text/html\r\nContent-Length: "...)
	buf = strconv.AppendInt(buf, int64(len(body)), 10)
	buf = append(buf, "\r\n\r\n"...)
	buf = append(buf, body...)

	logging.LogRawBytes("HTTP response", buf)

	if _, err := w.Write(buf); err != nil {
		return fmt.Errorf("failed to write %d response: %w", status, err)
	}
	return nil
}

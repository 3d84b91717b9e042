// Maude - governed chat client for the governor daemon
// License: MIT

package protocol

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const contentLengthHeader = "Content-Length"

// ErrMissingContentLength marks a frame whose header block carried no length
// field. The connection is unusable after this; callers must reconnect.
var ErrMissingContentLength = errors.New("protocol: frame missing Content-Length header")

// ReadMessage decodes one Content-Length framed message from r.
//
// A clean end-of-stream before any header byte returns io.EOF. A stream that
// dies inside a frame returns io.ErrUnexpectedEOF. A complete header block
// without a Content-Length field is a protocol error (ErrMissingContentLength).
func ReadMessage(r *bufio.Reader) (*Message, error) {
	headers := make(map[string]string)
	first := true
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if err == io.EOF && first && line == "" {
				return nil, io.EOF
			}
			return nil, io.ErrUnexpectedEOF
		}
		first = false
		trimmed := strings.TrimRight(line, "\r\n")
		if trimmed == "" {
			break
		}
		key, value, found := strings.Cut(trimmed, ":")
		if !found {
			continue
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}

	lengthStr, ok := headers[contentLengthHeader]
	if !ok {
		return nil, ErrMissingContentLength
	}
	length, err := strconv.Atoi(lengthStr)
	if err != nil || length < 0 {
		return nil, fmt.Errorf("protocol: bad Content-Length %q", lengthStr)
	}

	body := make([]byte, length)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, io.ErrUnexpectedEOF
	}

	var msg Message
	if err := json.Unmarshal(body, &msg); err != nil {
		return nil, fmt.Errorf("protocol: decode frame body: %w", err)
	}
	return &msg, nil
}

// WriteMessage encodes msg as one framed message on w. The body is
// serialized first so the declared length always matches the bytes written.
func WriteMessage(w io.Writer, msg *Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("protocol: encode frame body: %w", err)
	}
	header := fmt.Sprintf("%s: %d\r\n\r\n", contentLengthHeader, len(body))
	if _, err := w.Write(append([]byte(header), body...)); err != nil {
		return err
	}
	return nil
}

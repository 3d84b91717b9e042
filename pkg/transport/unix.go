// Maude - governed chat client for the governor daemon
// License: MIT

package transport

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/maudetui/maude/pkg/protocol"
)

// UnixTransport speaks Content-Length framed messages over a unix domain
// socket. The socket path is resolved by the caller (pkg/config); the
// transport does no environment lookup of its own.
type UnixTransport struct {
	socketPath string

	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
}

// NewUnix creates a transport for the daemon socket at socketPath.
// No connection is made until Connect.
func NewUnix(socketPath string) *UnixTransport {
	return &UnixTransport{socketPath: socketPath}
}

// SocketPath returns the endpoint this transport dials.
func (t *UnixTransport) SocketPath() string { return t.socketPath }

// Connect dials the daemon socket. Connecting an already connected
// transport is a no-op.
func (t *UnixTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn != nil {
		return nil
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "unix", t.socketPath)
	if err != nil {
		return fmt.Errorf("transport: dial %s: %w", t.socketPath, err)
	}
	t.conn = conn
	t.reader = bufio.NewReader(conn)
	return nil
}

// Close tears down the connection. Safe to call repeatedly and on an
// unconnected transport. A blocked read or write fails once the underlying
// socket closes.
func (t *UnixTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	t.reader = nil
	return err
}

// Connected reports whether the transport currently holds a live connection.
func (t *UnixTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// ReadMessage blocks until the next framed message arrives. Returns io.EOF
// when the daemon closes the stream cleanly.
func (t *UnixTransport) ReadMessage() (*protocol.Message, error) {
	t.mu.Lock()
	reader := t.reader
	t.mu.Unlock()

	if reader == nil {
		return nil, ErrNotConnected
	}
	return protocol.ReadMessage(reader)
}

// WriteMessage frames and sends msg.
func (t *UnixTransport) WriteMessage(msg *protocol.Message) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()

	if conn == nil {
		return ErrNotConnected
	}
	return protocol.WriteMessage(conn, msg)
}

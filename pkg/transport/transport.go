// Package transport carries framed protocol messages between the client and
// the governor daemon. Exactly one production implementation exists (unix
// domain socket); Memory provides the same contract for tests.
package transport

import (
	"context"
	"errors"

	"github.com/maudetui/maude/pkg/protocol"
)

// ErrNotConnected is returned by reads and writes on a transport that has
// never connected or has been closed.
var ErrNotConnected = errors.New("transport: not connected")

// Transport owns a single connection to the daemon.
//
// ReadMessage returns (nil, io.EOF) on clean end-of-stream and a non-EOF
// error on mid-message truncation. Close is idempotent and safe on an
// unconnected transport. Connected reports false both before the first
// Connect and after Close.
type Transport interface {
	Connect(ctx context.Context) error
	Close() error
	Connected() bool
	ReadMessage() (*protocol.Message, error)
	WriteMessage(msg *protocol.Message) error
}

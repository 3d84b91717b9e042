package rpc

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed reports that the stream ended before the terminal
// message for an outstanding call arrived. The engine reconnects lazily on
// the next call; the failed call is not retried.
var ErrConnectionClosed = errors.New("rpc: connection closed by daemon")

// ErrStreamClosed is returned by Recv after the consumer abandons a stream
// with Close.
var ErrStreamClosed = errors.New("rpc: stream closed by consumer")

// RemoteError is a well-formed error response from the daemon.
type RemoteError struct {
	Code    int
	Message string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

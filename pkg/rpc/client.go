// Maude - governed chat client for the governor daemon
// License: MIT

// Package rpc implements the request/response correlation engine over a
// Transport: unary calls, streaming calls fed by notifications, and the
// single-outstanding-call discipline that keeps both safe to interleave
// with the background status poll.
package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/maudetui/maude/pkg/logger"
	"github.com/maudetui/maude/pkg/protocol"
	"github.com/maudetui/maude/pkg/transport"
)

// Client correlates requests with responses on a single connection.
//
// Request ids come from a strictly increasing process-lifetime counter
// starting at 1 and are never reused. At most one call is in flight at a
// time: Call and CallStreaming contend on a single-slot lock, and a
// streaming call holds the slot until its terminal message arrives (or the
// stream is closed). Callers on other goroutines simply queue.
type Client struct {
	transport transport.Transport
	lastID    atomic.Int64

	// slot serializes calls. A plain channel-of-one rather than a mutex so
	// a streaming call started on one goroutine can be released on another.
	slot chan struct{}
}

// NewClient wraps t. The transport is owned by the client from here on.
func NewClient(t transport.Transport) *Client {
	c := &Client{transport: t, slot: make(chan struct{}, 1)}
	c.slot <- struct{}{}
	return c
}

// Close tears down the underlying transport. Any in-flight call fails with
// a connection error.
func (c *Client) Close() error {
	return c.transport.Close()
}

// Connected reports whether the underlying transport holds a connection.
func (c *Client) Connected() bool {
	return c.transport.Connected()
}

func (c *Client) acquire(ctx context.Context) error {
	select {
	case <-c.slot:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Client) release() {
	c.slot <- struct{}{}
}

func (c *Client) nextID() int64 {
	return c.lastID.Add(1)
}

// ensureConnected dials lazily. A connection left broken by a previous
// failure has been closed already, so this is also the reconnect path.
func (c *Client) ensureConnected(ctx context.Context) error {
	if c.transport.Connected() {
		return nil
	}
	return c.transport.Connect(ctx)
}

// Call sends a unary request and blocks until its terminal message.
// Notifications arriving before the response are discarded here; responses
// with a foreign id are discarded defensively (they cannot occur under the
// single-outstanding-call discipline).
func (c *Client) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}
	defer c.release()

	id, err := c.send(ctx, method, params)
	if err != nil {
		return nil, err
	}

	for {
		msg, err := c.transport.ReadMessage()
		if err != nil {
			return nil, c.fail(method, err)
		}
		if msg.ID == nil {
			logger.DebugCF("rpc", "discarding notification during unary call",
				map[string]any{"method": msg.Method})
			continue
		}
		if *msg.ID != id {
			logger.WarnCF("rpc", "discarding response with foreign id",
				map[string]any{"got": *msg.ID, "want": id})
			continue
		}
		if msg.Error != nil {
			return nil, &RemoteError{Code: msg.Error.Code, Message: msg.Error.Message}
		}
		return msg.Result, nil
	}
}

// CallStreaming sends a request whose reply is an open-ended run of
// notifications followed by a terminal response. Fragments are consumed
// from the returned Stream; the call slot stays held until the stream
// finishes. notifMethod selects which notifications yield fragments; all
// others are skipped.
func (c *Client) CallStreaming(ctx context.Context, method string, params any, notifMethod string) (*Stream, error) {
	if err := c.acquire(ctx); err != nil {
		return nil, err
	}

	id, err := c.send(ctx, method, params)
	if err != nil {
		c.release()
		return nil, err
	}

	return &Stream{client: c, id: id, notifMethod: notifMethod}, nil
}

// send connects if needed, allocates the next id, and writes the request.
func (c *Client) send(ctx context.Context, method string, params any) (int64, error) {
	if err := c.ensureConnected(ctx); err != nil {
		return 0, err
	}

	id := c.nextID()
	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return 0, err
	}
	if err := c.transport.WriteMessage(req); err != nil {
		c.transport.Close()
		return 0, fmt.Errorf("rpc: write %s: %w", method, err)
	}
	return id, nil
}

// fail maps a read failure into the error taxonomy and marks the
// connection unusable so the next call reconnects.
func (c *Client) fail(method string, err error) error {
	c.transport.Close()
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w (awaiting %s)", ErrConnectionClosed, method)
	}
	return fmt.Errorf("rpc: %s: %w", method, err)
}

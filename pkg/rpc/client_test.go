package rpc

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/maudetui/maude/pkg/protocol"
	"github.com/maudetui/maude/pkg/transport"
	"github.com/stretchr/testify/require"
)

func response(id int64, result string) *protocol.Message {
	return &protocol.Message{JSONRPC: protocol.Version, ID: &id, Result: []byte(result)}
}

func errorResponse(id int64, code int, msg string) *protocol.Message {
	return &protocol.Message{
		JSONRPC: protocol.Version,
		ID:      &id,
		Error:   &protocol.ErrorObject{Code: code, Message: msg},
	}
}

func notification(method, content string) *protocol.Message {
	return &protocol.Message{
		JSONRPC: protocol.Version,
		Method:  method,
		Params:  []byte(`{"content":` + quote(content) + `}`),
	}
}

func quote(s string) string { return `"` + s + `"` }

// echoDaemon answers every request with a result mirroring its id.
func echoDaemon(req *protocol.Message) []*protocol.Message {
	return []*protocol.Message{response(*req.ID, `{"echo":true}`)}
}

func TestCall_AutoConnectsAndResolves(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(echoDaemon)
	c := NewClient(mem)

	require.False(t, c.Connected())
	result, err := c.Call(context.Background(), "governor.hello", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"echo":true}`, string(result))
	require.True(t, c.Connected())
}

func TestCall_IDsStrictlyIncreasing(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		// Interleave noise notifications before every response.
		return []*protocol.Message{
			notification("governor.event", "noise"),
			response(*req.ID, `{}`),
		}
	})
	c := NewClient(mem)

	for i := 0; i < 10; i++ {
		_, err := c.Call(context.Background(), "governor.now", nil)
		require.NoError(t, err)
	}

	written := mem.Written()
	require.Len(t, written, 10)
	var prev int64
	for _, req := range written {
		require.NotNil(t, req.ID)
		require.Greater(t, *req.ID, prev, "ids must be strictly increasing")
		prev = *req.ID
	}
	require.EqualValues(t, 1, *written[0].ID, "ids start at 1")
}

func TestCall_RemoteError(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		return []*protocol.Message{errorResponse(*req.ID, -32601, "method not found")}
	})
	c := NewClient(mem)

	_, err := c.Call(context.Background(), "nope", nil)
	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, -32601, remote.Code)
	require.Equal(t, "method not found", remote.Message)
}

func TestCall_EOFBeforeResponse(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		mem.CloseRemote()
		return nil
	})
	c := NewClient(mem)

	done := make(chan error, 1)
	go func() {
		_, err := c.Call(context.Background(), "chat.send", nil)
		done <- err
	}()

	select {
	case err := <-done:
		require.ErrorIs(t, err, ErrConnectionClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("Call hung on end-of-stream")
	}
	require.False(t, c.Connected(), "failed connection is torn down for lazy reconnect")
}

func TestCall_ReconnectsAfterFailure(t *testing.T) {
	mem := transport.NewMemory()
	closed := false
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		if !closed {
			closed = true
			mem.CloseRemote()
			return nil
		}
		return echoDaemon(req)
	})
	c := NewClient(mem)

	_, err := c.Call(context.Background(), "governor.now", nil)
	require.ErrorIs(t, err, ErrConnectionClosed)

	// The next call reconnects lazily and succeeds with a fresh, larger id.
	result, err := c.Call(context.Background(), "governor.now", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"echo":true}`, string(result))

	written := mem.Written()
	require.EqualValues(t, 1, *written[0].ID)
	require.EqualValues(t, 2, *written[1].ID, "ids are never reused across reconnects")
}

func TestCall_DiscardsForeignIDs(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		return []*protocol.Message{
			response(*req.ID+100, `{"stale":true}`),
			response(*req.ID, `{"fresh":true}`),
		}
	})
	c := NewClient(mem)

	result, err := c.Call(context.Background(), "sessions.list", nil)
	require.NoError(t, err)
	require.JSONEq(t, `{"fresh":true}`, string(result))
}

func TestCall_ConnectFailure(t *testing.T) {
	mem := transport.NewMemory()
	mem.FailConnect(errors.New("connection refused"))
	c := NewClient(mem)

	_, err := c.Call(context.Background(), "governor.hello", nil)
	require.Error(t, err)
}

func TestCall_ProtocolErrorTearsDownConnection(t *testing.T) {
	mem := transport.NewMemory()
	require.NoError(t, mem.Connect(context.Background()))
	c := NewClient(mem)

	go func() {
		time.Sleep(20 * time.Millisecond)
		// Simulate a fatal decode failure by closing under the reader.
		mem.Close()
	}()

	_, err := c.Call(context.Background(), "governor.now", nil)
	require.Error(t, err)
	require.False(t, errors.Is(err, io.EOF))
}

func TestCall_SerializedWithStreamingCall(t *testing.T) {
	mem := transport.NewMemory()
	require.NoError(t, mem.Connect(context.Background()))
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	// While the stream holds the call slot, a unary call cannot start.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err = c.Call(ctx, "governor.now", nil)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	// Finish the stream; the slot frees and the poll goes through.
	mem.SetHandler(echoDaemon)
	mem.Enqueue(response(1, `{}`))
	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)

	_, err = c.Call(context.Background(), "governor.now", nil)
	require.NoError(t, err)
}

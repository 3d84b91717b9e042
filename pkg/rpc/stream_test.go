package rpc

import (
	"context"
	"io"
	"testing"

	"github.com/maudetui/maude/pkg/protocol"
	"github.com/maudetui/maude/pkg/transport"
	"github.com/stretchr/testify/require"
)

// collect drains a stream until its terminal condition.
func collect(t *testing.T, s *Stream) ([]string, error) {
	t.Helper()
	var got []string
	for {
		fragment, err := s.Recv()
		if err != nil {
			return got, err
		}
		got = append(got, fragment)
	}
}

func TestStream_YieldsMatchingNotificationsInOrder(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		return []*protocol.Message{
			notification(protocol.MethodChatDelta, "The "),
			notification("governor.event", "ignored: wrong method"),
			notification(protocol.MethodChatDelta, "spec "),
			notification(protocol.MethodChatDelta, ""), // empty content skipped
			notification(protocol.MethodChatDelta, "holds."),
			response(*req.ID, `{"finish_reason":"stop"}`),
		}
	})
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	got, err := collect(t, stream)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, []string{"The ", "spec ", "holds."}, got)
	require.JSONEq(t, `{"finish_reason":"stop"}`, string(stream.Result()))

	// Single-pass: a finished stream stays finished.
	_, err = stream.Recv()
	require.ErrorIs(t, err, io.EOF)
}

func TestStream_NoFragmentsBeforeTerminal(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		return []*protocol.Message{response(*req.ID, `{"content":"never yielded"}`)}
	})
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	got, err := collect(t, stream)
	require.ErrorIs(t, err, io.EOF)
	require.Empty(t, got, "terminal payload must never be yielded as a fragment")
}

func TestStream_TerminalRemoteError(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		return []*protocol.Message{
			notification(protocol.MethodChatDelta, "partial"),
			errorResponse(*req.ID, 4001, "policy violation"),
		}
	})
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	got, err := collect(t, stream)
	require.Equal(t, []string{"partial"}, got, "fragments before the error are still surfaced")

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	require.Equal(t, 4001, remote.Code)
	require.Equal(t, "policy violation", remote.Message)

	// The terminal error is sticky.
	_, err = stream.Recv()
	require.ErrorAs(t, err, &remote)
}

func TestStream_EOFBeforeTerminal(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		mem.Enqueue(notification(protocol.MethodChatDelta, "cut "))
		mem.CloseRemote()
		return nil
	})
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	got, err := collect(t, stream)
	require.Equal(t, []string{"cut "}, got)
	require.ErrorIs(t, err, ErrConnectionClosed)
}

func TestStream_CloseReleasesSlotAndConnection(t *testing.T) {
	mem := transport.NewMemory()
	require.NoError(t, mem.Connect(context.Background()))
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	require.False(t, c.Connected(), "abandoned stream leaves the connection unusable")

	_, err = stream.Recv()
	require.ErrorIs(t, err, ErrStreamClosed)

	// Slot released: the next call reconnects and proceeds.
	mem.SetHandler(echoDaemon)
	_, err = c.Call(context.Background(), "governor.now", nil)
	require.NoError(t, err)
}

func TestStream_DiscardsForeignResponses(t *testing.T) {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		return []*protocol.Message{
			response(*req.ID+5, `{"stale":true}`),
			notification(protocol.MethodChatDelta, "ok"),
			response(*req.ID, `{}`),
		}
	})
	c := NewClient(mem)

	stream, err := c.CallStreaming(context.Background(), "chat.stream", nil, protocol.MethodChatDelta)
	require.NoError(t, err)

	got, err := collect(t, stream)
	require.ErrorIs(t, err, io.EOF)
	require.Equal(t, []string{"ok"}, got)
}

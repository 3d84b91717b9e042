package rpc

import (
	"encoding/json"
	"io"

	"github.com/maudetui/maude/pkg/protocol"
)

// Stream is the lazy, single-pass fragment sequence produced by a streaming
// call. Fragments arrive strictly in wire order; the sequence ends when the
// terminal response for the originating request arrives.
//
// Stream is not safe for concurrent use: one consumer drives Recv.
type Stream struct {
	client      *Client
	id          int64
	notifMethod string

	done   bool
	err    error
	result json.RawMessage
}

// Recv blocks until the next fragment or the end of the stream.
//
// It returns io.EOF once the terminal result response has arrived (the
// terminal payload itself is never yielded; see Result). A terminal error
// response surfaces as *RemoteError; a transport end-of-stream before the
// terminal message surfaces as a connection error.
func (s *Stream) Recv() (string, error) {
	if s.done {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}

	for {
		msg, err := s.client.transport.ReadMessage()
		if err != nil {
			return "", s.finish(s.client.fail(s.notifMethod, err))
		}

		if msg.IsNotification() {
			if msg.Method != s.notifMethod {
				continue
			}
			content := msg.ParamString(protocol.ContentField)
			if content == "" {
				continue
			}
			return content, nil
		}

		if msg.ID == nil || *msg.ID != s.id {
			continue
		}

		if msg.Error != nil {
			return "", s.finish(&RemoteError{Code: msg.Error.Code, Message: msg.Error.Message})
		}
		s.result = msg.Result
		s.finish(nil)
		return "", io.EOF
	}
}

// Result returns the terminal response payload. Valid only after Recv has
// returned io.EOF.
func (s *Stream) Result() json.RawMessage {
	return s.result
}

// Close abandons the stream before its terminal message. The connection is
// torn down (fragments may still be in flight on the wire, so it cannot be
// reused) and the call slot is released. Closing a finished stream is a
// no-op.
func (s *Stream) Close() error {
	if s.done {
		return nil
	}
	s.client.transport.Close()
	s.finish(ErrStreamClosed)
	return nil
}

// finish records the terminal condition and releases the call slot.
func (s *Stream) finish(err error) error {
	s.done = true
	s.err = err
	s.client.release()
	return err
}

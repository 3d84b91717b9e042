package transport

import (
	"context"
	"io"
	"sync"

	"github.com/maudetui/maude/pkg/protocol"
)

// Memory is a pure in-memory Transport satisfying the same contract as
// UnixTransport. Tests script the daemon side either by queueing messages
// with Enqueue or by installing a Handler invoked for every written request.
type Memory struct {
	mu          sync.Mutex
	connected   bool
	eof         bool
	dialErr     error
	inbound     chan *protocol.Message
	closeNotify chan struct{}
	written     []*protocol.Message
	handler     func(*protocol.Message) []*protocol.Message
}

// NewMemory creates an unconnected in-memory transport.
func NewMemory() *Memory {
	return &Memory{
		inbound:     make(chan *protocol.Message, 64),
		closeNotify: make(chan struct{}),
	}
}

// FailConnect makes subsequent Connect calls fail with err.
func (m *Memory) FailConnect(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dialErr = err
}

// SetHandler installs the scripted daemon: fn receives each written message
// and its return values are delivered back as inbound messages, in order.
func (m *Memory) SetHandler(fn func(*protocol.Message) []*protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.handler = fn
}

// Enqueue delivers msgs to the client side as if pushed by the daemon.
func (m *Memory) Enqueue(msgs ...*protocol.Message) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eof {
		return
	}
	for _, msg := range msgs {
		m.inbound <- msg
	}
}

// CloseRemote simulates the daemon closing the stream cleanly: pending
// queued messages drain, then reads observe end-of-stream.
func (m *Memory) CloseRemote() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.eof {
		return
	}
	m.eof = true
	close(m.inbound)
}

// Written returns the messages the client has sent, oldest first.
func (m *Memory) Written() []*protocol.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*protocol.Message, len(m.written))
	copy(out, m.written)
	return out
}

func (m *Memory) Connect(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.dialErr != nil {
		return m.dialErr
	}
	if !m.connected {
		m.connected = true
		m.closeNotify = make(chan struct{})
		// A new connection gets a fresh stream even if the previous one
		// ended in a remote close.
		if m.eof {
			m.eof = false
			m.inbound = make(chan *protocol.Message, 64)
		}
	}
	return nil
}

func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.connected {
		m.connected = false
		close(m.closeNotify)
	}
	return nil
}

func (m *Memory) Connected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

func (m *Memory) ReadMessage() (*protocol.Message, error) {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil, ErrNotConnected
	}
	inbound, closed := m.inbound, m.closeNotify
	m.mu.Unlock()

	select {
	case msg, ok := <-inbound:
		if !ok {
			return nil, io.EOF
		}
		return msg, nil
	case <-closed:
		return nil, ErrNotConnected
	}
}

func (m *Memory) WriteMessage(msg *protocol.Message) error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return ErrNotConnected
	}
	m.written = append(m.written, msg)
	handler := m.handler
	eof := m.eof
	m.mu.Unlock()

	if handler != nil && !eof {
		for _, reply := range handler(msg) {
			m.mu.Lock()
			if !m.eof {
				m.inbound <- reply
			}
			m.mu.Unlock()
		}
	}
	return nil
}

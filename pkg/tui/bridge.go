package tui

import "github.com/maudetui/maude/pkg/governor"

// streamEvent is one update from the chat streaming goroutine.
type streamEvent struct {
	delta  string
	done   bool
	result governor.ChatResult
	err    error
}

// streamBridge hands streaming events from the chat goroutine to the
// bubbletea loop, which drains it on every tick. Buffered so the reader
// side of the wire never blocks on rendering.
type streamBridge struct {
	events chan streamEvent
}

func newStreamBridge() *streamBridge {
	return &streamBridge{events: make(chan streamEvent, 256)}
}

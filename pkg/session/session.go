// Maude - governed chat client for the governor daemon
// License: MIT

// Package session holds the client-side record of one conversation with the
// governor: mode, spec draft, lock and template state, and the working turn
// history. The daemon owns persistent session storage; this state is the
// local source of truth for session bookkeeping and is superseded wholesale
// on switch/new/delete.
package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Mode is the conversation phase. BUILD is only reachable once the spec
// draft is locked.
type Mode string

const (
	ModePlan  Mode = "PLAN"
	ModeBuild Mode = "BUILD"
)

// ErrSpecNotLocked is the guard violation for entering BUILD mode with an
// unlocked spec. It never originates from the wire.
var ErrSpecNotLocked = errors.New("cannot enter BUILD mode without a locked spec")

// ChatMessage is one turn of the working history.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NowSnapshot is the last-known governor status, as shown in the status bar.
type NowSnapshot struct {
	Status   string
	Sentence string
}

// Session is mutated only through its own methods; the RPC layer never
// touches it directly.
type Session struct {
	mu sync.Mutex

	mode              Mode
	governorSessionID string
	specDraft         strings.Builder
	specLocked        bool
	templateName      string
	templateContent   string
	messages          []ChatMessage
	lastNow           *NowSnapshot
}

// New creates a session in PLAN mode with an empty draft.
func New() *Session {
	return &Session{mode: ModePlan}
}

// Mode returns the current mode.
func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

// SetMode transitions the mode. Switching to BUILD fails with
// ErrSpecNotLocked unless the spec is locked; switching to PLAN always
// succeeds.
func (s *Session) SetMode(mode Mode) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if mode == ModeBuild && !s.specLocked {
		return ErrSpecNotLocked
	}
	s.mode = mode
	return nil
}

// GovernorSessionID returns the remote session id, or "" when none is bound.
func (s *Session) GovernorSessionID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.governorSessionID
}

// BindGovernorSession records the remote session this conversation maps to.
func (s *Session) BindGovernorSession(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.governorSessionID = id
}

// AppendSpec adds text to the draft. The draft is append-only until the
// session is replaced.
func (s *Session) AppendSpec(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specDraft.WriteString(text)
}

// SpecDraft returns the draft's current text.
func (s *Session) SpecDraft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specDraft.String()
}

// SpecLocked reports whether the draft is locked.
func (s *Session) SpecLocked() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.specLocked
}

// LockSpec marks the draft locked and returns its exact current text, which
// the caller submits to the daemon as a constraint. Locking an empty draft
// is permitted; callers are expected to check emptiness first. The remote
// submission is best-effort: its failure must not unlock the spec.
func (s *Session) LockSpec() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specLocked = true
	return s.specDraft.String()
}

// UnlockSpec reopens the draft. If the session is in BUILD mode it drops
// back to PLAN, keeping the mode/lock invariant.
func (s *Session) UnlockSpec() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.specLocked = false
	s.mode = ModePlan
}

// LoadTemplate sets the auxiliary template fields. The draft is untouched.
func (s *Session) LoadTemplate(name, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templateName = name
	s.templateContent = content
}

// ClearTemplate removes the loaded template. The draft is untouched.
func (s *Session) ClearTemplate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.templateName = ""
	s.templateContent = ""
}

// TemplateName returns the loaded template's name, or "".
func (s *Session) TemplateName() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateName
}

// AddMessage appends one turn to the history. No size bound is imposed
// here; bounding is caller policy.
func (s *Session) AddMessage(role, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, ChatMessage{Role: role, Content: content})
}

// Messages returns a copy of the turn history.
func (s *Session) Messages() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]ChatMessage, len(s.messages))
	copy(out, s.messages)
	return out
}

// BuildChatRequest assembles the message list for one chat turn. When a
// template is loaded, the history is prefixed with a system turn composed
// from the template content and the current draft. The composition is
// recomputed on every call: the draft can change between turns.
func (s *Session) BuildChatRequest() []ChatMessage {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []ChatMessage
	if s.templateContent != "" {
		system := s.templateContent
		if draft := s.specDraft.String(); draft != "" {
			system += "\n\n## Current draft\n\n" + draft
		}
		out = append(out, ChatMessage{Role: "system", Content: system})
	}
	out = append(out, s.messages...)
	return out
}

// SetLastNow records the latest governor status snapshot.
func (s *Session) SetLastNow(now *NowSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNow = now
}

// LastNow returns the last-known governor status snapshot, or nil.
func (s *Session) LastNow() *NowSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastNow
}

// StatusLine renders the one-line summary shown in the status bar.
func (s *Session) StatusLine() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	spec := "UNLOCKED"
	if s.specLocked {
		spec = "LOCKED"
	}
	sess := s.governorSessionID
	if sess == "" {
		sess = "none"
	}
	line := fmt.Sprintf("MODE=%s  SPEC=%s  SESSION=%s", s.mode, spec, sess)
	if s.lastNow != nil {
		line += fmt.Sprintf("  GOV=%s", s.lastNow.Status)
	}
	return line
}

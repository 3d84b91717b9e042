// Maude - governed chat client for the governor daemon
// License: MIT

package tui

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/charmbracelet/bubbles/textarea"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/maudetui/maude/pkg/config"
	"github.com/maudetui/maude/pkg/governor"
	"github.com/maudetui/maude/pkg/protocol"
	"github.com/maudetui/maude/pkg/rpc"
	"github.com/maudetui/maude/pkg/session"
	"github.com/maudetui/maude/pkg/transport"
)

// newTestModel builds a Model over an in-memory daemon scripted by method.
// We must use textarea.New() because the bubbles textarea panics on
// SetWidth if its internal state is nil.
func newTestModel(results map[string]string) Model {
	mem := transport.NewMemory()
	mem.SetHandler(func(req *protocol.Message) []*protocol.Message {
		result, ok := results[req.Method]
		if !ok {
			return []*protocol.Message{{
				JSONRPC: protocol.Version,
				ID:      req.ID,
				Error:   &protocol.ErrorObject{Code: -32601, Message: "method not found"},
			}}
		}
		return []*protocol.Message{{
			JSONRPC: protocol.Version,
			ID:      req.ID,
			Result:  json.RawMessage(result),
		}}
	})
	gov := governor.NewClient(rpc.NewClient(mem), "default", "code", "test")

	ta := textarea.New()
	ta.SetHeight(textareaHeight)
	return Model{
		textarea: ta,
		gov:      gov,
		settings: config.Settings{ContextID: "default"},
		session:  session.New(),
		bridge:   newStreamBridge(),
	}
}

// initTestModel sends a WindowSizeMsg so the viewport exists.
func initTestModel(t *testing.T, results map[string]string) Model {
	t.Helper()
	m := newTestModel(results)
	result, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	model, ok := result.(Model)
	if !ok {
		t.Fatal("Update did not return a Model")
	}
	return model
}

func lastEntry(t *testing.T, m Model) chatEntry {
	t.Helper()
	if len(m.entries) == 0 {
		t.Fatal("expected at least one transcript entry")
	}
	return m.entries[len(m.entries)-1]
}

func TestModel_View_NotReady(t *testing.T) {
	m := newTestModel(nil)
	if !strings.Contains(m.View(), "Connecting") {
		t.Errorf("expected connecting notice, got %q", m.View())
	}
}

func TestModel_Update_CtrlC_SetsQuitting(t *testing.T) {
	m := initTestModel(t, nil)

	result, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	model := result.(Model)

	if !model.quitting {
		t.Error("expected quitting to be true after Ctrl+C")
	}
	if cmd == nil {
		t.Error("expected quit command, got nil")
	}
}

func TestDispatch_PlanAppendsDraft(t *testing.T) {
	m := initTestModel(t, nil)

	result, _ := m.dispatch("plan users can log in with email")
	model := result.(Model)

	if got := model.session.SpecDraft(); got != "users can log in with email\n" {
		t.Errorf("unexpected draft: %q", got)
	}
	if entry := lastEntry(t, model); entry.role != "system" || !strings.Contains(entry.content, "Added to spec draft") {
		t.Errorf("unexpected entry: %+v", entry)
	}
}

func TestDispatch_PlanIsAppendOnly(t *testing.T) {
	m := initTestModel(t, nil)

	result, _ := m.dispatch("plan first requirement")
	m = result.(Model)
	result, _ = m.dispatch("plan second requirement")
	model := result.(Model)

	draft := model.session.SpecDraft()
	if !strings.Contains(draft, "first requirement") || !strings.Contains(draft, "second requirement") {
		t.Errorf("draft lost earlier content: %q", draft)
	}
}

func TestDispatch_BuildRequiresLockedSpec(t *testing.T) {
	m := initTestModel(t, nil)

	result, _ := m.dispatch("build")
	model := result.(Model)

	if model.session.Mode() != session.ModePlan {
		t.Errorf("expected mode to stay PLAN, got %s", model.session.Mode())
	}
	if entry := lastEntry(t, model); entry.role != "warn" || !strings.Contains(entry.content, "locked spec") {
		t.Errorf("expected guard message, got %+v", entry)
	}
}

func TestDispatch_BuildAfterLock(t *testing.T) {
	m := initTestModel(t, map[string]string{"constraints.add": `{"ok": true}`})

	result, _ := m.dispatch("plan something")
	m = result.(Model)
	result, _ = m.dispatch("lock spec")
	m = result.(Model)
	result, _ = m.dispatch("build")
	model := result.(Model)

	if model.session.Mode() != session.ModeBuild {
		t.Errorf("expected BUILD mode, got %s", model.session.Mode())
	}
}

func TestLockSpec_EmptyDraftRefused(t *testing.T) {
	m := initTestModel(t, nil)

	result, cmd := m.dispatch("lock spec")
	model := result.(Model)

	if model.session.SpecLocked() {
		t.Error("expected empty draft to stay unlocked")
	}
	if cmd != nil {
		t.Error("expected no mirror command for a refused lock")
	}
}

// A failed remote constraint submission reports a warning but never rolls
// the local lock back.
func TestLockSpec_RemoteFailureKeepsLock(t *testing.T) {
	// No constraints.add in the script: the mirror call fails remotely.
	m := initTestModel(t, nil)

	result, _ := m.dispatch("plan no production deploys on fridays")
	m = result.(Model)

	result, cmd := m.dispatch("lock spec")
	m = result.(Model)
	if !m.session.SpecLocked() {
		t.Fatal("expected spec to be locked locally")
	}
	if cmd == nil {
		t.Fatal("expected a constraint mirror command")
	}

	msg := cmd()
	mirrored, ok := msg.(ConstraintMirroredMsg)
	if !ok {
		t.Fatalf("expected ConstraintMirroredMsg, got %T", msg)
	}
	if mirrored.Err == nil {
		t.Fatal("expected the mirror to fail")
	}

	result, _ = m.Update(mirrored)
	model := result.(Model)

	if !model.session.SpecLocked() {
		t.Error("remote failure must not unlock the spec")
	}
	if entry := lastEntry(t, model); entry.role != "warn" || !strings.Contains(entry.content, "stays locked") {
		t.Errorf("expected a warning entry, got %+v", entry)
	}
}

func TestDispatch_PlanTemplateLoads(t *testing.T) {
	m := initTestModel(t, nil)

	result, _ := m.dispatch("plan architecture")
	model := result.(Model)

	if model.session.TemplateName() != "architecture" {
		t.Errorf("expected architecture template, got %q", model.session.TemplateName())
	}
	if model.session.SpecDraft() != "" {
		t.Errorf("template load must not touch the draft, got %q", model.session.SpecDraft())
	}
}

func TestDispatch_ClearTemplate(t *testing.T) {
	m := initTestModel(t, nil)
	m.session.LoadTemplate("architecture", "content")

	result, _ := m.dispatch("clear template")
	model := result.(Model)

	if model.session.TemplateName() != "" {
		t.Error("expected template to be cleared")
	}
}

func TestDispatch_HelpShowsCommands(t *testing.T) {
	m := initTestModel(t, nil)

	result, _ := m.dispatch("help")
	model := result.(Model)

	entry := lastEntry(t, model)
	if entry.role != "system" || !strings.Contains(entry.content, "lock spec") {
		t.Errorf("expected help text, got %+v", entry)
	}
}

func TestDispatch_ChatStartsStreaming(t *testing.T) {
	m := initTestModel(t, nil)

	result, cmd := m.dispatch("what is the plan?")
	model := result.(Model)

	if !model.streaming || !model.thinking {
		t.Error("expected streaming and thinking after a chat dispatch")
	}
	if cmd == nil {
		t.Error("expected a chat command")
	}
	msgs := model.session.Messages()
	if len(msgs) != 1 || msgs[0].Role != "user" {
		t.Errorf("expected one user turn in history, got %+v", msgs)
	}
}

func TestHandleTick_DrainsStreamEvents(t *testing.T) {
	m := initTestModel(t, nil)
	m.streaming = true
	m.thinking = true

	m.bridge.events <- streamEvent{delta: "Hello"}
	m.bridge.events <- streamEvent{delta: ", world"}
	m.bridge.events <- streamEvent{done: true}

	result, _ := m.handleTick()
	model := result.(Model)

	if model.streaming || model.thinking {
		t.Error("expected streaming to end after the terminal event")
	}
	entry := lastEntry(t, model)
	if entry.role != "assistant" || entry.content != "Hello, world" {
		t.Errorf("expected assembled assistant entry, got %+v", entry)
	}
	msgs := model.session.Messages()
	if len(msgs) != 1 || msgs[0].Content != "Hello, world" {
		t.Errorf("expected the full reply in history, got %+v", msgs)
	}
}

func TestHandleTick_StreamErrorKeepsPartialOutOfHistory(t *testing.T) {
	m := initTestModel(t, nil)
	m.streaming = true
	m.thinking = true

	m.bridge.events <- streamEvent{delta: "partial"}
	m.bridge.events <- streamEvent{err: errors.New("connection lost")}

	result, _ := m.handleTick()
	model := result.(Model)

	entry := lastEntry(t, model)
	if entry.role != "error" || !strings.Contains(entry.content, "connection lost") {
		t.Errorf("expected error entry, got %+v", entry)
	}
	// The partial text is shown in the transcript but not fed back into
	// the model-facing history.
	if len(model.session.Messages()) != 0 {
		t.Errorf("partial fragments must not enter history, got %+v", model.session.Messages())
	}
}

func TestHandleSessionSwitched_ReplacesLocalState(t *testing.T) {
	m := initTestModel(t, nil)
	m.session.AppendSpec("old draft\n")
	m.session.LockSpec()
	m.session.AddMessage("user", "old turn")

	result, _ := m.Update(SessionSwitchedMsg{Session: governor.SessionSummary{ID: "s-2", Title: "Other"}})
	model := result.(Model)

	if model.session.GovernorSessionID() != "s-2" {
		t.Errorf("expected session bound to s-2, got %q", model.session.GovernorSessionID())
	}
	if model.session.SpecDraft() != "" || model.session.SpecLocked() {
		t.Error("switch must supersede draft and lock state wholesale")
	}
	if len(model.session.Messages()) != 0 {
		t.Error("switch must drop the old history")
	}
}

func TestStatusBar_ReflectsLockAndMode(t *testing.T) {
	m := initTestModel(t, map[string]string{"constraints.add": `{"ok": true}`})

	result, _ := m.dispatch("plan x")
	m = result.(Model)
	result, _ = m.dispatch("lock spec")
	m = result.(Model)
	result, _ = m.dispatch("build")
	model := result.(Model)

	bar := model.renderStatusBar()
	if !strings.Contains(bar, "MODE=BUILD") || !strings.Contains(bar, "SPEC=LOCKED") {
		t.Errorf("unexpected status bar: %q", bar)
	}
}

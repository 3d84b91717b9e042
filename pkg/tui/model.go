// Maude - governed chat client for the governor daemon
// License: MIT

package tui

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"

	"github.com/maudetui/maude/pkg/config"
	"github.com/maudetui/maude/pkg/governor"
	"github.com/maudetui/maude/pkg/intent"
	"github.com/maudetui/maude/pkg/logger"
	"github.com/maudetui/maude/pkg/session"
	"github.com/maudetui/maude/pkg/templates"
)

const (
	tickInterval       = 200 * time.Millisecond
	nowPollInterval    = 5 * time.Second
	thinkingFrameCount = 4
	headerHeight       = 1
	statusBarHeight    = 1
	textareaHeight     = 3
	// chromeHeight accounts for header, status bar, textarea, and separators
	chromeHeight = headerHeight + statusBarHeight + textareaHeight + 2
)

var thinkingFrames = [thinkingFrameCount]string{"⠋", "⠙", "⠹", "⠸"}

// tickMsg drives the thinking animation and stream bridge draining.
type tickMsg time.Time

// nowPollMsg triggers the periodic governor status refresh.
type nowPollMsg time.Time

const helpText = `Available commands:
  plan <text>          - add to the spec draft
  plan architecture    - load the architecture template (also: arch, product,
                         product design, requirements, reqs)
  clear template       - unload the current template
  lock spec            - lock the current spec draft
  build                - switch to BUILD mode (requires locked spec)
  show spec            - show the current spec draft
  show diff            - show diff (TODO)
  apply                - apply changes (TODO)
  rollback             - rollback changes (TODO)
  why                  - show why something is blocked
  status               - show governor status
  sessions             - list governor sessions
  switch <id>          - switch to another session (also: session, resume)
  delete session <id>  - delete a session
  help / ?             - show this help
  anything else is sent to the model via the governor`

// chatEntry is one rendered line group in the transcript.
type chatEntry struct {
	role    string // "user", "assistant", "system", "error", "success", "warn"
	content string
}

// Model is the bubbletea model orchestrating the governed chat session.
type Model struct {
	viewport viewport.Model
	textarea textarea.Model
	renderer *glamour.TermRenderer

	gov      *governor.Client
	settings config.Settings
	session  *session.Session
	bridge   *streamBridge

	entries []chatEntry
	// streamBuf accumulates in-flight fragments. Plain string, not a
	// strings.Builder: bubbletea copies the model on every update.
	streamBuf  string
	streaming  bool
	thinking   bool
	thinkFrame int

	width    int
	height   int
	ready    bool
	quitting bool
}

// New creates the TUI model. The governor client and session are owned by
// the model from here on.
func New(gov *governor.Client, settings config.Settings) Model {
	ta := textarea.New()
	ta.Placeholder = "Type a message or command..."
	ta.Prompt = "│ "
	ta.CharLimit = 0
	ta.SetHeight(textareaHeight)
	ta.ShowLineNumbers = false
	ta.KeyMap.InsertNewline = key.NewBinding(key.WithKeys("alt+enter"))
	ta.Focus()

	renderer, _ := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(0),
	)

	return Model{
		textarea: ta,
		renderer: renderer,
		gov:      gov,
		settings: settings,
		session:  session.New(),
		bridge:   newStreamBridge(),
	}
}

// Init connects, handshakes, binds a session, and starts the tickers.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		textarea.Blink,
		tickCmd(),
		tea.Tick(nowPollInterval, func(t time.Time) tea.Msg { return nowPollMsg(t) }),
		m.helloCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg)

	case tickMsg:
		return m.handleTick()

	case nowPollMsg:
		return m, tea.Batch(
			m.pollNowCmd(),
			tea.Tick(nowPollInterval, func(t time.Time) tea.Msg { return nowPollMsg(t) }),
		)

	case HealthMsg:
		return m.handleHealth(msg)

	case SessionReadyMsg:
		return m.handleSessionReady(msg)

	case NowUpdatedMsg:
		if msg.Err == nil {
			m.session.SetLastNow(&session.NowSnapshot{Status: msg.Now.Status, Sentence: msg.Now.Sentence})
		}
		return m, nil

	case StatusResultMsg:
		return m.handleStatusResult(msg)

	case WhyResultMsg:
		if msg.Err != nil {
			m.appendEntry("error", fmt.Sprintf("Why error: %v", msg.Err))
		} else {
			m.appendEntry("system", "Why: "+msg.Now.Sentence)
		}
		return m, nil

	case SessionsListedMsg:
		return m.handleSessionsListed(msg)

	case SessionSwitchedMsg:
		return m.handleSessionSwitched(msg)

	case SessionDeletedMsg:
		return m.handleSessionDeleted(msg)

	case ConstraintMirroredMsg:
		// Local lock state is the source of truth; a failed mirror is
		// reported but never rolls the lock back.
		if msg.Err != nil {
			m.appendEntry("warn", fmt.Sprintf("Constraint submission failed (spec stays locked locally): %v", msg.Err))
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if !m.ready {
		return "Connecting to governor...\n"
	}

	header := m.renderHeader()
	sep := separatorStyle.Render(strings.Repeat("─", m.width))

	return fmt.Sprintf(
		"%s\n%s\n%s\n%s\n%s",
		header,
		m.viewport.View(),
		sep,
		m.textarea.View(),
		m.renderStatusBar(),
	)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC, tea.KeyCtrlQ:
		m.quitting = true
		m.gov.Close()
		return m, tea.Quit

	case tea.KeyCtrlL:
		return m.lockSpec()

	case tea.KeyCtrlN:
		return m, m.newSessionCmd()

	case tea.KeyPgUp:
		m.viewport.PageUp()
		return m, nil

	case tea.KeyPgDown:
		m.viewport.PageDown()
		return m, nil

	case tea.KeyEnter:
		input := strings.TrimSpace(m.textarea.Value())
		if input == "" {
			return m, nil
		}
		m.textarea.Reset()
		return m.dispatch(input)
	}

	var cmd tea.Cmd
	m.textarea, cmd = m.textarea.Update(msg)
	return m, cmd
}

// dispatch routes one input line through the intent classifier.
func (m Model) dispatch(input string) (tea.Model, tea.Cmd) {
	it := intent.Classify(input)
	logger.DebugCF("tui", "classified input", map[string]any{"kind": string(it.Kind)})

	switch it.Kind {
	case intent.KindHelp:
		m.appendEntry("system", helpText)
		return m, nil

	case intent.KindStatus:
		return m, m.statusCmd()

	case intent.KindWhy:
		return m, m.whyCmd()

	case intent.KindPlan:
		return m.handlePlan(it.Payload)

	case intent.KindPlanTemplate:
		return m.handlePlanTemplate(it.Payload)

	case intent.KindClearTemplate:
		m.session.ClearTemplate()
		m.appendEntry("system", "Template cleared.")
		return m, nil

	case intent.KindLockSpec:
		return m.lockSpec()

	case intent.KindBuild:
		return m.handleBuild()

	case intent.KindShowSpec:
		return m.handleShowSpec()

	case intent.KindShowDiff:
		m.appendEntry("system", "# TODO: diff pane not yet implemented")
		return m, nil

	case intent.KindApply:
		m.appendEntry("system", "# TODO: apply gate not yet implemented")
		return m, nil

	case intent.KindRollback:
		m.appendEntry("system", "# TODO: rollback not yet implemented")
		return m, nil

	case intent.KindSessionsList:
		return m, m.sessionsCmd()

	case intent.KindSwitchSession:
		return m, m.switchSessionCmd(it.Payload)

	case intent.KindDeleteSession:
		return m, m.deleteSessionCmd(it.Payload)

	default:
		return m.handleChat(it.Payload)
	}
}

func (m Model) handlePlan(payload string) (tea.Model, tea.Cmd) {
	text := payload
	for _, prefix := range []string{"plan ", "let's plan ", "lets plan "} {
		if strings.HasPrefix(strings.ToLower(text), prefix) {
			text = text[len(prefix):]
			break
		}
	}
	if strings.TrimSpace(text) == "" || strings.EqualFold(text, "plan") {
		m.appendEntry("system", "Usage: plan <description>")
		return m, nil
	}
	m.session.AppendSpec(text + "\n")
	m.appendEntry("system", fmt.Sprintf("Added to spec draft (%d chars)", len(m.session.SpecDraft())))
	return m, nil
}

func (m Model) handlePlanTemplate(alias string) (tea.Model, tea.Cmd) {
	name, content, err := templates.Load(m.settings.TemplatesDir, alias)
	if err != nil {
		m.appendEntry("error", fmt.Sprintf("Template error: %v", err))
		return m, nil
	}
	m.session.LoadTemplate(name, content)
	m.appendEntry("success", fmt.Sprintf("Loaded %s template. Chat turns now carry it with the current draft.", name))
	return m, nil
}

// lockSpec locks locally first; the remote constraint mirror is
// best-effort and runs after the lock is already in place.
func (m Model) lockSpec() (tea.Model, tea.Cmd) {
	if m.session.SpecDraft() == "" {
		m.appendEntry("warn", "No spec draft to lock. Use 'plan <text>' first.")
		return m, nil
	}
	text := m.session.LockSpec()
	m.appendEntry("success", "Spec locked.")
	return m, m.mirrorConstraintCmd(text)
}

func (m Model) handleBuild() (tea.Model, tea.Cmd) {
	if err := m.session.SetMode(session.ModeBuild); err != nil {
		m.appendEntry("warn", err.Error())
		return m, nil
	}
	m.appendEntry("success", "Switched to BUILD mode.")
	return m, nil
}

func (m Model) handleShowSpec() (tea.Model, tea.Cmd) {
	draft := m.session.SpecDraft()
	if draft == "" {
		m.appendEntry("system", "No spec draft yet. Use 'plan <text>' to start.")
		return m, nil
	}
	state := "(UNLOCKED)"
	if m.session.SpecLocked() {
		state = "(LOCKED)"
	}
	m.appendEntry("system", fmt.Sprintf("Spec draft %s:\n%s", state, draft))
	return m, nil
}

func (m Model) handleChat(text string) (tea.Model, tea.Cmd) {
	m.entries = append(m.entries, chatEntry{role: "user", content: text})
	m.session.AddMessage("user", text)
	m.thinking = true
	m.streaming = true
	m.streamBuf = ""
	m.updateViewport()
	return m, m.chatCmd()
}

// handleTick advances the thinking animation and drains the stream bridge.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	if m.thinking {
		m.thinkFrame = (m.thinkFrame + 1) % thinkingFrameCount
	}

	dirty := m.thinking
	for {
		select {
		case ev := <-m.bridge.events:
			dirty = true
			switch {
			case ev.err != nil:
				m.streaming = false
				m.thinking = false
				m.flushStream(false)
				m.appendEntry("error", fmt.Sprintf("Chat error: %v", ev.err))
			case ev.done:
				m.streaming = false
				m.thinking = false
				m.flushStream(true)
			default:
				m.thinking = false
				m.streamBuf += ev.delta
			}
		default:
			if dirty {
				m.updateViewport()
			}
			return m, tickCmd()
		}
	}
}

// flushStream moves the accumulated fragments into the transcript and, on
// success, into the session history.
func (m *Model) flushStream(complete bool) {
	full := m.streamBuf
	m.streamBuf = ""
	if full == "" {
		return
	}
	m.entries = append(m.entries, chatEntry{role: "assistant", content: full})
	if complete {
		m.session.AddMessage("assistant", full)
	}
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.width = msg.Width
	m.height = msg.Height

	vpHeight := msg.Height - chromeHeight
	if vpHeight < 1 {
		vpHeight = 1
	}

	if !m.ready {
		m.viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.viewport.Width = msg.Width
		m.viewport.Height = vpHeight
	}

	m.textarea.SetWidth(msg.Width)

	if r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(msg.Width-4),
	); err == nil {
		m.renderer = r
	}

	m.updateViewport()
	return m, nil
}

func (m Model) handleHealth(msg HealthMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendEntry("error", fmt.Sprintf("Governor unreachable: %v", msg.Err))
		m.appendEntry("system", "Chat commands will fail until the governor is available.")
		return m, nil
	}
	m.appendEntry("success", fmt.Sprintf(
		"Connected — backend=%s mode=%s context=%s",
		msg.Health.Backend.Type, msg.Health.Governor.Mode, msg.Health.Governor.ContextID,
	))
	return m, m.bindSessionCmd()
}

func (m Model) handleSessionReady(msg SessionReadyMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendEntry("warn", fmt.Sprintf("Session init failed: %v", msg.Err))
		return m, nil
	}
	m.session.BindGovernorSession(msg.ID)
	if msg.Resumed {
		m.appendEntry("system", fmt.Sprintf("Resumed session: %s (%s)", msg.Title, msg.ID))
	} else {
		m.appendEntry("system", fmt.Sprintf("Created session: %s", msg.ID))
	}
	return m, nil
}

func (m Model) handleStatusResult(msg StatusResultMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendEntry("error", fmt.Sprintf("Status error: %v", msg.Err))
		return m, nil
	}
	st := msg.Status
	m.appendEntry("system", fmt.Sprintf(
		"Governor status:\n  context: %s\n  mode: %s\n  initialized: %v\n  decisions: %d\n  violations: %d\n  claims: %d",
		st.ContextID, st.Mode, st.Initialized, st.Decisions, st.Violations, st.Claims,
	))
	return m, nil
}

func (m Model) handleSessionsListed(msg SessionsListedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendEntry("error", fmt.Sprintf("Sessions error: %v", msg.Err))
		return m, nil
	}
	if len(msg.Sessions) == 0 {
		m.appendEntry("system", "No governor sessions.")
		return m, nil
	}
	var sb strings.Builder
	sb.WriteString("Sessions:\n")
	current := m.session.GovernorSessionID()
	for _, s := range msg.Sessions {
		marker := "  "
		if s.ID == current {
			marker = "* "
		}
		fmt.Fprintf(&sb, "%s%s  %s  (updated %s)\n", marker, s.ID, s.Title, s.UpdatedAt)
	}
	m.appendEntry("system", strings.TrimRight(sb.String(), "\n"))
	return m, nil
}

func (m Model) handleSessionSwitched(msg SessionSwitchedMsg) (tea.Model, tea.Cmd) {
	if msg.Err != nil {
		m.appendEntry("error", fmt.Sprintf("Switch error: %v", msg.Err))
		return m, nil
	}
	// The local session is superseded wholesale: fresh draft, history, mode.
	m.session = session.New()
	m.session.BindGovernorSession(msg.Session.ID)
	m.appendEntry("system", fmt.Sprintf("Switched to session: %s (%s)", msg.Session.Title, msg.Session.ID))
	return m, nil
}

func (m Model) handleSessionDeleted(msg SessionDeletedMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Err != nil:
		m.appendEntry("error", fmt.Sprintf("Delete error: %v", msg.Err))
	case !msg.OK:
		m.appendEntry("warn", fmt.Sprintf("Session not deleted: %s", msg.ID))
	default:
		if m.session.GovernorSessionID() == msg.ID {
			m.session.BindGovernorSession("")
		}
		m.appendEntry("system", fmt.Sprintf("Deleted session: %s", msg.ID))
	}
	return m, nil
}

// --- commands ---------------------------------------------------------

func (m Model) helloCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		health, err := gov.Hello(context.Background())
		return HealthMsg{Health: health, Err: err}
	}
}

// bindSessionCmd resumes the most recent governor session or creates one.
func (m Model) bindSessionCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		sessions, err := gov.ListSessions(context.Background())
		if err != nil {
			return SessionReadyMsg{Err: err}
		}
		if len(sessions) > 0 {
			latest := sessions[0]
			return SessionReadyMsg{ID: latest.ID, Title: latest.Title, Resumed: true}
		}
		created, err := gov.CreateSession(context.Background(), "Maude session")
		if err != nil {
			return SessionReadyMsg{Err: err}
		}
		return SessionReadyMsg{ID: created.ID, Title: created.Title}
	}
}

func (m Model) newSessionCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		created, err := gov.CreateSession(context.Background(), "Maude session")
		if err != nil {
			return SessionSwitchedMsg{Err: err}
		}
		return SessionSwitchedMsg{Session: created}
	}
}

func (m Model) pollNowCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		now, err := gov.Now(context.Background())
		return NowUpdatedMsg{Now: now, Err: err}
	}
}

func (m Model) statusCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		st, err := gov.Status(context.Background())
		return StatusResultMsg{Status: st, Err: err}
	}
}

func (m Model) whyCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		now, err := gov.Now(context.Background())
		return WhyResultMsg{Now: now, Err: err}
	}
}

func (m Model) sessionsCmd() tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		sessions, err := gov.ListSessions(context.Background())
		return SessionsListedMsg{Sessions: sessions, Err: err}
	}
}

func (m Model) switchSessionCmd(ref string) tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		found, err := gov.GetSession(context.Background(), ref)
		return SessionSwitchedMsg{Session: found, Err: err}
	}
}

func (m Model) deleteSessionCmd(ref string) tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		ok, err := gov.DeleteSession(context.Background(), ref)
		return SessionDeletedMsg{ID: ref, OK: ok, Err: err}
	}
}

func (m Model) mirrorConstraintCmd(text string) tea.Cmd {
	gov := m.gov
	return func() tea.Msg {
		err := gov.AddConstraint(context.Background(), text, nil)
		if err != nil {
			logger.WarnCF("tui", "constraint mirror failed", map[string]any{"error": err.Error()})
		}
		return ConstraintMirroredMsg{Err: err}
	}
}

// chatCmd runs the streaming call in a goroutine, feeding the bridge.
func (m Model) chatCmd() tea.Cmd {
	gov := m.gov
	bridge := m.bridge
	messages := m.session.BuildChatRequest()

	return func() tea.Msg {
		stream, err := gov.ChatStream(context.Background(), messages, "")
		if err != nil {
			bridge.events <- streamEvent{err: err}
			return nil
		}
		for {
			fragment, err := stream.Recv()
			if err == io.EOF {
				bridge.events <- streamEvent{done: true, result: governor.ChatResultFrom(stream)}
				return nil
			}
			if err != nil {
				bridge.events <- streamEvent{err: err}
				return nil
			}
			bridge.events <- streamEvent{delta: fragment}
		}
	}
}

// --- rendering --------------------------------------------------------

func (m Model) renderHeader() string {
	title := "Maude"
	if name := m.settings.ProjectName(); name != "" {
		title += " — " + name
	}
	return userLabelStyle.Render(title)
}

func (m Model) renderStatusBar() string {
	text := m.session.StatusLine()
	style := statusBarOKStyle
	if now := m.session.LastNow(); now != nil {
		status := strings.ToLower(now.Status)
		switch {
		case strings.Contains(status, "violation") || strings.Contains(status, "blocked") || strings.Contains(status, "red"):
			style = statusBarViolationStyle
		case strings.Contains(status, "warn") || strings.Contains(status, "degraded"):
			style = statusBarWarnStyle
		}
	}
	return style.Width(m.width).Render(text)
}

func (m *Model) appendEntry(role, content string) {
	m.entries = append(m.entries, chatEntry{role: role, content: content})
	m.updateViewport()
}

func (m *Model) updateViewport() {
	if !m.ready {
		return
	}

	var sb strings.Builder
	for _, entry := range m.entries {
		sb.WriteString(m.renderEntry(entry))
	}

	if m.streaming && m.streamBuf != "" {
		label := assistantLabelStyle.Render("Assistant:")
		sb.WriteString(label + "\n" + m.streamBuf + "\n\n")
	}
	if m.thinking {
		frame := thinkingFrames[m.thinkFrame]
		sb.WriteString(thinkingStyle.Render(frame+" thinking...") + "\n")
	}

	m.viewport.SetContent(sb.String())
	m.viewport.GotoBottom()
}

func (m *Model) renderEntry(entry chatEntry) string {
	switch entry.role {
	case "user":
		return userLabelStyle.Render("You:") + " " + entry.content + "\n\n"
	case "assistant":
		rendered := entry.content
		if m.renderer != nil {
			if r, err := m.renderer.Render(entry.content); err == nil {
				rendered = strings.TrimSpace(r)
			}
		}
		return assistantLabelStyle.Render("Assistant:") + "\n" + rendered + "\n\n"
	case "error":
		return errorStyle.Render(entry.content) + "\n\n"
	case "success":
		return successStyle.Render(entry.content) + "\n\n"
	case "warn":
		return warnStyle.Render(entry.content) + "\n\n"
	default:
		return systemStyle.Render(entry.content) + "\n\n"
	}
}

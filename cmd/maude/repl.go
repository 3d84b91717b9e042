// Maude - governed chat client for the governor daemon
// License: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"

	"github.com/maudetui/maude/pkg/config"
	"github.com/maudetui/maude/pkg/governor"
	"github.com/maudetui/maude/pkg/intent"
	"github.com/maudetui/maude/pkg/session"
	"github.com/maudetui/maude/pkg/templates"
)

// runPlainREPL is the line-based fallback for terminals where the
// full-screen UI is unwanted (dumb terminals, scripts, logs).
func runPlainREPL(gov *governor.Client, settings config.Settings) error {
	defer gov.Close()

	sess := session.New()

	health, err := gov.Hello(context.Background())
	if err != nil {
		fmt.Printf("Governor unreachable: %v\n", err)
		fmt.Println("Chat commands will fail until the governor is available.")
	} else {
		fmt.Printf("Connected - backend=%s mode=%s context=%s\n",
			health.Backend.Type, health.Governor.Mode, health.Governor.ContextID)
		bindSession(gov, sess)
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "maude> ",
		HistoryFile:     filepath.Join(os.TempDir(), ".maude_history"),
		HistoryLimit:    100,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("initializing readline: %w", err)
	}
	defer rl.Close()

	fmt.Println("Type 'help' for commands, 'exit' to quit.")

	for {
		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt || err == io.EOF {
				fmt.Println("\nGoodbye!")
				return nil
			}
			fmt.Printf("Error reading input: %v\n", err)
			continue
		}

		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Goodbye!")
			return nil
		}

		sess = replDispatch(gov, sess, settings, input)
	}
}

func bindSession(gov *governor.Client, sess *session.Session) {
	sessions, err := gov.ListSessions(context.Background())
	if err != nil {
		fmt.Printf("Session init failed: %v\n", err)
		return
	}
	if len(sessions) > 0 {
		sess.BindGovernorSession(sessions[0].ID)
		fmt.Printf("Resumed session: %s (%s)\n", sessions[0].Title, sessions[0].ID)
		return
	}
	created, err := gov.CreateSession(context.Background(), "Maude session")
	if err != nil {
		fmt.Printf("Session init failed: %v\n", err)
		return
	}
	sess.BindGovernorSession(created.ID)
	fmt.Printf("Created session: %s\n", created.ID)
}

// replDispatch handles one input line and returns the active session, which
// a successful switch replaces wholesale.
func replDispatch(gov *governor.Client, sess *session.Session, settings config.Settings, input string) *session.Session {
	it := intent.Classify(input)

	switch it.Kind {
	case intent.KindHelp:
		fmt.Println(replHelp)

	case intent.KindStatus:
		st, err := gov.Status(context.Background())
		if err != nil {
			fmt.Printf("Status error: %v\n", err)
			return sess
		}
		fmt.Printf("context=%s mode=%s initialized=%v decisions=%d violations=%d claims=%d\n",
			st.ContextID, st.Mode, st.Initialized, st.Decisions, st.Violations, st.Claims)

	case intent.KindWhy:
		now, err := gov.Now(context.Background())
		if err != nil {
			fmt.Printf("Why error: %v\n", err)
			return sess
		}
		fmt.Printf("%s - %s\n", now.Status, now.Sentence)

	case intent.KindPlan:
		text := strings.TrimSpace(strings.TrimPrefix(strings.TrimPrefix(it.Payload, "plan "), "plan"))
		if text == "" {
			fmt.Println("Usage: plan <description>")
			return sess
		}
		sess.AppendSpec(text + "\n")
		fmt.Printf("Added to spec draft (%d chars)\n", len(sess.SpecDraft()))

	case intent.KindPlanTemplate:
		name, content, err := templates.Load(settings.TemplatesDir, it.Payload)
		if err != nil {
			fmt.Printf("Template error: %v\n", err)
			return sess
		}
		sess.LoadTemplate(name, content)
		fmt.Printf("Loaded %s template.\n", name)

	case intent.KindClearTemplate:
		sess.ClearTemplate()
		fmt.Println("Template cleared.")

	case intent.KindLockSpec:
		if sess.SpecDraft() == "" {
			fmt.Println("No spec draft to lock. Use 'plan <text>' first.")
			return sess
		}
		text := sess.LockSpec()
		fmt.Println("Spec locked.")
		if err := gov.AddConstraint(context.Background(), text, nil); err != nil {
			// Best-effort: the lock stands regardless.
			fmt.Printf("Constraint submission failed (spec stays locked locally): %v\n", err)
		}

	case intent.KindBuild:
		if err := sess.SetMode(session.ModeBuild); err != nil {
			fmt.Println(err)
			return sess
		}
		fmt.Println("Switched to BUILD mode.")

	case intent.KindShowSpec:
		draft := sess.SpecDraft()
		if draft == "" {
			fmt.Println("No spec draft yet. Use 'plan <text>' to start.")
			return sess
		}
		state := "(UNLOCKED)"
		if sess.SpecLocked() {
			state = "(LOCKED)"
		}
		fmt.Printf("Spec draft %s:\n%s\n", state, draft)

	case intent.KindShowDiff, intent.KindApply, intent.KindRollback:
		fmt.Println("Not available in plain mode yet.")

	case intent.KindSessionsList:
		sessions, err := gov.ListSessions(context.Background())
		if err != nil {
			fmt.Printf("Sessions error: %v\n", err)
			return sess
		}
		for _, s := range sessions {
			marker := "  "
			if s.ID == sess.GovernorSessionID() {
				marker = "* "
			}
			fmt.Printf("%s%s  %s\n", marker, s.ID, s.Title)
		}

	case intent.KindSwitchSession:
		found, err := gov.GetSession(context.Background(), it.Payload)
		if err != nil {
			fmt.Printf("Switch error: %v\n", err)
			return sess
		}
		sess = session.New()
		sess.BindGovernorSession(found.ID)
		fmt.Printf("Switched to session: %s (%s)\n", found.Title, found.ID)

	case intent.KindDeleteSession:
		ok, err := gov.DeleteSession(context.Background(), it.Payload)
		if err != nil {
			fmt.Printf("Delete error: %v\n", err)
			return sess
		}
		if !ok {
			fmt.Printf("Session not deleted: %s\n", it.Payload)
			return sess
		}
		fmt.Printf("Deleted session: %s\n", it.Payload)

	default:
		replChat(gov, sess, it.Payload)
	}
	return sess
}

// replChat runs one streaming chat turn, printing fragments as they arrive.
func replChat(gov *governor.Client, sess *session.Session, text string) {
	sess.AddMessage("user", text)

	stream, err := gov.ChatStream(context.Background(), sess.BuildChatRequest(), "")
	if err != nil {
		fmt.Printf("Chat error: %v\n", err)
		return
	}

	var full strings.Builder
	for {
		fragment, err := stream.Recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			fmt.Printf("\nChat error: %v\n", err)
			return
		}
		fmt.Print(fragment)
		full.WriteString(fragment)
	}
	fmt.Println()

	if full.Len() > 0 {
		sess.AddMessage("assistant", full.String())
	}
}

const replHelp = `Commands:
  plan <text>          add to the spec draft
  plan architecture    load a planning template (arch, product, requirements)
  clear template       unload the current template
  lock spec            lock the current spec draft
  build                switch to BUILD mode (requires locked spec)
  show spec            show the current spec draft
  why                  show why something is blocked
  status               show governor status
  sessions             list governor sessions
  switch <id>          switch to another session
  delete session <id>  delete a session
  help / ?             show this help
  exit                 quit
Anything else is sent to the model via the governor.`

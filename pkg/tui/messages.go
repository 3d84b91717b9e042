// Maude - governed chat client for the governor daemon
// License: MIT

package tui

import "github.com/maudetui/maude/pkg/governor"

// HealthMsg carries the handshake result shown at startup.
type HealthMsg struct {
	Health governor.Health
	Err    error
}

// SessionReadyMsg reports the remote session this conversation was bound
// to, either resumed or freshly created.
type SessionReadyMsg struct {
	ID      string
	Title   string
	Resumed bool
	Err     error
}

// NowUpdatedMsg carries a background status poll result.
type NowUpdatedMsg struct {
	Now governor.Now
	Err error
}

// StatusResultMsg carries the response to an explicit "status" command.
type StatusResultMsg struct {
	Status governor.Status
	Err    error
}

// WhyResultMsg carries the response to a "why" command.
type WhyResultMsg struct {
	Now governor.Now
	Err error
}

// SessionsListedMsg carries the response to "sessions".
type SessionsListedMsg struct {
	Sessions []governor.SessionSummary
	Err      error
}

// SessionSwitchedMsg reports an attempt to switch to another session.
type SessionSwitchedMsg struct {
	Session governor.SessionSummary
	Err     error
}

// SessionDeletedMsg reports an attempt to delete a session.
type SessionDeletedMsg struct {
	ID  string
	OK  bool
	Err error
}

// ConstraintMirroredMsg reports the best-effort submission of locked spec
// text to the daemon. A failure here is informational: the local lock has
// already happened and stays.
type ConstraintMirroredMsg struct {
	Err error
}

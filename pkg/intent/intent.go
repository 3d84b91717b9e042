// Maude - governed chat client for the governor daemon
// License: MIT

// Package intent maps raw input lines to structured commands. Matching is
// first-match-wins over an ordered rule list, case-insensitive, and
// anchored so short keywords do not fire inside longer free text.
package intent

import (
	"regexp"
	"strings"
)

// Kind identifies the structured command a line was classified as.
type Kind string

const (
	KindHelp          Kind = "help"
	KindStatus        Kind = "status"
	KindPlan          Kind = "plan"
	KindPlanTemplate  Kind = "plan-template"
	KindLockSpec      Kind = "lock-spec"
	KindBuild         Kind = "build"
	KindShowSpec      Kind = "show-spec"
	KindWhy           Kind = "why"
	KindSessionsList  Kind = "sessions-list"
	KindSwitchSession Kind = "switch-session"
	KindDeleteSession Kind = "delete-session"
	KindShowDiff      Kind = "show-diff"
	KindApply         Kind = "apply"
	KindRollback      Kind = "rollback"
	KindClearTemplate Kind = "clear-template"
	KindChat          Kind = "chat"
)

// Intent is the classification of one input line. Produced fresh per line,
// never persisted.
type Intent struct {
	Kind    Kind
	Payload string
}

// templateAliases are the planning forms that select a template instead of
// freeform planning. The alias wins only on an exact match of the text
// after "plan ".
var templateAliases = map[string]bool{
	"architecture":   true,
	"arch":           true,
	"product":        true,
	"product design": true,
	"requirements":   true,
	"reqs":           true,
}

type rule struct {
	pattern *regexp.Regexp
	kind    Kind
	// refGroup marks rules whose capture group 1 is the payload (a session
	// reference); for all others the payload is the whole trimmed line.
	refGroup bool
}

var rules = []rule{
	{pattern: regexp.MustCompile(`(?i)^plan\b`), kind: KindPlan},
	{pattern: regexp.MustCompile(`(?i)^let'?s plan\b`), kind: KindPlan},
	{pattern: regexp.MustCompile(`(?i)^lock spec$`), kind: KindLockSpec},
	{pattern: regexp.MustCompile(`(?i)^freeze spec$`), kind: KindLockSpec},
	{pattern: regexp.MustCompile(`(?i)^build$`), kind: KindBuild},
	{pattern: regexp.MustCompile(`(?i)^implement$`), kind: KindBuild},
	{pattern: regexp.MustCompile(`(?i)^do it$`), kind: KindBuild},
	{pattern: regexp.MustCompile(`(?i)^show spec$`), kind: KindShowSpec},
	{pattern: regexp.MustCompile(`(?i)^spec$`), kind: KindShowSpec},
	{pattern: regexp.MustCompile(`(?i)^show diff$`), kind: KindShowDiff},
	{pattern: regexp.MustCompile(`(?i)^diff$`), kind: KindShowDiff},
	{pattern: regexp.MustCompile(`(?i)^apply$`), kind: KindApply},
	{pattern: regexp.MustCompile(`(?i)^merge$`), kind: KindApply},
	{pattern: regexp.MustCompile(`(?i)^rollback$`), kind: KindRollback},
	{pattern: regexp.MustCompile(`(?i)^undo$`), kind: KindRollback},
	{pattern: regexp.MustCompile(`(?i)^why\b`), kind: KindWhy},
	{pattern: regexp.MustCompile(`(?i)^blocked$`), kind: KindWhy},
	{pattern: regexp.MustCompile(`(?i)^status$`), kind: KindStatus},
	{pattern: regexp.MustCompile(`(?i)^state$`), kind: KindStatus},
	{pattern: regexp.MustCompile(`(?i)^help$`), kind: KindHelp},
	{pattern: regexp.MustCompile(`^\?$`), kind: KindHelp},
	{pattern: regexp.MustCompile(`(?i)^clear template$`), kind: KindClearTemplate},
	{pattern: regexp.MustCompile(`(?i)^sessions$`), kind: KindSessionsList},
	{pattern: regexp.MustCompile(`(?i)^list sessions$`), kind: KindSessionsList},
	{pattern: regexp.MustCompile(`(?i)^sessions list$`), kind: KindSessionsList},
	// Session references require a non-empty argument: the bare keyword
	// falls through to freeform chat.
	{pattern: regexp.MustCompile(`(?i)^(?:delete session|rm session)\s+(\S.*)$`), kind: KindDeleteSession, refGroup: true},
	{pattern: regexp.MustCompile(`(?i)^(?:switch|session|resume)\s+(\S.*)$`), kind: KindSwitchSession, refGroup: true},
}

// Classify maps one input line to an Intent. Input matching no rule is
// freeform chat carrying the trimmed original text.
func Classify(text string) Intent {
	stripped := strings.TrimSpace(text)

	// Template planning wins over freeform planning only on an exact alias
	// match of the payload after "plan ".
	lower := strings.ToLower(stripped)
	if rest, ok := strings.CutPrefix(lower, "plan "); ok && templateAliases[rest] {
		return Intent{Kind: KindPlanTemplate, Payload: rest}
	}

	for _, r := range rules {
		m := r.pattern.FindStringSubmatch(stripped)
		if m == nil {
			continue
		}
		if r.refGroup {
			return Intent{Kind: r.kind, Payload: strings.TrimSpace(m[1])}
		}
		return Intent{Kind: r.kind, Payload: stripped}
	}
	return Intent{Kind: KindChat, Payload: stripped}
}

package intent

import (
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		input   string
		kind    Kind
		payload string
	}{
		// Template planning: exact alias after "plan ".
		{"plan architecture", KindPlanTemplate, "architecture"},
		{"plan arch", KindPlanTemplate, "arch"},
		{"plan product", KindPlanTemplate, "product"},
		{"plan product design", KindPlanTemplate, "product design"},
		{"plan requirements", KindPlanTemplate, "requirements"},
		{"plan reqs", KindPlanTemplate, "reqs"},
		{"PLAN ARCHITECTURE", KindPlanTemplate, "architecture"},

		// Freeform planning keeps the whole line as payload.
		{"plan build a REST API", KindPlan, "plan build a REST API"},
		{"plan", KindPlan, "plan"},
		{"plan architecture for the billing service", KindPlan, "plan architecture for the billing service"},
		{"let's plan the rollout", KindPlan, "let's plan the rollout"},
		{"lets plan the rollout", KindPlan, "lets plan the rollout"},

		{"lock spec", KindLockSpec, "lock spec"},
		{"freeze spec", KindLockSpec, "freeze spec"},
		{"LOCK SPEC", KindLockSpec, "LOCK SPEC"},

		{"build", KindBuild, "build"},
		{"implement", KindBuild, "implement"},
		{"do it", KindBuild, "do it"},
		// Anchoring: "build" inside free text is chat, not a command.
		{"we should build something", KindChat, "we should build something"},

		{"show spec", KindShowSpec, "show spec"},
		{"spec", KindShowSpec, "spec"},
		{"show diff", KindShowDiff, "show diff"},
		{"diff", KindShowDiff, "diff"},
		{"apply", KindApply, "apply"},
		{"merge", KindApply, "merge"},
		{"rollback", KindRollback, "rollback"},
		{"undo", KindRollback, "undo"},
		{"why", KindWhy, "why"},
		{"why is this blocked", KindWhy, "why is this blocked"},
		{"blocked", KindWhy, "blocked"},
		{"status", KindStatus, "status"},
		{"state", KindStatus, "state"},
		{"help", KindHelp, "help"},
		{"?", KindHelp, "?"},
		{"clear template", KindClearTemplate, "clear template"},

		{"sessions", KindSessionsList, "sessions"},
		{"list sessions", KindSessionsList, "list sessions"},
		{"sessions list", KindSessionsList, "sessions list"},

		// Session references require an argument.
		{"switch sess-42", KindSwitchSession, "sess-42"},
		{"session sess-42", KindSwitchSession, "sess-42"},
		{"resume sess-42", KindSwitchSession, "sess-42"},
		{"delete session sess-42", KindDeleteSession, "sess-42"},
		{"rm session sess-42", KindDeleteSession, "sess-42"},

		// Bare keywords fall through to chat, not a usage error.
		{"switch", KindChat, "switch"},
		{"resume", KindChat, "resume"},
		{"session", KindChat, "session"},
		{"delete session", KindChat, "delete session"},

		// Everything else is chat with the trimmed original text.
		{"  hello there  ", KindChat, "hello there"},
		{"what is the current policy?", KindChat, "what is the current policy?"},
		{"", KindChat, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := Classify(tt.input)
			if got.Kind != tt.kind {
				t.Errorf("Classify(%q).Kind = %q, want %q", tt.input, got.Kind, tt.kind)
			}
			if got.Payload != tt.payload {
				t.Errorf("Classify(%q).Payload = %q, want %q", tt.input, got.Payload, tt.payload)
			}
		})
	}
}

package governor

import (
	"encoding/json"
)

// Health is the adapted view of the governor.hello response.
type Health struct {
	Status   string
	Backend  Backend
	Governor Info
}

type Backend struct {
	Type      string
	Connected bool
}

type Info struct {
	ContextID   string
	Mode        string
	Initialized bool
}

// SessionSummary is one entry of sessions.list.
type SessionSummary struct {
	ID        string
	ContextID string
	Title     string
	CreatedAt string
	UpdatedAt string
}

// Now is the short governor status: a machine pill plus a human sentence.
type Now struct {
	Status   string
	Sentence string
	Regime   string
}

// Status is the fuller governor.status view.
type Status struct {
	ContextID   string
	Mode        string
	Initialized bool
	Decisions   int
	Violations  int
	Claims      int
}

// ChatResult is the completion metadata on a chat stream's terminal result.
type ChatResult struct {
	FinishReason string `json:"finish_reason"`
	Model        string `json:"model,omitempty"`
	Usage        *Usage `json:"usage,omitempty"`
}

type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ModelInfo describes one backend model from chat.models.
type ModelInfo struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// capsule is a loosely-typed daemon payload. The daemon's session and
// status shapes nest metadata one level down; the adapters below flatten
// them into the client views.
type capsule map[string]any

func decodeCapsule(raw json.RawMessage) capsule {
	var c capsule
	if len(raw) == 0 {
		return capsule{}
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return capsule{}
	}
	return c
}

func (c capsule) str(key string) string {
	s, _ := c[key].(string)
	return s
}

func (c capsule) boolean(key string) bool {
	b, _ := c[key].(bool)
	return b
}

func (c capsule) child(key string) capsule {
	m, _ := c[key].(map[string]any)
	return capsule(m)
}

func (c capsule) list(key string) []any {
	l, _ := c[key].([]any)
	return l
}

// adaptHealth flattens a governor.hello payload.
func adaptHealth(raw json.RawMessage) Health {
	hello := decodeCapsule(raw)
	caps := hello.child("capabilities")
	backend := caps.child("backend")
	gov := hello.child("governor")

	status := "degraded"
	if gov.boolean("initialized") {
		status = "ok"
	}
	backendType := backend.str("type")
	if backendType == "" {
		backendType = "unknown"
	}
	contextID := gov.str("context_id")
	if contextID == "" {
		contextID = "default"
	}
	mode := gov.str("mode")
	if mode == "" {
		mode = "general"
	}

	return Health{
		Status:  status,
		Backend: Backend{Type: backendType, Connected: backend.boolean("connected")},
		Governor: Info{
			ContextID:   contextID,
			Mode:        mode,
			Initialized: gov.boolean("initialized"),
		},
	}
}

// adaptSessionSummary flattens a daemon session capsule. Metadata may be
// nested under "metadata" or inline.
func adaptSessionSummary(c capsule) SessionSummary {
	meta := c.child("metadata")
	if len(meta) == 0 {
		meta = c
	}
	title := meta.str("name")
	if title == "" {
		title = "Untitled"
	}
	contextID := meta.str("context_id")
	if contextID == "" {
		contextID = "default"
	}
	updated := meta.str("updated_at")
	if updated == "" {
		updated = meta.str("created_at")
	}
	return SessionSummary{
		ID:        meta.str("session_id"),
		ContextID: contextID,
		Title:     title,
		CreatedAt: meta.str("created_at"),
		UpdatedAt: updated,
	}
}

// adaptNow flattens a governor.now payload.
func adaptNow(raw json.RawMessage) Now {
	now := decodeCapsule(raw)
	pill := now.str("pill")
	if pill == "" {
		pill = "UNKNOWN"
	}
	return Now{
		Status:   pill,
		Sentence: now.str("sentence"),
		Regime:   now.str("regime"),
	}
}

// adaptStatus flattens a governor.status payload, counting the viewmodel
// collections.
func adaptStatus(raw json.RawMessage) Status {
	st := decodeCapsule(raw)
	vm := st.child("viewmodel")
	contextID := st.str("context_id")
	if contextID == "" {
		contextID = "default"
	}
	return Status{
		ContextID:   contextID,
		Mode:        st.str("mode"),
		Initialized: st.boolean("initialized"),
		Decisions:   len(vm.list("decisions")),
		Violations:  len(vm.list("violations")),
		Claims:      len(vm.list("claims")),
	}
}

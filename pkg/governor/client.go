// Maude - governed chat client for the governor daemon
// License: MIT

// Package governor is the typed API surface of the daemon: handshake,
// session management, governed chat, status queries, and constraint
// submission, all issued through the rpc correlation engine.
package governor

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/maudetui/maude/pkg/protocol"
	"github.com/maudetui/maude/pkg/rpc"
	"github.com/maudetui/maude/pkg/session"
)

// Client issues governor RPCs. It shares the single-outstanding-call
// discipline of the underlying rpc.Client, so the background status poll
// and user-initiated calls serialize instead of colliding.
type Client struct {
	rpc       *rpc.Client
	contextID string
	mode      string
	label     string
	clientID  string
}

// NewClient wraps an rpc client. contextID and mode identify the governor
// context this client drives; label is a free-form client tag.
func NewClient(rpcClient *rpc.Client, contextID, mode, label string) *Client {
	return &Client{
		rpc:       rpcClient,
		contextID: contextID,
		mode:      mode,
		label:     label,
		clientID:  uuid.NewString(),
	}
}

// Close tears down the underlying connection.
func (c *Client) Close() error { return c.rpc.Close() }

// Connected reports whether a daemon connection is currently live.
func (c *Client) Connected() bool { return c.rpc.Connected() }

// Hello performs the handshake and returns the adapted health view.
func (c *Client) Hello(ctx context.Context) (Health, error) {
	result, err := c.rpc.Call(ctx, "governor.hello", map[string]any{
		"client":    "maude",
		"client_id": c.clientID,
		"label":     c.label,
	})
	if err != nil {
		return Health{}, err
	}
	return adaptHealth(result), nil
}

// ListSessions returns the daemon's sessions, most recent first.
func (c *Client) ListSessions(ctx context.Context) ([]SessionSummary, error) {
	result, err := c.rpc.Call(ctx, "sessions.list", nil)
	if err != nil {
		return nil, err
	}
	var capsules []capsule
	if err := json.Unmarshal(result, &capsules); err != nil {
		return nil, fmt.Errorf("governor: decode sessions.list: %w", err)
	}
	out := make([]SessionSummary, 0, len(capsules))
	for _, c := range capsules {
		out = append(out, adaptSessionSummary(c))
	}
	return out, nil
}

// CreateSession creates a remote session with the given title.
func (c *Client) CreateSession(ctx context.Context, title string) (SessionSummary, error) {
	result, err := c.rpc.Call(ctx, "sessions.create", map[string]any{"title": title})
	if err != nil {
		return SessionSummary{}, err
	}
	return adaptSessionSummary(decodeCapsule(result)), nil
}

// GetSession fetches one session by id.
func (c *Client) GetSession(ctx context.Context, id string) (SessionSummary, error) {
	result, err := c.rpc.Call(ctx, "sessions.get", map[string]any{"id": id})
	if err != nil {
		return SessionSummary{}, err
	}
	if string(result) == "null" || len(result) == 0 {
		return SessionSummary{}, fmt.Errorf("governor: session not found: %s", id)
	}
	return adaptSessionSummary(decodeCapsule(result)), nil
}

// DeleteSession removes a remote session. Returns the daemon's success flag.
func (c *Client) DeleteSession(ctx context.Context, id string) (bool, error) {
	result, err := c.rpc.Call(ctx, "sessions.delete", map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return decodeCapsule(result).boolean("success"), nil
}

// ChatStream starts a governed chat turn. Fragments arrive on the returned
// stream; the terminal result is available from the stream once drained.
func (c *Client) ChatStream(ctx context.Context, messages []session.ChatMessage, model string) (*rpc.Stream, error) {
	return c.rpc.CallStreaming(ctx, "chat.stream", map[string]any{
		"messages":   messages,
		"model":      model,
		"context_id": c.contextID,
	}, protocol.MethodChatDelta)
}

// ChatResult decodes a drained stream's terminal payload.
func ChatResultFrom(s *rpc.Stream) ChatResult {
	var result ChatResult
	if raw := s.Result(); len(raw) > 0 {
		_ = json.Unmarshal(raw, &result)
	}
	return result
}

// ChatSend is the non-streaming chat call.
func (c *Client) ChatSend(ctx context.Context, messages []session.ChatMessage, model string) (json.RawMessage, error) {
	return c.rpc.Call(ctx, "chat.send", map[string]any{
		"messages":   messages,
		"model":      model,
		"context_id": c.contextID,
	})
}

// Models lists the backend's available models.
func (c *Client) Models(ctx context.Context) ([]ModelInfo, error) {
	result, err := c.rpc.Call(ctx, "chat.models", nil)
	if err != nil {
		return nil, err
	}
	var payload struct {
		Models []ModelInfo `json:"models"`
	}
	if err := json.Unmarshal(result, &payload); err != nil {
		return nil, fmt.Errorf("governor: decode chat.models: %w", err)
	}
	return payload.Models, nil
}

// Now returns the short governor status used by the status bar and the
// "why" command.
func (c *Client) Now(ctx context.Context) (Now, error) {
	result, err := c.rpc.Call(ctx, "governor.now", nil)
	if err != nil {
		return Now{}, err
	}
	return adaptNow(result), nil
}

// Status returns the fuller governor state view.
func (c *Client) Status(ctx context.Context) (Status, error) {
	result, err := c.rpc.Call(ctx, "governor.status", nil)
	if err != nil {
		return Status{}, err
	}
	return adaptStatus(result), nil
}

// AddConstraint submits locked spec text as a governed constraint. Callers
// treat this as best-effort: a failure here never rolls back local state.
func (c *Client) AddConstraint(ctx context.Context, text string, patterns []string) error {
	params := map[string]any{"constraint": text}
	if len(patterns) > 0 {
		params["patterns"] = patterns
	}
	_, err := c.rpc.Call(ctx, "constraints.add", params)
	return err
}

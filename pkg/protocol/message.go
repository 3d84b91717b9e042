// Maude - governed chat client for the governor daemon
// License: MIT

package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the protocol version tag carried by every message.
const Version = "2.0"

// Wire contract constants shared with the daemon. The streaming chat call
// pushes incremental text under MethodChatDelta notifications; each carries
// the fragment in the ContentField of its params.
const (
	MethodChatDelta = "chat.delta"
	ContentField    = "content"
)

// Message is one JSON-RPC frame: request, response, or notification.
// A message with an ID but no method is a response; one with a method but
// no ID is a notification; an outbound request carries both.
type Message struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      *int64          `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *ErrorObject    `json:"error,omitempty"`
}

// ErrorObject is the error member of a failed response.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *ErrorObject) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// IsNotification reports whether m is an asynchronous push from the daemon.
func (m *Message) IsNotification() bool {
	return m.ID == nil && m.Method != ""
}

// IsResponse reports whether m terminates an outstanding request.
func (m *Message) IsResponse() bool {
	return m.ID != nil && m.Method == ""
}

// NewRequest builds an outbound request. Params are marshaled immediately so
// an encoding failure surfaces at call time, not inside the write path.
func NewRequest(id int64, method string, params any) (*Message, error) {
	raw, err := marshalParams(params)
	if err != nil {
		return nil, fmt.Errorf("marshal params for %s: %w", method, err)
	}
	return &Message{
		JSONRPC: Version,
		ID:      &id,
		Method:  method,
		Params:  raw,
	}, nil
}

// ParamString extracts a string field from a notification's params.
// Returns "" when params are absent or the field is missing.
func (m *Message) ParamString(field string) string {
	if len(m.Params) == 0 {
		return ""
	}
	var params map[string]json.RawMessage
	if err := json.Unmarshal(m.Params, &params); err != nil {
		return ""
	}
	var s string
	if err := json.Unmarshal(params[field], &s); err != nil {
		return ""
	}
	return s
}

func marshalParams(params any) (json.RawMessage, error) {
	if params == nil {
		return json.RawMessage(`{}`), nil
	}
	return json.Marshal(params)
}

package core

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Role identifies the author of a message in the conversation log.
type Role string

const (
	// RoleSystem is the instruction message injected once per thread.
	RoleSystem Role = "system"
	// RoleUser marks caller supplied input.
	RoleUser Role = "user"
	// RoleAssistant marks reasoning backend output (plain text or capability calls).
	RoleAssistant Role = "assistant"
	// RoleResult marks the outcome of a single capability call.
	RoleResult Role = "capability_result"
)

// Status is the structured outcome of a capability call. It is decided at the
// capability boundary, never inferred from free text downstream.
type Status string

const (
	// StatusOK indicates the capability completed successfully.
	StatusOK Status = "ok"
	// StatusError indicates the capability failed or was unknown.
	StatusError Status = "error"
)

// CapabilityCall describes a single capability invocation requested by the
// reasoning backend. Arguments carry the serialized JSON argument payload as
// produced by the backend; the dispatcher decodes and validates them.
type CapabilityCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments,omitempty"`
}

// Message is one entry in a conversation log. Messages are immutable once
// appended: nodes construct new messages and return them as deltas.
//
// Field presence is role dependent:
//   - CapabilityCalls is set only on assistant messages requesting capabilities
//   - CallID, CapabilityName and Status are set only on capability_result messages
type Message struct {
	Role            Role             `json:"role"`
	Content         string           `json:"content,omitempty"`
	CapabilityCalls []CapabilityCall `json:"capability_calls,omitempty"`
	CallID          string           `json:"call_id,omitempty"`
	CapabilityName  string           `json:"capability_name,omitempty"`
	Status          Status           `json:"status,omitempty"`
}

// NewSystemMessage creates the per-thread instruction message.
func NewSystemMessage(text string) Message {
	return Message{Role: RoleSystem, Content: text}
}

// NewUserMessage creates a user-authored text message.
func NewUserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// NewAssistantMessage creates a plain (terminal) assistant response.
func NewAssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// NewCapabilityCallMessage creates an assistant message requesting the given
// capability calls. The request order is preserved and later mirrored by the
// result messages the dispatcher produces.
func NewCapabilityCallMessage(text string, calls ...CapabilityCall) Message {
	return Message{Role: RoleAssistant, Content: text, CapabilityCalls: calls}
}

// NewResultMessage records the completion of a capability call. On success the
// payload is JSON serialized into Content; on failure the error text becomes
// Content and Status is set to StatusError.
func NewResultMessage(call CapabilityCall, payload any, err error) Message {
	m := Message{
		Role:           RoleResult,
		CallID:         call.ID,
		CapabilityName: call.Name,
		Status:         StatusOK,
	}
	if err != nil {
		m.Status = StatusError
		m.Content = err.Error()
		return m
	}
	m.Content = marshalPayload(payload)
	return m
}

// marshalPayload renders a capability result payload as a JSON string, falling
// back to fmt formatting for values encoding/json cannot handle.
func marshalPayload(payload any) string {
	switch v := payload.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(b)
	}
}

// NewCallID generates a unique identifier for capability calls issued locally
// (backends normally supply their own ids).
func NewCallID() string { return uuid.NewString() }

// HasCapabilityCalls reports whether this assistant message requests
// capabilities, i.e. whether the turn is not terminal.
func (m Message) HasCapabilityCalls() bool {
	return m.Role == RoleAssistant && len(m.CapabilityCalls) > 0
}

// IsFinal reports whether this message terminates the reasoning loop: a plain
// assistant response with no pending capability calls.
func (m Message) IsFinal() bool {
	return m.Role == RoleAssistant && len(m.CapabilityCalls) == 0
}

// IsError reports whether this is a failed capability result.
func (m Message) IsError() bool {
	return m.Role == RoleResult && m.Status == StatusError
}

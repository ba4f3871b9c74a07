package testutil

import (
	"github.com/hupe1980/threadflow/core"
)

// StateBuilder helps construct conversation states with fluent chaining for tests.
// Example:
//
//	state := NewStateBuilder("thread-1").User("hi").Assistant("hello").Build()
type StateBuilder struct {
	threadID string
	version  int64
	messages []core.Message
}

// NewStateBuilder creates a new builder for a conversation state with the given thread id.
// Use chainable methods (System, User, Assistant, Calls, Result, Message) then call Build.
func NewStateBuilder(threadID string) *StateBuilder {
	return &StateBuilder{threadID: threadID}
}

// Version sets the checkpoint version on the resulting state (chainable).
func (b *StateBuilder) Version(v int64) *StateBuilder {
	b.version = v
	return b
}

// System appends a system message to the transcript (chainable).
func (b *StateBuilder) System(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewSystemMessage(text))
	return b
}

// User appends a user message to the transcript (chainable).
func (b *StateBuilder) User(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewUserMessage(text))
	return b
}

// Assistant appends a plain assistant message to the transcript (chainable).
func (b *StateBuilder) Assistant(text string) *StateBuilder {
	b.messages = append(b.messages, core.NewAssistantMessage(text))
	return b
}

// Calls appends an assistant message carrying the given capability calls (chainable).
func (b *StateBuilder) Calls(calls ...core.CapabilityCall) *StateBuilder {
	b.messages = append(b.messages, core.NewCapabilityCallMessage("", calls...))
	return b
}

// Result appends a successful capability result for the given call (chainable).
func (b *StateBuilder) Result(call core.CapabilityCall, payload any) *StateBuilder {
	b.messages = append(b.messages, core.NewResultMessage(call, payload, nil))
	return b
}

// Message appends an arbitrary message to the transcript (chainable).
func (b *StateBuilder) Message(msg core.Message) *StateBuilder {
	b.messages = append(b.messages, msg)
	return b
}

// Build returns a *core.ConversationState with the accumulated transcript.
func (b *StateBuilder) Build() *core.ConversationState {
	s := core.NewConversationState(b.threadID)
	s.Version = b.version
	s.Messages = append(s.Messages, b.messages...)

	return s
}

// Call constructs a capability call with a deterministic id, handy when a
// test needs to match calls against results.
func Call(id, name, arguments string) core.CapabilityCall {
	return core.CapabilityCall{ID: id, Name: name, Arguments: arguments}
}

package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConversationState_LastMessage(t *testing.T) {
	state := NewConversationState("t1")
	assert.True(t, state.Empty())

	_, ok := state.LastMessage()
	assert.False(t, ok)

	state.Messages = Reduce(state.Messages, []Message{NewUserMessage("hi"), NewAssistantMessage("hello")})

	last, ok := state.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, RoleAssistant, last.Role)
	assert.Equal(t, "hello", last.Content)
}

func TestConversationState_Clone(t *testing.T) {
	state := NewConversationState("t1")
	state.Version = 3
	state.Messages = []Message{
		NewCapabilityCallMessage("", CapabilityCall{ID: "c1", Name: "lookup", Arguments: `{}`}),
	}

	clone := state.Clone()
	assert.Equal(t, state.ThreadID, clone.ThreadID)
	assert.Equal(t, state.Version, clone.Version)
	assert.Equal(t, state.Messages, clone.Messages)

	// Appending to or replacing clone messages must not leak back.
	clone.Messages = append(clone.Messages, NewAssistantMessage("extra"))
	clone.Messages[0] = NewAssistantMessage("replaced")
	clone.Version = 9
	assert.Len(t, state.Messages, 1)
	assert.Equal(t, "lookup", state.Messages[0].CapabilityCalls[0].Name)
	assert.Equal(t, int64(3), state.Version)
}

func TestReduce_Concatenation(t *testing.T) {
	existing := []Message{NewUserMessage("one")}
	incoming := []Message{NewAssistantMessage("two"), NewAssistantMessage("three")}

	merged := Reduce(existing, incoming)

	assert.Len(t, merged, 3)
	assert.Equal(t, "one", merged[0].Content)
	assert.Equal(t, "two", merged[1].Content)
	assert.Equal(t, "three", merged[2].Content)

	// The inputs stay untouched.
	assert.Len(t, existing, 1)
}

func TestReduce_EmptyDelta(t *testing.T) {
	existing := []Message{NewUserMessage("one")}
	merged := Reduce(existing, nil)
	assert.Len(t, merged, 1)

	merged = Reduce(nil, []Message{NewUserMessage("first")})
	assert.Len(t, merged, 1)
}

func TestReduce_NeverDropsOrReorders(t *testing.T) {
	var log []Message
	for _, text := range []string{"a", "b", "c", "d"} {
		log = Reduce(log, []Message{NewUserMessage(text)})
	}

	assert.Len(t, log, 4)
	for i, want := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, want, log[i].Content)
	}
}

package core

// ConversationState is the versioned, append-only message log owned by exactly
// one thread. It is passed by value between executor steps: nodes never mutate
// it, they return message deltas that the executor folds in with Reduce.
//
// Contract:
//   - Messages are never edited or removed, only appended
//   - The first message, if any, has RoleSystem and is inserted exactly once
//   - Version increases by one with every successful ThreadStore.Save
type ConversationState struct {
	ThreadID string    `json:"thread_id"`
	Messages []Message `json:"messages"`
	Version  int64     `json:"version"`
}

// NewConversationState creates an empty state for a thread observed for the
// first time. Version zero marks a state that has never been persisted.
func NewConversationState(threadID string) *ConversationState {
	return &ConversationState{ThreadID: threadID}
}

// Empty reports whether the thread has no history yet.
func (s *ConversationState) Empty() bool { return len(s.Messages) == 0 }

// LastMessage returns the most recent message and whether one exists.
func (s *ConversationState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Clone returns a deep copy safe for independent mutation. Message values are
// immutable by convention so the contained slices are not copied further.
func (s *ConversationState) Clone() *ConversationState {
	clone := &ConversationState{
		ThreadID: s.ThreadID,
		Messages: make([]Message, len(s.Messages)),
		Version:  s.Version,
	}
	copy(clone.Messages, s.Messages)
	return clone
}

// Reduce merges a batch of new messages into an existing ordered log by strict
// concatenation: no deduplication, no reordering. This is the only place new
// messages enter a log; every node returns only the delta it produced and the
// executor applies the reducer.
func Reduce(existing, incoming []Message) []Message {
	if len(incoming) == 0 {
		return existing
	}
	merged := make([]Message, 0, len(existing)+len(incoming))
	merged = append(merged, existing...)
	merged = append(merged, incoming...)
	return merged
}

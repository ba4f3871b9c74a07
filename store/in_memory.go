package store

import (
	"context"
	"sync"

	"github.com/hupe1980/threadflow/core"
)

// InMemoryStore is a volatile ThreadStore implementation keeping conversation
// state in a process local map. It is safe for concurrent access and best
// suited for tests or ephemeral demo servers. Loaded and saved states are
// cloned to prevent external mutation of internal state.
type InMemoryStore struct {
	mu      sync.RWMutex
	threads map[string]*core.ConversationState
}

// NewInMemoryStore constructs an empty in-memory thread store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{threads: make(map[string]*core.ConversationState)}
}

// Load returns a clone of the stored state, or a fresh empty state at version
// zero for a thread never persisted. Load never creates durable state.
func (s *InMemoryStore) Load(_ context.Context, threadID string) (*core.ConversationState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if state, ok := s.threads[threadID]; ok {
		return state.Clone(), nil
	}
	return core.NewConversationState(threadID), nil
}

// Save stores a clone of the state if the current stored version matches
// expectedVersion (a missing thread counts as version zero) and returns the
// new version. A mismatch returns core.ErrVersionConflict.
func (s *InMemoryStore) Save(_ context.Context, state *core.ConversationState, expectedVersion int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(0)
	if existing, ok := s.threads[state.ThreadID]; ok {
		current = existing.Version
	}
	if current != expectedVersion {
		return 0, core.ErrVersionConflict
	}

	clone := state.Clone()
	clone.Version = expectedVersion + 1
	s.threads[state.ThreadID] = clone
	return clone.Version, nil
}

// Len returns the number of persisted threads.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.threads)
}

// Interface compliance (compile-time assertion)
var _ core.ThreadStore = (*InMemoryStore)(nil)

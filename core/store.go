package core

import (
	"context"
	"errors"
	"fmt"
)

// ErrVersionConflict is returned by ThreadStore.Save when the stored version
// does not match the caller's expectation, i.e. another writer checkpointed
// the thread in between. The caller decides whether to retry the whole turn.
var ErrVersionConflict = errors.New("thread version conflict")

// StoreError wraps a backing-store fault (connection loss, serialization
// failure). It is surfaced to the caller as a terminal failure for the turn
// and is not retried internally.
type StoreError struct {
	Op       string // "load" or "save"
	ThreadID string
	Err      error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("thread store %s failed for thread %s: %v", e.Op, e.ThreadID, e.Err)
}

func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError wraps err as a StoreError for the given operation and thread.
func NewStoreError(op, threadID string, err error) *StoreError {
	return &StoreError{Op: op, ThreadID: threadID, Err: err}
}

// ThreadStore persists per-thread conversation state with optimistic
// checkpointing semantics.
//
// Load returns the current state for a thread, or a fresh empty state
// (version zero) if the thread has never been persisted. Load never creates
// durable state; the first Save does.
//
// Save replaces the stored state if and only if the currently stored version
// equals expectedVersion (a missing thread counts as version zero). On success
// it returns the new version (expectedVersion + 1); on a lost race it returns
// ErrVersionConflict. Implementations must guarantee per-thread
// linearizability: a Load immediately following a Save for the same thread
// observes the saved value. No cross-thread ordering is required.
type ThreadStore interface {
	Load(ctx context.Context, threadID string) (*ConversationState, error)
	Save(ctx context.Context, state *ConversationState, expectedVersion int64) (int64, error)
}

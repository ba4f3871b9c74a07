// Package redis provides a Redis backed core.ThreadStore. Conversation state
// is stored as one JSON document per thread; optimistic checkpointing is
// implemented with WATCH based transactions so a concurrent writer surfaces
// as core.ErrVersionConflict instead of a lost update.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/hupe1980/threadflow/core"
)

// Options configures the Redis thread store.
type Options struct {
	// KeyPrefix namespaces thread keys. Defaults to "threadflow:thread:".
	KeyPrefix string
	// TTL expires idle threads. Zero keeps them forever; retention is
	// otherwise an external policy.
	TTL time.Duration
}

// Store implements core.ThreadStore on top of a Redis client.
type Store struct {
	client redis.UniversalClient
	opts   Options
}

// New constructs a Store using the provided client. The client's lifecycle
// remains the caller's responsibility.
func New(client redis.UniversalClient, optFns ...func(o *Options)) *Store {
	opts := Options{KeyPrefix: "threadflow:thread:"}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Store{client: client, opts: opts}
}

func (s *Store) key(threadID string) string { return s.opts.KeyPrefix + threadID }

// Load returns the stored state for a thread, or a fresh empty state at
// version zero if the key does not exist. Backing faults and corrupt
// documents surface as *core.StoreError.
func (s *Store) Load(ctx context.Context, threadID string) (*core.ConversationState, error) {
	raw, err := s.client.Get(ctx, s.key(threadID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.NewConversationState(threadID), nil
	}
	if err != nil {
		return nil, core.NewStoreError("load", threadID, err)
	}

	var state core.ConversationState
	if err := json.Unmarshal(raw, &state); err != nil {
		return nil, core.NewStoreError("load", threadID, err)
	}
	return &state, nil
}

// Save persists the state if the stored version still equals expectedVersion.
// The check-and-set runs under WATCH so a concurrent writer aborts the
// transaction; both an explicit version mismatch and a failed transaction
// report core.ErrVersionConflict.
func (s *Store) Save(ctx context.Context, state *core.ConversationState, expectedVersion int64) (int64, error) {
	key := s.key(state.ThreadID)
	newVersion := expectedVersion + 1

	txn := func(tx *redis.Tx) error {
		current := int64(0)
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
			// Unseen thread counts as version zero.
		case err != nil:
			return err
		default:
			var stored core.ConversationState
			if err := json.Unmarshal(raw, &stored); err != nil {
				return err
			}
			current = stored.Version
		}

		if current != expectedVersion {
			return core.ErrVersionConflict
		}

		clone := state.Clone()
		clone.Version = newVersion
		payload, err := json.Marshal(clone)
		if err != nil {
			return err
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, s.opts.TTL)
			return nil
		})
		return err
	}

	err := s.client.Watch(ctx, txn, key)
	switch {
	case errors.Is(err, core.ErrVersionConflict):
		return 0, core.ErrVersionConflict
	case errors.Is(err, redis.TxFailedErr):
		// Key changed between GET and EXEC: another writer won the race.
		return 0, core.ErrVersionConflict
	case err != nil:
		return 0, core.NewStoreError("save", state.ThreadID, err)
	}
	return newVersion, nil
}

// Interface compliance (compile-time assertion)
var _ core.ThreadStore = (*Store)(nil)

// Package threadflow provides a high-level façade over the graph executor and
// service abstractions (thread store, capability registry & logging) enabling
// rapid construction of conversational task orchestrators. Most applications
// interact with this package by:
//  1. Creating an Orchestrator via New() with a reasoning backend (optionally
//     overriding the default in-memory store)
//  2. Registering one or more capabilities
//  3. Handling turns synchronously (HandleTurn)
//
// The façade delegates turn execution to graph.Executor while keeping setup
// and usage ergonomics concise. All defaults are safe for local development
// and testing; production deployments typically supply a durable thread store
// (e.g. store/redis) and a structured logger.
package threadflow

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hupe1980/threadflow/capability"
	"github.com/hupe1980/threadflow/core"
	"github.com/hupe1980/threadflow/graph"
	"github.com/hupe1980/threadflow/logging"
	"github.com/hupe1980/threadflow/reasoning"
	"github.com/hupe1980/threadflow/store"
)

// Options configures the Orchestrator instance.
type Options struct {
	// SystemPrompt is injected exactly once per thread, as the first message,
	// when the thread is first observed empty.
	SystemPrompt string

	// MaxTurns bounds reasoning steps per turn (0 disables the bound).
	// Defaults to graph.DefaultMaxTurns.
	MaxTurns int

	// MaxParallelCalls bounds concurrent capability invocations within one
	// dispatch batch. Zero means one goroutine per call.
	MaxParallelCalls int

	// Store persists conversation state per thread.
	// Defaults to an in-memory implementation if not provided.
	Store core.ThreadStore

	// Logger provides structured logging for debugging and monitoring.
	// Defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Turn is the caller-visible outcome of one handled turn.
type Turn struct {
	// ThreadID identifies the conversation, generated when the caller passed
	// an empty id. Callers send it back to continue the same thread.
	ThreadID string `json:"thread_id"`
	// Response is the final assistant message content for this turn.
	Response string `json:"response"`
}

// Orchestrator is the high-level façade aggregating the executor, capability
// registry and thread store. Public methods are safe for concurrent use;
// turns for the same thread are serialized, turns for different threads run
// fully in parallel.
type Orchestrator struct {
	registry *capability.Registry
	store    core.ThreadStore
	executor *graph.Executor
	logger   logging.Logger
	locks    keyedMutex
}

// New creates a new Orchestrator around a reasoning backend with optional
// overrides. The backend handle is injected and stateless with respect to
// threads; a single Orchestrator serves any number of threads.
func New(backend reasoning.Backend, optFns ...func(o *Options)) *Orchestrator {
	opts := Options{
		MaxTurns: graph.DefaultMaxTurns,
		Store:    store.NewInMemoryStore(),
		Logger:   logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	registry := capability.NewRegistry()
	executor := graph.NewExecutor(backend, registry, opts.Store, func(o *graph.Options) {
		o.SystemPrompt = opts.SystemPrompt
		o.MaxTurns = opts.MaxTurns
		o.MaxParallelCalls = opts.MaxParallelCalls
		o.Logger = opts.Logger
	})

	return &Orchestrator{
		registry: registry,
		store:    opts.Store,
		executor: executor,
		logger:   opts.Logger,
		locks:    keyedMutex{locks: make(map[string]*threadLock)},
	}
}

// RegisterCapability adds a capability to the orchestrator's registry, making
// it available to the reasoning backend on subsequent turns.
func (o *Orchestrator) RegisterCapability(c capability.Capability) {
	o.registry.Register(c)
}

// RegisterCapabilities adds multiple capabilities at once.
func (o *Orchestrator) RegisterCapabilities(capabilities ...capability.Capability) {
	for _, c := range capabilities {
		o.registry.Register(c)
	}
}

// HandleTurn processes one user utterance for a thread and blocks until the
// turn produced a final assistant response (or a terminal error).
//
// If threadID is empty a new one is generated and returned in the Turn so the
// caller can continue the conversation. Repeating the call with the same
// threadID always appends to history, never replaces it. Turns for the same
// thread are mutually exclusive for the duration of the full executor run;
// the store's version check additionally rejects writers that bypass the lock.
func (o *Orchestrator) HandleTurn(ctx context.Context, threadID, userText string) (Turn, error) {
	if threadID == "" {
		threadID = uuid.NewString()
		o.logger.Debug("orchestrator.thread.created", "thread_id", threadID)
	}

	unlock := o.locks.lock(threadID)
	defer unlock()

	state, err := o.executor.Run(ctx, threadID, userText)
	if err != nil {
		return Turn{ThreadID: threadID}, err
	}

	last, _ := state.LastMessage()
	return Turn{ThreadID: threadID, Response: last.Content}, nil
}

// History returns the persisted message log for a thread (empty for an
// unseen thread). Useful for transcript rendering and debugging.
func (o *Orchestrator) History(ctx context.Context, threadID string) ([]core.Message, error) {
	state, err := o.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}
	return state.Messages, nil
}

// threadLock pairs a mutex with a reference count so idle entries can be
// removed from the keyed map.
type threadLock struct {
	mu   sync.Mutex
	refs int
}

// keyedMutex provides one mutex per thread id, created on demand and dropped
// when the last holder releases it.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*threadLock
}

// lock acquires the mutex for key and returns the matching release function.
func (k *keyedMutex) lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &threadLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

package graph

import (
	"context"
	"fmt"

	"github.com/hupe1980/threadflow/capability"
	"github.com/hupe1980/threadflow/core"
	"github.com/hupe1980/threadflow/logging"
	"github.com/hupe1980/threadflow/reasoning"
)

// MaxTurnsExceededError is returned when the reasoning backend keeps
// requesting capabilities past the configured turn bound. All state appended
// before the bound was hit remains persisted.
type MaxTurnsExceededError struct {
	ThreadID string
	Turns    int
}

func (e *MaxTurnsExceededError) Error() string {
	return fmt.Sprintf("thread %s exceeded %d reasoning turns without a final response", e.ThreadID, e.Turns)
}

// Options configures an Executor instance.
//
// Use functional options with NewExecutor to override defaults.
type Options struct {
	// SystemPrompt is injected as the first message when a thread is observed
	// empty. Empty string disables injection.
	SystemPrompt string
	// MaxTurns bounds the number of reasoning steps per turn. Zero disables
	// the bound, restoring the unbounded tool-call loop.
	MaxTurns int
	// MaxParallelCalls bounds concurrent capability invocations within one
	// dispatch batch. Zero means one goroutine per call.
	MaxParallelCalls int
	// Dispatcher overrides the default parallel dispatcher.
	Dispatcher Dispatcher
	// Logger receives structured execution logs. Defaults to NoOpLogger.
	Logger logging.Logger
}

// DefaultMaxTurns bounds the reasoning loop unless overridden. Ten turns is
// generous for capability chains while converting a backend that never stops
// requesting capabilities into a deterministic error.
const DefaultMaxTurns = 10

// Executor drives one conversation turn through the transition table until
// the routing predicate returns End, checkpointing state after every step.
//
// The executor holds no per-thread state: the same instance serves all
// threads concurrently. Serialization of turns within one thread is the
// caller's concern (see the threadflow facade) in addition to the optimistic
// version check every checkpoint performs.
type Executor struct {
	backend    reasoning.Backend
	registry   *capability.Registry
	store      core.ThreadStore
	dispatcher Dispatcher

	systemPrompt string
	maxTurns     int
	logger       logging.Logger
}

// NewExecutor creates an executor over the given backend, capability registry
// and thread store.
func NewExecutor(
	backend reasoning.Backend,
	registry *capability.Registry,
	store core.ThreadStore,
	optFns ...func(o *Options),
) *Executor {
	opts := Options{
		MaxTurns: DefaultMaxTurns,
		Logger:   logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}

	dispatcher := opts.Dispatcher
	if dispatcher == nil {
		dispatcher = NewParallelDispatcher(registry, opts.Logger, DispatcherConfig{
			MaxParallel: opts.MaxParallelCalls,
		})
	}

	return &Executor{
		backend:      backend,
		registry:     registry,
		store:        store,
		dispatcher:   dispatcher,
		systemPrompt: opts.SystemPrompt,
		maxTurns:     opts.MaxTurns,
		logger:       opts.Logger,
	}
}

// Run executes one full turn for a thread: it loads (or initializes) the
// conversation state, appends the user message, and loops
// REASON -> DISPATCH -> INTERCEPT until the backend produces a plain response.
// The returned state reflects everything persisted for the thread including
// the final assistant message.
//
// Store faults and backend transport errors are terminal for the turn and
// returned to the caller; capability failures are recovered in-band and never
// surface here.
func (e *Executor) Run(ctx context.Context, threadID, userText string) (*core.ConversationState, error) {
	state, err := e.store.Load(ctx, threadID)
	if err != nil {
		return nil, err
	}

	e.logger.Debug("executor.turn.start", "thread_id", threadID, "version", state.Version)

	// BUILD_PROMPT: inject the system message exactly once, only when the
	// thread is first observed as empty.
	var delta []core.Message
	if state.Empty() && e.systemPrompt != "" {
		delta = append(delta, core.NewSystemMessage(e.systemPrompt))
	}
	delta = append(delta, core.NewUserMessage(userText))
	if err := e.checkpoint(ctx, state, delta); err != nil {
		return nil, err
	}

	definitions := e.definitions()

	for turn := 0; ; turn++ {
		if e.maxTurns > 0 && turn >= e.maxTurns {
			e.logger.Warn("executor.turn.max_turns_exceeded", "thread_id", threadID, "turns", turn)
			return state, &MaxTurnsExceededError{ThreadID: threadID, Turns: turn}
		}
		if err := ctx.Err(); err != nil {
			return state, err
		}

		// REASON
		msg, err := e.backend.Complete(ctx, reasoning.Request{
			Messages:     state.Messages,
			Capabilities: definitions,
		})
		if err != nil {
			return state, fmt.Errorf("reasoning backend failed: %w", err)
		}
		if msg.Role == "" {
			msg.Role = core.RoleAssistant
		}
		if err := e.checkpoint(ctx, state, []core.Message{msg}); err != nil {
			return nil, err
		}

		if Route(state) == End {
			e.logger.Info(
				"executor.turn.complete",
				"thread_id", threadID,
				"turns", turn+1,
				"messages", len(state.Messages),
			)
			return state, nil
		}

		// DISPATCH: fan out the batch, collect results in request order.
		results := e.dispatcher.Dispatch(ctx, threadID, msg.CapabilityCalls)

		// INTERCEPT: reframe failures before they re-enter the reasoning loop.
		results = InterceptErrors(results)

		if err := e.checkpoint(ctx, state, results); err != nil {
			return nil, err
		}
	}
}

// checkpoint folds a message delta into the state and persists it with an
// optimistic version check. The reducer call here is the only place new
// messages enter the log.
func (e *Executor) checkpoint(ctx context.Context, state *core.ConversationState, delta []core.Message) error {
	if len(delta) == 0 {
		return nil
	}
	state.Messages = core.Reduce(state.Messages, delta)
	version, err := e.store.Save(ctx, state, state.Version)
	if err != nil {
		return err
	}
	state.Version = version
	return nil
}

// definitions snapshots the registry as backend-facing capability definitions.
func (e *Executor) definitions() []reasoning.Definition {
	capabilities := e.registry.List()
	defs := make([]reasoning.Definition, 0, len(capabilities))
	for _, c := range capabilities {
		defs = append(defs, reasoning.Definition{
			Name:        c.Name(),
			Description: c.Description(),
			Parameters:  c.Parameters(),
		})
	}
	return defs
}

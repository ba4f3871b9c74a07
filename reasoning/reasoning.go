// Package reasoning defines the backend abstraction that turns conversation
// history into either a final answer or a batch of capability call requests.
// Concrete adapters (openai, anthropic) live in sub-packages; the Stub backend
// provides deterministic scripted behavior for tests and examples.
package reasoning

import (
	"context"
	"sync"

	"github.com/hupe1980/threadflow/core"
)

// Definition declaratively exposes a callable capability to the backend.
// Parameters is a JSON Schema object constraining legal argument shapes.
type Definition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// Request captures the normalized backend input produced by the executor: the
// full message log (system message first) plus the capability schema set the
// backend may bind calls to.
type Request struct {
	Messages     []core.Message `json:"messages"`
	Capabilities []Definition   `json:"capabilities,omitempty"`
}

// Backend is the minimal interface the executor needs to drive one reasoning
// step. Implementations must be stateless with respect to threads: all
// conversation state arrives in the Request, making a single Backend safe to
// share across concurrent threads.
//
// Complete returns exactly one new assistant message, carrying capability
// calls when the backend decided to invoke capabilities and plain content
// otherwise. Transport failures are returned as errors; malformed but
// parseable-enough output should degrade to a plain assistant message instead
// of an error.
type Backend interface {
	Complete(ctx context.Context, req Request) (core.Message, error)
}

// BackendFunc adapts a plain function to the Backend interface.
type BackendFunc func(ctx context.Context, req Request) (core.Message, error)

// Complete implements Backend.
func (f BackendFunc) Complete(ctx context.Context, req Request) (core.Message, error) {
	return f(ctx, req)
}

// Stub is a deterministic scripted Backend for tests and examples. Each call
// to Complete pops the next scripted assistant message; when the script is
// exhausted it returns a plain fallback response. Safe for concurrent use.
type Stub struct {
	mu       sync.Mutex
	script   []core.Message
	fallback string
}

// NewStub constructs a Stub that replays the given assistant messages in order.
func NewStub(script ...core.Message) *Stub {
	return &Stub{script: script, fallback: "I have nothing further to add."}
}

// WithFallback sets the plain response returned once the script is exhausted.
func (s *Stub) WithFallback(text string) *Stub {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fallback = text
	return s
}

// Complete implements Backend by replaying the script.
func (s *Stub) Complete(ctx context.Context, _ Request) (core.Message, error) {
	if err := ctx.Err(); err != nil {
		return core.Message{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.script) == 0 {
		return core.NewAssistantMessage(s.fallback), nil
	}
	next := s.script[0]
	s.script = s.script[1:]
	return next, nil
}

// Remaining reports how many scripted messages have not been consumed yet.
func (s *Stub) Remaining() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.script)
}

package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/hupe1980/threadflow/capability"
	"github.com/hupe1980/threadflow/core"
	"github.com/hupe1980/threadflow/logging"
)

// Dispatcher executes a batch of capability call requests and returns exactly
// one result message per request, in request order, regardless of completion
// order. Implementations must:
//   - Respect ctx cancellation between calls (in-flight calls run to completion)
//   - Never panic (recover internally and convert to error results)
//   - Synthesize an error result for unknown capability names without invoking anything
type Dispatcher interface {
	Dispatch(ctx context.Context, threadID string, calls []core.CapabilityCall) []core.Message
}

// DispatcherConfig configures the default parallel dispatcher.
type DispatcherConfig struct {
	MaxParallel    int  // 0 or <1 => no explicit limit (len(calls))
	LogStartEvents bool // log a start line per call
}

// parallelDispatcher is the default implementation.
type parallelDispatcher struct {
	registry *capability.Registry
	logger   logging.Logger
	cfg      DispatcherConfig
}

// NewParallelDispatcher constructs a dispatcher that fans a batch out across
// goroutines bounded by cfg.MaxParallel and fans results back in preserving
// request order.
func NewParallelDispatcher(registry *capability.Registry, logger logging.Logger, cfg DispatcherConfig) Dispatcher {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &parallelDispatcher{registry: registry, logger: logger, cfg: cfg}
}

func (d *parallelDispatcher) Dispatch(ctx context.Context, threadID string, calls []core.CapabilityCall) []core.Message {
	n := len(calls)
	if n == 0 {
		return nil
	}

	// Fast path: single call, execute inline.
	if n == 1 {
		return []core.Message{d.executeOne(ctx, threadID, calls[0])}
	}

	maxPar := d.cfg.MaxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.Message, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, call core.CapabilityCall) {
			defer wg.Done()
			defer func() { <-sem }()
			results[idx] = d.executeOne(ctx, threadID, call)
		}(i, calls[i])
	}
	wg.Wait()

	d.logger.Debug(
		"dispatch.batch.complete",
		"thread_id", threadID,
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)

	return results
}

// executeOne resolves and invokes a single capability, converting every
// failure mode (unknown name, malformed arguments, error return, panic) into
// an error result message correlated by call id.
func (d *parallelDispatcher) executeOne(ctx context.Context, threadID string, call core.CapabilityCall) core.Message {
	if d.cfg.LogStartEvents {
		d.logger.Info(
			"dispatch.call.start",
			"thread_id", threadID,
			"capability", call.Name,
			"call_id", call.ID,
		)
	}

	impl, ok := d.registry.Get(call.Name)
	if !ok {
		d.logger.Warn("dispatch.call.unknown_capability", "thread_id", threadID, "capability", call.Name)
		return core.NewResultMessage(call, nil, fmt.Errorf("unknown capability %q", call.Name))
	}

	args := map[string]any{}
	if call.Arguments != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			return core.NewResultMessage(call, nil, fmt.Errorf("malformed arguments for %q: %v", call.Name, err))
		}
	}

	callCtx := core.NewCallContext(ctx, threadID, call, d.logger)

	start := time.Now()
	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = panicError(r)
				d.logger.Error("dispatch.call.panic", "thread_id", threadID, "capability", call.Name, "recover", r)
			}
		}()
		result, err = impl.Invoke(callCtx, args)
	}()

	d.logger.Info(
		"dispatch.call.executed",
		"thread_id", threadID,
		"capability", call.Name,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	return core.NewResultMessage(call, result, err)
}

// panicError converts a recovered panic value to an error carrying the stack.
func panicError(r any) error { return &panicErr{val: r, stack: debug.Stack()} }

type panicErr struct {
	val   any
	stack []byte
}

func (p *panicErr) Error() string { return fmt.Sprintf("panic recovered: %v", p.val) }

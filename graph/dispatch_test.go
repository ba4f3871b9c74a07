package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hupe1980/threadflow/capability"
	"github.com/hupe1980/threadflow/core"
	"github.com/hupe1980/threadflow/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCapability struct {
	name     string
	delay    time.Duration
	result   any
	err      error
	panicMsg any
	calls    atomic.Int32
}

func (m *mockCapability) Name() string               { return m.name }
func (m *mockCapability) Description() string        { return "mock capability" }
func (m *mockCapability) Parameters() map[string]any { return map[string]any{"type": "object"} }
func (m *mockCapability) Invoke(cc *core.CallContext, _ map[string]any) (any, error) {
	m.calls.Add(1)
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-cc.Context().Done():
			return nil, cc.Context().Err()
		}
	}
	if m.panicMsg != nil {
		panic(m.panicMsg)
	}
	return m.result, m.err
}

func TestDispatch_OrderPreservedUnderVariedLatency(t *testing.T) {
	// Later calls finish first; results must still come back in request order.
	reg := capability.NewRegistry(
		&mockCapability{name: "slow", delay: 60 * time.Millisecond, result: "slow-result"},
		&mockCapability{name: "medium", delay: 30 * time.Millisecond, result: "medium-result"},
		&mockCapability{name: "fast", result: "fast-result"},
	)
	d := NewParallelDispatcher(reg, logging.NoOpLogger{}, DispatcherConfig{})

	calls := []core.CapabilityCall{
		{ID: "c1", Name: "slow"},
		{ID: "c2", Name: "medium"},
		{ID: "c3", Name: "fast"},
	}

	results := d.Dispatch(context.Background(), "t1", calls)

	require.Len(t, results, 3)
	assert.Equal(t, "c1", results[0].CallID)
	assert.Equal(t, "slow-result", results[0].Content)
	assert.Equal(t, "c2", results[1].CallID)
	assert.Equal(t, "medium-result", results[1].Content)
	assert.Equal(t, "c3", results[2].CallID)
	assert.Equal(t, "fast-result", results[2].Content)
	for _, r := range results {
		assert.Equal(t, core.StatusOK, r.Status)
	}
}

func TestDispatch_RunsCallsConcurrently(t *testing.T) {
	const n = 4
	const delay = 50 * time.Millisecond

	caps := make([]capability.Capability, 0, n)
	calls := make([]core.CapabilityCall, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("cap%d", i)
		caps = append(caps, &mockCapability{name: name, delay: delay, result: name})
		calls = append(calls, core.CapabilityCall{ID: fmt.Sprintf("c%d", i), Name: name})
	}
	d := NewParallelDispatcher(capability.NewRegistry(caps...), logging.NoOpLogger{}, DispatcherConfig{})

	start := time.Now()
	results := d.Dispatch(context.Background(), "t1", calls)
	elapsed := time.Since(start)

	require.Len(t, results, n)
	// Sequential execution would take n*delay; parallel stays well under that.
	assert.Less(t, elapsed, time.Duration(n)*delay)
}

func TestDispatch_MaxParallelBound(t *testing.T) {
	var inFlight, peak atomic.Int32
	var mu sync.Mutex

	track := func(_ *core.CallContext, _ map[string]any) (any, error) {
		cur := inFlight.Add(1)
		mu.Lock()
		if cur > peak.Load() {
			peak.Store(cur)
		}
		mu.Unlock()
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
		return "ok", nil
	}

	reg := capability.NewRegistry(
		capability.MustFunc("track", "tracks concurrency", map[string]any{"type": "object"}, track),
	)
	d := NewParallelDispatcher(reg, logging.NoOpLogger{}, DispatcherConfig{MaxParallel: 2})

	calls := make([]core.CapabilityCall, 6)
	for i := range calls {
		calls[i] = core.CapabilityCall{ID: fmt.Sprintf("c%d", i), Name: "track"}
	}

	results := d.Dispatch(context.Background(), "t1", calls)

	require.Len(t, results, 6)
	assert.LessOrEqual(t, peak.Load(), int32(2))
}

func TestDispatch_UnknownCapability(t *testing.T) {
	known := &mockCapability{name: "known", result: "ok"}
	d := NewParallelDispatcher(capability.NewRegistry(known), logging.NoOpLogger{}, DispatcherConfig{})

	results := d.Dispatch(context.Background(), "t1", []core.CapabilityCall{
		{ID: "c1", Name: "known"},
		{ID: "c2", Name: "ghost"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, core.StatusOK, results[0].Status)

	assert.Equal(t, core.StatusError, results[1].Status)
	assert.Equal(t, "c2", results[1].CallID)
	assert.Equal(t, "ghost", results[1].CapabilityName)
	assert.Contains(t, results[1].Content, `unknown capability "ghost"`)
	// Nothing was invoked for the unknown name.
	assert.Equal(t, int32(1), known.calls.Load())
}

func TestDispatch_PanicRecovered(t *testing.T) {
	reg := capability.NewRegistry(
		&mockCapability{name: "bomb", panicMsg: "kaboom"},
		&mockCapability{name: "steady", result: "fine"},
	)
	d := NewParallelDispatcher(reg, logging.NoOpLogger{}, DispatcherConfig{})

	results := d.Dispatch(context.Background(), "t1", []core.CapabilityCall{
		{ID: "c1", Name: "bomb"},
		{ID: "c2", Name: "steady"},
	})

	require.Len(t, results, 2)
	assert.Equal(t, core.StatusError, results[0].Status)
	assert.Contains(t, results[0].Content, "panic recovered")
	assert.Contains(t, results[0].Content, "kaboom")
	// A panicking sibling does not poison the rest of the batch.
	assert.Equal(t, core.StatusOK, results[1].Status)
}

func TestDispatch_MalformedArguments(t *testing.T) {
	target := &mockCapability{name: "target", result: "ok"}
	d := NewParallelDispatcher(capability.NewRegistry(target), logging.NoOpLogger{}, DispatcherConfig{})

	results := d.Dispatch(context.Background(), "t1", []core.CapabilityCall{
		{ID: "c1", Name: "target", Arguments: `{not json`},
	})

	require.Len(t, results, 1)
	assert.Equal(t, core.StatusError, results[0].Status)
	assert.Contains(t, results[0].Content, "malformed arguments")
	assert.Equal(t, int32(0), target.calls.Load())
}

func TestDispatch_ArgumentsDecodedAndPassed(t *testing.T) {
	var got map[string]any
	echo := capability.MustFunc("echo", "echoes args", map[string]any{"type": "object"},
		func(_ *core.CallContext, args map[string]any) (any, error) {
			got = args
			return args, nil
		},
	)
	d := NewParallelDispatcher(capability.NewRegistry(echo), logging.NoOpLogger{}, DispatcherConfig{})

	results := d.Dispatch(context.Background(), "t1", []core.CapabilityCall{
		{ID: "c1", Name: "echo", Arguments: `{"doctor_name":"Dr Smith","appointment_date":"2026-09-01"}`},
	})

	require.Len(t, results, 1)
	require.Equal(t, core.StatusOK, results[0].Status)
	assert.Equal(t, "Dr Smith", got["doctor_name"])

	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(results[0].Content), &payload))
	assert.Equal(t, "2026-09-01", payload["appointment_date"])
}

func TestDispatch_EmptyBatch(t *testing.T) {
	d := NewParallelDispatcher(capability.NewRegistry(), logging.NoOpLogger{}, DispatcherConfig{})
	assert.Nil(t, d.Dispatch(context.Background(), "t1", nil))
}

func TestDispatch_ErrorReturnBecomesErrorResult(t *testing.T) {
	reg := capability.NewRegistry(&mockCapability{name: "flaky", err: errors.New("transient fault")})
	d := NewParallelDispatcher(reg, logging.NoOpLogger{}, DispatcherConfig{})

	results := d.Dispatch(context.Background(), "t1", []core.CapabilityCall{{ID: "c1", Name: "flaky"}})

	require.Len(t, results, 1)
	assert.Equal(t, core.StatusError, results[0].Status)
	assert.Equal(t, "transient fault", results[0].Content)
}

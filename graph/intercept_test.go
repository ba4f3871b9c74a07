package graph

import (
	"errors"
	"testing"

	"github.com/hupe1980/threadflow/core"
	"github.com/stretchr/testify/assert"
)

func TestInterceptErrors_RewritesFailures(t *testing.T) {
	call := core.CapabilityCall{ID: "c1", Name: "book_appointment"}
	batch := []core.Message{
		core.NewResultMessage(call, map[string]any{"status": "success"}, nil),
		core.NewResultMessage(core.CapabilityCall{ID: "c2", Name: "check_availability"}, nil, errors.New("upstream timeout")),
	}

	out := InterceptErrors(batch)

	assert.Len(t, out, 2)
	// Success passes through untouched.
	assert.Equal(t, batch[0], out[0])

	// Failure keeps its identity but gets explicit failure framing.
	assert.Equal(t, core.RoleResult, out[1].Role)
	assert.Equal(t, "c2", out[1].CallID)
	assert.Equal(t, core.StatusError, out[1].Status)
	assert.Contains(t, out[1].Content, `"check_availability"`)
	assert.Contains(t, out[1].Content, "upstream timeout")
	assert.Contains(t, out[1].Content, "do not retry the identical call")
}

func TestInterceptErrors_DoesNotMutateInput(t *testing.T) {
	failed := core.NewResultMessage(core.CapabilityCall{ID: "c1", Name: "lookup"}, nil, errors.New("boom"))
	batch := []core.Message{failed}

	out := InterceptErrors(batch)

	assert.Equal(t, "boom", batch[0].Content)
	assert.NotEqual(t, batch[0].Content, out[0].Content)
}

func TestInterceptErrors_EmptyBatch(t *testing.T) {
	assert.Empty(t, InterceptErrors(nil))
}

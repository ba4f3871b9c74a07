package openai

import (
	"testing"

	"github.com/hupe1980/threadflow/core"
	"github.com/hupe1980/threadflow/reasoning"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages(t *testing.T) {
	call := core.CapabilityCall{ID: "c1", Name: "lookup", Arguments: `{"q":"x"}`}
	log := []core.Message{
		core.NewSystemMessage("be helpful"),
		core.NewUserMessage("hi"),
		core.NewCapabilityCallMessage("", call),
		core.NewResultMessage(call, map[string]any{"hits": 3}, nil),
		core.NewAssistantMessage("found it"),
	}

	out := buildMessages(log)
	require.Len(t, out, 5)

	assert.NotNil(t, out[0].OfSystem)
	assert.NotNil(t, out[1].OfUser)

	require.NotNil(t, out[2].OfAssistant)
	require.Len(t, out[2].OfAssistant.ToolCalls, 1)
	assert.Equal(t, "c1", out[2].OfAssistant.ToolCalls[0].ID)
	assert.Equal(t, "lookup", out[2].OfAssistant.ToolCalls[0].Function.Name)
	assert.Equal(t, `{"q":"x"}`, out[2].OfAssistant.ToolCalls[0].Function.Arguments)

	require.NotNil(t, out[3].OfTool)
	assert.Equal(t, "c1", out[3].OfTool.ToolCallID)

	assert.NotNil(t, out[4].OfAssistant)
}

func TestBuildTools(t *testing.T) {
	defs := []reasoning.Definition{
		{
			Name:        "check_availability",
			Description: "Check whether a doctor is available",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"doctor_name": map[string]any{"type": "string"},
				},
				"required": []any{"doctor_name"},
			},
		},
	}

	tools := buildTools(defs)
	require.Len(t, tools, 1)
	assert.Equal(t, "check_availability", tools[0].Function.Name)
	assert.Equal(t, "Check whether a doctor is available", tools[0].Function.Description.Value)
	assert.Equal(t, "object", tools[0].Function.Parameters["type"])
}

func TestNewFromClient_Defaults(t *testing.T) {
	b := New()
	assert.Equal(t, "gpt-4o-mini", string(b.opts.Model))
	assert.Equal(t, 0.2, b.opts.Temperature)
	assert.Equal(t, int64(4096), b.opts.MaxCompletionTokens)

	custom := New(func(o *Options) {
		o.Model = "gpt-4o"
		o.Temperature = 0
	})
	assert.Equal(t, "gpt-4o", string(custom.opts.Model))
	assert.Equal(t, 0.0, custom.opts.Temperature)
}

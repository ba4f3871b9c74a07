package anthropic

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
		core.NewCapabilityCallMessage("checking", call),
		core.NewResultMessage(call, "found", nil),
		core.NewAssistantMessage("done"),
	}

	out := buildMessages(log)
	// System messages go to the dedicated system field, not the message list.
	require.Len(t, out, 4)

	assert.Equal(t, "user", string(out[0].Role))

	require.Equal(t, "assistant", string(out[1].Role))
	require.Len(t, out[1].Content, 2)
	assert.NotNil(t, out[1].Content[0].OfText)
	require.NotNil(t, out[1].Content[1].OfToolUse)
	assert.Equal(t, "c1", out[1].Content[1].OfToolUse.ID)
	assert.Equal(t, "lookup", out[1].Content[1].OfToolUse.Name)

	// Capability results come back as user messages carrying tool results.
	require.Equal(t, "user", string(out[2].Role))
	require.NotNil(t, out[2].Content[0].OfToolResult)
	assert.Equal(t, "c1", out[2].Content[0].OfToolResult.ToolUseID)

	assert.Equal(t, "assistant", string(out[3].Role))
}

func TestBuildMessages_ErrorResultFlagged(t *testing.T) {
	failed := core.Message{
		Role:           core.RoleResult,
		CallID:         "c9",
		CapabilityName: "lookup",
		Status:         core.StatusError,
		Content:        "boom",
	}

	out := buildMessages([]core.Message{failed})
	require.Len(t, out, 1)
	require.NotNil(t, out[0].Content[0].OfToolResult)
	assert.True(t, out[0].Content[0].OfToolResult.IsError.Value)
}

func TestExtractSystem(t *testing.T) {
	log := []core.Message{
		core.NewSystemMessage("first"),
		core.NewUserMessage("hi"),
	}

	blocks := extractSystem(log)
	require.Len(t, blocks, 1)
	assert.Equal(t, "first", blocks[0].Text)

	assert.Empty(t, extractSystem([]core.Message{core.NewUserMessage("hi")}))
}

func TestBuildTools(t *testing.T) {
	defs := []reasoning.Definition{
		{
			Name:        "book_appointment",
			Description: "Book an appointment",
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
	require.NotNil(t, tools[0].OfTool)
	assert.Equal(t, "book_appointment", tools[0].OfTool.Name)
	assert.Equal(t, []string{"doctor_name"}, tools[0].OfTool.InputSchema.Required)
}

func TestStringSlice(t *testing.T) {
	assert.Equal(t, []string{"a", "b"}, stringSlice([]string{"a", "b"}))
	assert.Equal(t, []string{"a"}, stringSlice([]any{"a", 1}))
	assert.Nil(t, stringSlice("not a slice"))
}

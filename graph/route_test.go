package graph

import (
	"testing"

	"github.com/hupe1980/threadflow/core"
	"github.com/hupe1980/threadflow/internal/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRoute(t *testing.T) {
	call := testutil.Call("c1", "lookup", `{}`)

	tests := []struct {
		name  string
		state *core.ConversationState
		want  Decision
	}{
		{
			name:  "empty state ends",
			state: testutil.NewStateBuilder("t1").Build(),
			want:  End,
		},
		{
			name:  "plain assistant message ends",
			state: testutil.NewStateBuilder("t1").User("hi").Assistant("hello").Build(),
			want:  End,
		},
		{
			name:  "pending capability calls continue",
			state: testutil.NewStateBuilder("t1").User("hi").Calls(call).Build(),
			want:  Continue,
		},
		{
			name:  "capability result ends routing until next reasoning step",
			state: testutil.NewStateBuilder("t1").User("hi").Calls(call).Result(call, "done").Build(),
			want:  End,
		},
		{
			name:  "only the last message matters",
			state: testutil.NewStateBuilder("t1").Calls(call).Assistant("final").Build(),
			want:  End,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Route(tt.state))
		})
	}
}

func TestDecision_String(t *testing.T) {
	assert.Equal(t, "CONTINUE", Continue.String())
	assert.Equal(t, "END", End.String())
}

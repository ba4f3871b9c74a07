package graph

import "github.com/hupe1980/threadflow/core"

// Decision is the routing predicate's verdict after a reasoning step.
type Decision int

const (
	// Continue routes the turn into capability dispatch.
	Continue Decision = iota
	// End terminates the turn with the latest assistant message as the response.
	End
)

// String returns the string representation of the decision.
func (d Decision) String() string {
	if d == Continue {
		return "CONTINUE"
	}
	return "END"
}

// Route decides whether the turn continues into dispatch or ends. It examines
// only the most recent message: an assistant message with pending capability
// calls continues, anything else ends the turn.
func Route(state *core.ConversationState) Decision {
	last, ok := state.LastMessage()
	if !ok {
		return End
	}
	if last.HasCapabilityCalls() {
		return Continue
	}
	return End
}

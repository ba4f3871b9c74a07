package graph

import (
	"fmt"

	"github.com/hupe1980/threadflow/core"
)

// InterceptErrors rewrites failed capability results with explicit failure
// framing directed at the reasoning backend before they re-enter the loop.
// The rewritten content names the failing capability, states the raw error
// detail, and instructs the backend not to retry the identical call.
// Successful results pass through unchanged. The function is a pure rewrite:
// it never fails and never mutates its input.
func InterceptErrors(batch []core.Message) []core.Message {
	out := make([]core.Message, len(batch))
	for i, m := range batch {
		if !m.IsError() {
			out[i] = m
			continue
		}
		rewritten := m
		rewritten.Content = fmt.Sprintf(
			"Capability %q failed with error: %s. Explain this failure to the user in plain language and do not retry the identical call.",
			m.CapabilityName, m.Content,
		)
		out[i] = rewritten
	}
	return out
}

// Package capability implements the capability calling subsystem that lets the
// orchestrator invoke structured external operations (APIs, computations,
// side-effects) with schema validated arguments and consistent error handling.
package capability

import (
	"fmt"

	"github.com/hupe1980/threadflow/core"
)

// Capability defines a named, schema-described operation the reasoning backend
// can request on behalf of a conversation turn.
//
// Capability implementations should:
//   - Provide clear, descriptive names (snake_case recommended) and descriptions
//   - Define a proper JSON schema for parameters
//   - Be safe for concurrent invocation; the dispatcher fans a batch out in parallel
//   - Be idempotent with respect to duplicated calls when they have external
//     side effects, since an abandoned turn does not cancel in-flight calls
type Capability interface {
	// Name returns the unique identifier for this capability.
	Name() string

	// Description returns a human-readable description of what this capability
	// does. It is provided to the reasoning backend to guide call selection.
	Description() string

	// Parameters returns a JSON schema describing the expected argument shape.
	// The schema constrains which argument shapes are legal in backend output.
	Parameters() map[string]any

	// Invoke executes the capability with decoded, validated arguments.
	// Failures must be returned as errors, never panics; the dispatcher
	// converts both into error results.
	Invoke(callCtx *core.CallContext, args map[string]any) (any, error)
}

// Error represents errors that occur during capability invocation.
type Error struct {
	Capability string `json:"capability"`        // Name of the capability that failed
	Message    string `json:"message"`           // Error message
	Code       string `json:"code"`              // Error code for categorization
	Details    any    `json:"details,omitempty"` // Additional error details
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("capability error [%s] in %s: %s", e.Code, e.Capability, e.Message)
	}
	return fmt.Sprintf("capability error in %s: %s", e.Capability, e.Message)
}

// NewError creates a new Error with the specified details.
func NewError(capability, message, code string) *Error {
	return &Error{Capability: capability, Message: message, Code: code}
}

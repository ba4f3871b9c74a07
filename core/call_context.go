package core

import (
	"context"

	"github.com/hupe1980/threadflow/logging"
)

// CallContext is the scoped execution context handed to a single capability
// invocation. It correlates the invocation with the originating thread and
// call id and carries the ambient cancellation context plus a logger.
//
// A CallContext is created per call by the dispatcher and must not be retained
// after Invoke returns.
type CallContext struct {
	ctx            context.Context
	threadID       string
	callID         string
	capabilityName string
	logger         logging.Logger
}

// NewCallContext constructs a CallContext for one capability call. A nil
// logger is replaced with a NoOpLogger so capabilities can log unconditionally.
func NewCallContext(ctx context.Context, threadID string, call CapabilityCall, logger logging.Logger) *CallContext {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &CallContext{
		ctx:            ctx,
		threadID:       threadID,
		callID:         call.ID,
		capabilityName: call.Name,
		logger:         logger,
	}
}

// Context returns the cancellation context for the enclosing turn. Capability
// implementations performing blocking work should honor it.
func (c *CallContext) Context() context.Context { return c.ctx }

// ThreadID returns the conversation thread this call belongs to.
func (c *CallContext) ThreadID() string { return c.threadID }

// CallID returns the identifier correlating this invocation with the
// assistant message that requested it.
func (c *CallContext) CallID() string { return c.callID }

// CapabilityName returns the name of the capability being invoked.
func (c *CallContext) CapabilityName() string { return c.capabilityName }

// Logger returns the logger scoped to this invocation.
func (c *CallContext) Logger() logging.Logger { return c.logger }

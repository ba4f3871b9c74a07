// Package core provides the foundational domain types, interfaces and execution
// contexts used by threadflow. It defines the core abstractions for:
//
//   - Messages (immutable conversation log entries with role based semantics)
//   - Capability calls and results (request/response pairs correlated by call id)
//   - ConversationState (per-thread, versioned, append-only message log)
//   - ThreadStore (load / optimistic save persistence contract)
//   - CallContext (scoped execution context handed to capability invocations)
//
// The package intentionally keeps implementation concerns (persistence,
// executor orchestration, concrete capabilities) out of scope, exposing small
// interfaces to enable custom backends and extensions.
package core

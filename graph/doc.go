// Package graph implements the per-turn execution state machine that drives a
// conversation turn from user input to a final assistant response.
//
// The executor advances through a fixed transition table:
//
//	BUILD_PROMPT -> REASON                      (always; first contact only)
//	REASON       -> DISPATCH                    (latest assistant message requests capabilities)
//	REASON       -> DONE                        (latest assistant message is plain)
//	DISPATCH     -> INTERCEPT                   (always)
//	INTERCEPT    -> REASON                      (always)
//
// Within DISPATCH, capability calls of one batch run concurrently and their
// results are collected back into request order before the turn proceeds.
// The INTERCEPT step rewrites failed results with explicit failure framing so
// the next REASON step explains the failure instead of retrying it.
//
// Conversation state is checkpointed through a core.ThreadStore after every
// step that appends messages, using optimistic version checks to detect
// concurrent writers.
package graph

// Package conversation provides the streaming conversation state machine.
//
// # Overview
//
// The Controller sits between the presentation layer and the transport,
// owning conversation data and the generation session. It exposes the
// command surface other parts call:
//
//   - CreateConversation: new empty conversation, made active
//   - Ask(question): optimistic user message + question command
//   - Stop: best-effort cancellation of the in-flight task
//   - SelectConversation: flush, switch, reset follow-up
//   - DeleteConversations / DeleteSelected: bulk delete with fallback
//   - ToggleSelection: multi-select set for bulk delete
//
// # Streaming reconciliation
//
// HandleEvent folds backend events into message state:
//
//   - task_started: records the task ID and follow-up flag
//   - llm_response start: marks generation begun
//   - llm_response message: appends the fragment to the trailing
//     generating assistant message, or creates it
//   - llm_response end/interrupted/error: freezes the message; partial
//     content is preserved as-is
//   - command_sent(stop): clears generation state without touching content
//
// The fold is strict: fragments are applied in arrival order with no
// buffering, deduplication, or replay. Terminal handling is idempotent —
// a stop acknowledgement and an interrupted terminal may both arrive for
// the same task, and the second changes nothing.
//
// # Task/conversation binding
//
// A generation task is bound to the conversation that was active when Ask
// sent it. Fragments reconcile into that conversation even if the user
// switches away mid-stream, so switching never corrupts another
// conversation's tail. If the bound conversation is deleted mid-stream,
// remaining fragments are dropped.
//
// # Invariants
//
// At most one message in the whole collection has status "generating" at
// any instant: Ask is rejected while a generation is in flight, and every
// terminal path freezes the trailing message before clearing the session.
//
// # State distribution
//
// Mutations never escape by reference. Each one produces new values
// (copy-on-write), is written through to the store fire-and-forget, and
// publishes a deep-copied Snapshot through the Notifier for the
// presentation layer to render.
package conversation

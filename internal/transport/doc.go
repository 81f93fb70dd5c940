// Package transport provides the WebSocket channel to the tutor backend.
//
// # Protocol
//
// The channel is a bidirectional JSON message stream:
//
// Outbound commands:
//
//	{"type": "question", "question": "...", "conversation_id": "..."}
//	{"type": "stop", "task_id": "..."}
//
// Inbound events:
//
//	{"type": "task_started", "task_id": "...", "is_followup": false}
//	{"type": "llm_response", "event": "start|message|end|interrupted|error", "data": "..."}
//	{"type": "command_sent", "command": "stop"}
//
// # Delivery guarantees
//
// Events are delivered on a single buffered queue in arrival order; the
// conversation controller is the sole consumer, which is what makes the
// reconciler a strict left-fold over the stream. The client never reorders
// or replays frames.
//
// # Reconnection
//
// On any drop the client redials after a fixed delay (3s by default) with
// no backoff growth. Sends while disconnected fail with ErrNotConnected;
// callers treat that as a no-op — the reconnect loop is the only recovery
// path.
package transport

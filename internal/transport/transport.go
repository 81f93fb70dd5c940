// ABOUTME: Wire protocol types for the tutor backend WebSocket channel
// ABOUTME: Defines outbound commands, inbound events, and the Channel interface

package transport

import (
	"context"
	"errors"
)

// ErrNotConnected is returned by send operations while the channel is down.
var ErrNotConnected = errors.New("transport not connected")

// Command types sent to the backend.
const (
	CommandQuestion = "question"
	CommandStop     = "stop"
)

// Command is the outbound message envelope. Exactly one command shape is
// populated, selected by Type.
type Command struct {
	Type string `json:"type"`

	// For "question"
	Question       string `json:"question,omitempty"`
	ConversationID string `json:"conversation_id,omitempty"`

	// For "stop"
	TaskID string `json:"task_id,omitempty"`
}

// EventType identifies an inbound message from the backend.
type EventType string

const (
	// EventTaskStarted carries the backend-assigned task ID for the
	// generation about to stream, plus the follow-up flag.
	EventTaskStarted EventType = "task_started"
	// EventLLMResponse carries one phase of a streaming generation.
	EventLLMResponse EventType = "llm_response"
	// EventCommandSent acknowledges a client command (currently only stop).
	EventCommandSent EventType = "command_sent"
)

// StreamPhase is the lifecycle phase inside an llm_response event.
type StreamPhase string

const (
	PhaseStart       StreamPhase = "start"
	PhaseMessage     StreamPhase = "message"
	PhaseEnd         StreamPhase = "end"
	PhaseInterrupted StreamPhase = "interrupted"
	PhaseError       StreamPhase = "error"
)

// Event is the inbound message envelope. Fields are populated per Type:
// task_started fills TaskID/IsFollowup, llm_response fills Phase (and Data
// for the message phase), command_sent fills Command.
type Event struct {
	Type       EventType   `json:"type"`
	TaskID     string      `json:"task_id,omitempty"`
	IsFollowup bool        `json:"is_followup,omitempty"`
	Phase      StreamPhase `json:"event,omitempty"`
	Data       string      `json:"data,omitempty"`
	Command    string      `json:"command,omitempty"`
}

// known reports whether the event type is one the client understands.
// Unknown types are logged and dropped by the read pump.
func (e Event) known() bool {
	switch e.Type {
	case EventTaskStarted, EventLLMResponse, EventCommandSent:
		return true
	}
	return false
}

// ConnState is surfaced to the presentation layer whenever the underlying
// connection comes up or goes down.
type ConnState string

const (
	StateConnected    ConnState = "connected"
	StateDisconnected ConnState = "disconnected"
)

// Channel is what the conversation controller consumes: a readiness probe
// and the two outbound commands. Send failures are treated as no-ops by
// the controller; recovery is the transport's own reconnect loop.
type Channel interface {
	Ready() bool
	SendQuestion(ctx context.Context, question, conversationID string) error
	SendStop(ctx context.Context, taskID string) error
}

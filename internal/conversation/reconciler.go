// ABOUTME: Streaming reconciler: folds transport events into conversation state
// ABOUTME: A strict left-fold — fragments append in arrival order, terminals freeze

package conversation

import (
	"context"

	"github.com/2389/tutorchat/internal/store"
	"github.com/2389/tutorchat/internal/transport"
)

// HandleEvent folds one backend event into conversation state. Events are
// processed strictly in arrival order; there is no buffering or replay.
// Every mutation is copy-on-write and followed by a store upsert and a
// snapshot publish.
func (c *Controller) HandleEvent(ctx context.Context, ev transport.Event) {
	c.mu.Lock()
	changed := c.handleEventLocked(ctx, ev)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notifier.Publish(snap)
	}
}

func (c *Controller) handleEventLocked(ctx context.Context, ev transport.Event) bool {
	switch ev.Type {
	case transport.EventTaskStarted:
		// Record the task ID for later cancellation and the follow-up
		// flag for the assistant message about to be created.
		c.currentTaskID = ev.TaskID
		c.isFollowup = ev.IsFollowup
		c.logger.Debug("task started",
			"task_id", ev.TaskID,
			"is_followup", ev.IsFollowup)
		return true

	case transport.EventLLMResponse:
		switch ev.Phase {
		case transport.PhaseStart:
			c.isGenerating = true
			return true
		case transport.PhaseMessage:
			return c.appendFragmentLocked(ctx, ev.Data)
		case transport.PhaseEnd, transport.PhaseInterrupted, transport.PhaseError:
			return c.finishGenerationLocked(ctx, ev.Phase)
		default:
			c.logger.Warn("unknown llm_response phase", "phase", ev.Phase)
			return false
		}

	case transport.EventCommandSent:
		// Acknowledgement of a client-requested stop. Clears generation
		// state without touching message content; the interrupted
		// terminal (which may still follow) freezes the message. Both
		// arriving for the same task is expected — the second is a no-op.
		if ev.Command != transport.CommandStop {
			return false
		}
		if !c.isGenerating && c.currentTaskID == "" {
			return false
		}
		c.isGenerating = false
		c.currentTaskID = ""
		c.logger.Debug("stop acknowledged")
		return true
	}

	c.logger.Warn("unknown event type", "type", ev.Type)
	return false
}

// appendFragmentLocked reconciles one streamed fragment: append to the
// trailing in-flight assistant message, or create it. The fragment targets
// the conversation the task is bound to, not whatever is currently active.
func (c *Controller) appendFragmentLocked(ctx context.Context, fragment string) bool {
	targetID := c.taskConversationID
	if targetID == "" {
		targetID = c.activeID
	}
	conv, ok := c.collection.Find(targetID)
	if !ok {
		// Bound conversation was deleted mid-stream; drop the fragment.
		c.logger.Debug("fragment dropped, conversation gone", "conversation_id", targetID)
		return false
	}

	now := c.now()
	conv = conv.Clone()

	if n := len(conv.Messages); n > 0 &&
		conv.Messages[n-1].Role == store.RoleAssistant &&
		conv.Messages[n-1].Status == store.StatusGenerating {
		conv.Messages[n-1].Content += fragment
	} else {
		conv.Messages = append(conv.Messages, store.Message{
			ID:         c.newID(),
			Role:       store.RoleAssistant,
			Content:    fragment,
			Status:     store.StatusGenerating,
			Timestamp:  now,
			IsFollowup: c.isFollowup,
		})
	}
	conv.LastUpdated = now

	c.collection = c.collection.Upsert(conv)
	c.persist(ctx, conv)
	return true
}

// finishGenerationLocked handles a terminal event: freeze the trailing
// generating message (partial content is preserved as-is, even on error or
// interruption) and clear the generation session. Idempotent — a second
// terminal for the same task finds nothing generating and changes nothing.
func (c *Controller) finishGenerationLocked(ctx context.Context, phase transport.StreamPhase) bool {
	changed := false

	targetID := c.taskConversationID
	if targetID == "" {
		targetID = c.activeID
	}
	if conv, ok := c.collection.Find(targetID); ok {
		if n := len(conv.Messages); n > 0 && conv.Messages[n-1].Status == store.StatusGenerating {
			conv = conv.Clone()
			conv.Messages[n-1].Status = store.StatusComplete
			conv.LastUpdated = c.now()
			c.collection = c.collection.Upsert(conv)
			c.persist(ctx, conv)
			changed = true
		}
	}

	if c.isGenerating || c.currentTaskID != "" || c.taskConversationID != "" {
		c.isGenerating = false
		c.currentTaskID = ""
		c.taskConversationID = ""
		changed = true
	}

	if changed {
		c.logger.Debug("generation finished", "phase", phase)
	}
	return changed
}

// ABOUTME: Tests for the streaming reconciler event fold
// ABOUTME: Covers fragment ordering, terminal idempotence, and task-conversation binding

package conversation

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2389/tutorchat/internal/store"
	"github.com/2389/tutorchat/internal/transport"
)

func fragment(data string) transport.Event {
	return transport.Event{
		Type:  transport.EventLLMResponse,
		Phase: transport.PhaseMessage,
		Data:  data,
	}
}

func terminal(phase transport.StreamPhase) transport.Event {
	return transport.Event{Type: transport.EventLLMResponse, Phase: phase}
}

// generatingCount walks every message of every conversation and counts
// those still marked generating.
func generatingCount(snap Snapshot) int {
	n := 0
	for _, conv := range snap.Conversations {
		for _, msg := range conv.Messages {
			if msg.Status == store.StatusGenerating {
				n++
			}
		}
	}
	return n
}

func TestReconcile_FragmentsConcatenateInOrder(t *testing.T) {
	c, mem, _ := newTestController(t)
	ctx := context.Background()

	c.Ask(ctx, "explain recursion")
	startGeneration(t, c, "task-1")

	for _, f := range []string{"Recursion ", "is a function ", "calling itself."} {
		c.HandleEvent(ctx, fragment(f))
	}

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	last := snap.Messages[1]
	assert.Equal(t, store.RoleAssistant, last.Role)
	assert.Equal(t, "Recursion is a function calling itself.", last.Content)
	assert.Equal(t, store.StatusGenerating, last.Status)
	assert.True(t, snap.IsGenerating)

	c.HandleEvent(ctx, terminal(transport.PhaseEnd))

	snap = c.Snapshot()
	assert.Equal(t, store.StatusComplete, snap.Messages[1].Status)
	assert.False(t, snap.IsGenerating)
	assert.Empty(t, snap.CurrentTaskID)

	// The full content, not just the final fragment, is persisted.
	persisted, err := mem.Load(ctx)
	require.NoError(t, err)
	require.Len(t, persisted, 1)
	require.Len(t, persisted[0].Messages, 2)
	assert.Equal(t, "Recursion is a function calling itself.", persisted[0].Messages[1].Content)
}

func TestReconcile_AtMostOneMessageGenerating(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	c.Ask(ctx, "first")
	startGeneration(t, c, "task-1")
	c.HandleEvent(ctx, fragment("partial answer"))
	assert.Equal(t, 1, generatingCount(c.Snapshot()))

	c.HandleEvent(ctx, terminal(transport.PhaseEnd))
	assert.Equal(t, 0, generatingCount(c.Snapshot()))

	// A second round never produces a second in-flight message.
	c.Ask(ctx, "second")
	startGeneration(t, c, "task-2")
	c.HandleEvent(ctx, fragment("another answer"))

	snap := c.Snapshot()
	assert.Equal(t, 1, generatingCount(snap))
	require.Len(t, snap.Messages, 4)
	assert.Equal(t, "partial answer", snap.Messages[1].Content)
	assert.Equal(t, "another answer", snap.Messages[3].Content)
}

func TestReconcile_TerminalsAreIdempotent(t *testing.T) {
	phases := []transport.StreamPhase{
		transport.PhaseEnd,
		transport.PhaseInterrupted,
		transport.PhaseError,
	}
	for _, second := range phases {
		t.Run(string(second), func(t *testing.T) {
			c, _, _ := newTestController(t)
			ctx := context.Background()

			c.Ask(ctx, "question")
			startGeneration(t, c, "task-1")
			c.HandleEvent(ctx, fragment("partial"))

			c.HandleEvent(ctx, terminal(transport.PhaseEnd))
			frozen := c.Snapshot()

			c.HandleEvent(ctx, terminal(second))
			after := c.Snapshot()

			assert.Equal(t, frozen.Messages, after.Messages)
			assert.False(t, after.IsGenerating)
			assert.Empty(t, after.CurrentTaskID)
		})
	}
}

func TestReconcile_InterruptedPreservesPartialContent(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	c.Ask(ctx, "question")
	startGeneration(t, c, "task-1")
	c.HandleEvent(ctx, fragment("this much and no "))

	c.HandleEvent(ctx, terminal(transport.PhaseInterrupted))

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "this much and no ", snap.Messages[1].Content)
	assert.Equal(t, store.StatusComplete, snap.Messages[1].Status)
	assert.False(t, snap.IsGenerating)
}

func TestReconcile_StopAckThenInterrupted(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	c.Ask(ctx, "question")
	startGeneration(t, c, "task-1")
	c.HandleEvent(ctx, fragment("partial"))

	// Backend acknowledges the stop first: flags clear, content intact
	// and still marked generating until the terminal lands.
	c.HandleEvent(ctx, transport.Event{
		Type:    transport.EventCommandSent,
		Command: transport.CommandStop,
	})
	snap := c.Snapshot()
	assert.False(t, snap.IsGenerating)
	assert.Empty(t, snap.CurrentTaskID)
	assert.Equal(t, "partial", snap.Messages[1].Content)

	c.HandleEvent(ctx, terminal(transport.PhaseInterrupted))
	snap = c.Snapshot()
	assert.Equal(t, store.StatusComplete, snap.Messages[1].Status)
	assert.Equal(t, "partial", snap.Messages[1].Content)
}

func TestReconcile_FollowupFlagStampsAssistantMessage(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	c.Ask(ctx, "first")
	c.HandleEvent(ctx, transport.Event{
		Type:       transport.EventTaskStarted,
		TaskID:     "task-1",
		IsFollowup: true,
	})
	c.HandleEvent(ctx, transport.Event{Type: transport.EventLLMResponse, Phase: transport.PhaseStart})
	c.HandleEvent(ctx, fragment("a follow-up answer"))

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.True(t, snap.Messages[1].IsFollowup)
	assert.True(t, snap.IsFollowup)
}

func TestReconcile_FragmentsFollowBoundConversation(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	// Conversation A exists and is idle.
	c.Ask(ctx, "question in A")
	c.HandleEvent(ctx, terminal(transport.PhaseEnd))
	a := c.Snapshot().ActiveConversationID

	// Conversation B asks and starts streaming.
	c.CreateConversation(ctx)
	c.Ask(ctx, "question in B")
	b := c.Snapshot().ActiveConversationID
	startGeneration(t, c, "task-1")
	c.HandleEvent(ctx, fragment("streamed into B, "))

	// User switches back to A mid-stream; fragments keep landing in B.
	c.SelectConversation(ctx, a)
	c.HandleEvent(ctx, fragment("not into A."))
	c.HandleEvent(ctx, terminal(transport.PhaseEnd))

	snap := c.Snapshot()
	assert.Equal(t, a, snap.ActiveConversationID)
	require.Len(t, snap.Messages, 1, "conversation A only has its own question")

	var convB store.Conversation
	for _, conv := range snap.Conversations {
		if conv.ID == b {
			convB = conv
		}
	}
	require.Len(t, convB.Messages, 2)
	assert.Equal(t, "streamed into B, not into A.", convB.Messages[1].Content)
	assert.Equal(t, store.StatusComplete, convB.Messages[1].Status)
}

func TestReconcile_FragmentForDeletedConversationDropped(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	c.Ask(ctx, "doomed question")
	id := c.Snapshot().ActiveConversationID
	startGeneration(t, c, "task-1")
	c.HandleEvent(ctx, fragment("partial"))

	c.DeleteConversations(ctx, []string{id})
	c.HandleEvent(ctx, fragment("into the void"))
	c.HandleEvent(ctx, terminal(transport.PhaseEnd))

	snap := c.Snapshot()
	assert.Empty(t, snap.Conversations)
	assert.False(t, snap.IsGenerating)
}

func TestReconcile_StopAckWithoutSessionIsNoOp(t *testing.T) {
	c, _, _ := newTestController(t)
	ctx := context.Background()

	ctxSub, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch, _ := c.Subscribe(ctxSub)

	c.HandleEvent(ctx, transport.Event{
		Type:    transport.EventCommandSent,
		Command: transport.CommandStop,
	})

	select {
	case snap := <-ch:
		t.Fatalf("unexpected snapshot published: %+v", snap)
	default:
	}
}

func TestReconcile_FragmentWithoutAskTargetsActiveConversation(t *testing.T) {
	// A stream arriving with no recorded ask (e.g. after a client restart
	// mid-task) falls back to the active conversation.
	seed := store.Collection{{
		ID:    "existing",
		Title: "existing",
		Messages: []store.Message{
			{ID: "m1", Role: store.RoleUser, Content: "earlier question"},
		},
	}}
	c, _, _ := newTestControllerWith(t, seed)
	ctx := context.Background()

	startGeneration(t, c, "task-1")
	c.HandleEvent(ctx, fragment("late answer"))
	c.HandleEvent(ctx, terminal(transport.PhaseEnd))

	snap := c.Snapshot()
	require.Len(t, snap.Messages, 2)
	assert.Equal(t, "late answer", snap.Messages[1].Content)
	assert.Equal(t, store.StatusComplete, snap.Messages[1].Status)
}

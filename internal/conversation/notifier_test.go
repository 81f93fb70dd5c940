// ABOUTME: Tests for the snapshot notifier fan-out
// ABOUTME: Verifies delivery, non-blocking publish, and unsubscribe cleanup

package conversation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNotifier_DeliversToAllSubscribers(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()

	ctx := context.Background()
	ch1, _ := n.Subscribe(ctx)
	ch2, _ := n.Subscribe(ctx)

	n.Publish(Snapshot{ActiveConversationID: "conv-1"})

	for _, ch := range []<-chan Snapshot{ch1, ch2} {
		select {
		case snap := <-ch:
			assert.Equal(t, "conv-1", snap.ActiveConversationID)
		case <-time.After(time.Second):
			t.Fatal("snapshot not delivered")
		}
	}
}

func TestNotifier_SlowSubscriberDoesNotBlockPublish(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()

	ch, _ := n.Subscribe(context.Background())

	// Overfill the buffer; publishes past capacity must not block.
	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBufferSize*2; i++ {
			n.Publish(Snapshot{CurrentTaskID: "task"})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	// The buffered snapshots are still readable.
	received := 0
	for drained := false; !drained; {
		select {
		case <-ch:
			received++
		default:
			drained = true
		}
	}
	assert.Equal(t, subscriberBufferSize, received)
}

func TestNotifier_UnsubscribeClosesChannel(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()

	ch, subID := n.Subscribe(context.Background())
	n.Unsubscribe(subID)

	_, open := <-ch
	assert.False(t, open)

	// Double unsubscribe is safe.
	n.Unsubscribe(subID)
}

func TestNotifier_ContextCancelUnsubscribes(t *testing.T) {
	n := NewNotifier(nil)
	defer n.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := n.Subscribe(ctx)
	cancel()

	select {
	case _, open := <-ch:
		require.False(t, open)
	case <-time.After(time.Second):
		t.Fatal("channel not closed after context cancellation")
	}
}

func TestNotifier_CloseShutsDownAllSubscribers(t *testing.T) {
	n := NewNotifier(nil)

	ch1, _ := n.Subscribe(context.Background())
	ch2, _ := n.Subscribe(context.Background())
	n.Close()

	_, open := <-ch1
	assert.False(t, open)
	_, open = <-ch2
	assert.False(t, open)
}

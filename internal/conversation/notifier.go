// ABOUTME: In-memory fan-out of state snapshots to presentation subscribers
// ABOUTME: Non-blocking publish — a slow subscriber skips snapshots, never stalls the core

package conversation

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"
)

// subscriberBufferSize is the channel buffer for each subscriber. Snapshots
// supersede each other, so skipping intermediate ones is harmless.
const subscriberBufferSize = 16

// Notifier provides in-memory pub/sub for state snapshots. The controller
// publishes after every mutation; the presentation layer subscribes and
// re-renders from whatever it receives.
type Notifier struct {
	mu          sync.RWMutex
	subscribers map[string]chan Snapshot
	logger      *slog.Logger
}

// NewNotifier creates a notifier. Pass nil logger for default.
func NewNotifier(logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		subscribers: make(map[string]chan Snapshot),
		logger:      logger.With("component", "notifier"),
	}
}

// Subscribe registers a snapshot subscriber. Returns the channel and a
// subscription ID for later unsubscription. The subscription is cleaned up
// automatically when ctx is cancelled.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan Snapshot, string) {
	subID := uuid.New().String()
	ch := make(chan Snapshot, subscriberBufferSize)

	n.mu.Lock()
	n.subscribers[subID] = ch
	n.mu.Unlock()

	go func() {
		<-ctx.Done()
		n.Unsubscribe(subID)
	}()

	return ch, subID
}

// Publish delivers a snapshot to all subscribers. Non-blocking: snapshots
// are dropped for subscribers whose channels are full.
func (n *Notifier) Publish(snap Snapshot) {
	n.mu.RLock()
	targets := make([]chan Snapshot, 0, len(n.subscribers))
	for _, ch := range n.subscribers {
		targets = append(targets, ch)
	}
	n.mu.RUnlock()

	for _, ch := range targets {
		select {
		case ch <- snap:
		default:
			n.logger.Debug("snapshot dropped for slow subscriber")
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (n *Notifier) Unsubscribe(subID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	ch, ok := n.subscribers[subID]
	if !ok {
		return
	}
	delete(n.subscribers, subID)
	close(ch)
}

// Close shuts down the notifier and closes all subscriber channels.
func (n *Notifier) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()

	for subID, ch := range n.subscribers {
		close(ch)
		delete(n.subscribers, subID)
	}
}

// ABOUTME: Controller is the command surface over conversation state
// ABOUTME: Owns the collection, the active conversation, and generation session state

package conversation

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/2389/tutorchat/internal/store"
	"github.com/2389/tutorchat/internal/transport"
)

// persistTimeout bounds fire-and-forget store writes so a stuck database
// never blocks the event pump.
const persistTimeout = 5 * time.Second

// Controller owns all conversation state: the collection, the active
// conversation, the multi-select set, and the generation session. Every
// command degrades to a no-op on malformed input; transport failures are
// logged and absorbed, recovery being the transport's reconnect loop.
//
// A single mutex serializes the two entry paths (UI commands and the
// transport event pump), so each inbound event folds atomically and the
// reconciler stays a strict left-fold over the stream.
type Controller struct {
	stor     store.Store
	channel  transport.Channel
	logger   *slog.Logger
	notifier *Notifier

	// Seams for tests.
	now   func() time.Time
	newID func() string

	mu         sync.Mutex
	collection store.Collection
	activeID   string
	selected   map[string]bool

	// Generation session state. A task is bound to the conversation that
	// was active when Ask sent it; fragments reconcile into that
	// conversation even if the user switches away mid-stream.
	isGenerating       bool
	currentTaskID      string
	isFollowup         bool
	taskConversationID string
}

// Config holds Controller construction parameters.
type Config struct {
	Store   store.Store
	Channel transport.Channel
	// Logger defaults to slog.Default().
	Logger *slog.Logger
	// Now defaults to time.Now; tests inject a fixed clock.
	Now func() time.Time
	// NewID defaults to uuid.NewString.
	NewID func() string
}

// New creates a Controller, loads the persisted collection, and selects
// the most recently updated conversation as active (matching what a
// returning user expects to see first).
func New(ctx context.Context, cfg Config) (*Controller, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	newID := cfg.NewID
	if newID == nil {
		newID = uuid.NewString
	}

	c := &Controller{
		stor:     cfg.Store,
		channel:  cfg.Channel,
		logger:   logger.With("component", "conversation"),
		notifier: NewNotifier(logger),
		now:      now,
		newID:    newID,
		selected: make(map[string]bool),
	}

	collection, err := cfg.Store.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.collection = collection
	if recent, ok := collection.MostRecent(); ok {
		c.activeID = recent.ID
	}

	c.logger.Info("conversation state loaded",
		"conversations", len(collection),
		"active_id", c.activeID)
	return c, nil
}

// Run drains the transport event queue until it closes or ctx is
// cancelled. It is the queue's sole consumer.
func (c *Controller) Run(ctx context.Context, events <-chan transport.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			c.HandleEvent(ctx, ev)
		}
	}
}

// Subscribe registers a snapshot subscriber; see Notifier.Subscribe.
func (c *Controller) Subscribe(ctx context.Context) (<-chan Snapshot, string) {
	return c.notifier.Subscribe(ctx)
}

// Close shuts down the notifier.
func (c *Controller) Close() {
	c.notifier.Close()
}

// CreateConversation allocates a new empty conversation, makes it active,
// and clears the follow-up flag and the selection set. Always succeeds.
func (c *Controller) CreateConversation(ctx context.Context) store.Conversation {
	c.mu.Lock()
	conv := c.createConversationLocked(ctx)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifier.Publish(snap)
	return conv
}

func (c *Controller) createConversationLocked(ctx context.Context) store.Conversation {
	now := c.now()
	conv := store.Conversation{
		ID:          c.newID(),
		Title:       store.DefaultTitle,
		Messages:    []store.Message{},
		Created:     now,
		LastUpdated: now,
	}
	c.collection = c.collection.Upsert(conv)
	c.activeID = conv.ID
	c.isFollowup = false
	c.selected = make(map[string]bool)

	c.persist(ctx, conv)
	c.logger.Debug("conversation created", "conversation_id", conv.ID)
	return conv
}

// Ask submits a question on the active conversation. It is a no-op when
// the question is blank, the transport is not ready, or a generation is
// already in flight. The user message is appended optimistically, the
// title is derived from the first message, and the question is sent with
// the conversation ID so streaming stays scoped to it.
func (c *Controller) Ask(ctx context.Context, question string) {
	if strings.TrimSpace(question) == "" {
		return
	}

	c.mu.Lock()
	changed := c.askLocked(ctx, question)
	snap := c.snapshotLocked()
	c.mu.Unlock()

	if changed {
		c.notifier.Publish(snap)
	}
}

func (c *Controller) askLocked(ctx context.Context, question string) bool {
	if !c.channel.Ready() {
		c.logger.Debug("ask dropped, transport not ready")
		return false
	}
	if c.isGenerating {
		c.logger.Debug("ask rejected, generation in flight", "task_id", c.currentTaskID)
		return false
	}

	if c.activeID == "" {
		c.createConversationLocked(ctx)
	}
	conv, ok := c.collection.Find(c.activeID)
	if !ok {
		// Active ID points nowhere; recover by starting fresh.
		conv = c.createConversationLocked(ctx)
	}

	now := c.now()
	conv = conv.Clone()
	conv.Messages = append(conv.Messages, store.Message{
		ID:        c.newID(),
		Role:      store.RoleUser,
		Content:   question,
		Timestamp: now,
	})
	if len(conv.Messages) == 1 {
		conv.Title = store.DeriveTitle(question)
	}
	conv.LastUpdated = now

	c.collection = c.collection.Upsert(conv)
	c.taskConversationID = conv.ID
	c.isFollowup = false
	c.persist(ctx, conv)

	if err := c.channel.SendQuestion(ctx, question, conv.ID); err != nil {
		c.logger.Warn("question send failed", "error", err, "conversation_id", conv.ID)
	}
	return true
}

// Stop requests cancellation of the in-flight generation task. No-op when
// no task ID has been recorded. The message is not frozen optimistically;
// the reconciler waits for the backend's acknowledgement or terminal event.
func (c *Controller) Stop(ctx context.Context) {
	c.mu.Lock()
	taskID := c.currentTaskID
	c.mu.Unlock()

	if taskID == "" {
		return
	}
	if err := c.channel.SendStop(ctx, taskID); err != nil {
		c.logger.Warn("stop send failed", "error", err, "task_id", taskID)
	}
}

// SelectConversation flushes the active conversation to the store,
// switches to the given conversation, and resets the follow-up flag.
// Unknown IDs leave state unchanged. An in-flight stream is unaffected:
// it stays bound to its own conversation.
func (c *Controller) SelectConversation(ctx context.Context, id string) {
	c.mu.Lock()
	target, ok := c.collection.Find(id)
	if !ok {
		c.mu.Unlock()
		return
	}

	if current, found := c.collection.Find(c.activeID); found {
		c.persist(ctx, current)
	}
	c.activeID = target.ID
	c.isFollowup = false

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifier.Publish(snap)
}

// DeleteConversations removes the given conversations. If the active one
// was among them, the most recently updated survivor becomes active, or
// the client returns to the empty state. The selection set is cleared
// regardless of outcome.
func (c *Controller) DeleteConversations(ctx context.Context, ids []string) {
	if len(ids) == 0 {
		return
	}

	c.mu.Lock()
	removed := make(map[string]bool, len(ids))
	for _, id := range ids {
		removed[id] = true
	}

	c.collection = c.collection.Remove(ids)

	if removed[c.activeID] {
		if recent, ok := c.collection.MostRecent(); ok {
			c.activeID = recent.ID
		} else {
			c.activeID = ""
		}
	}
	c.selected = make(map[string]bool)

	removeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	if _, err := c.stor.Remove(removeCtx, ids); err != nil {
		c.logger.Error("failed to remove conversations", "error", err, "count", len(ids))
	}
	cancel()

	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifier.Publish(snap)
}

// DeleteSelected removes every conversation in the multi-select set.
func (c *Controller) DeleteSelected(ctx context.Context) {
	c.mu.Lock()
	ids := make([]string, 0, len(c.selected))
	for id := range c.selected {
		ids = append(ids, id)
	}
	c.mu.Unlock()

	c.DeleteConversations(ctx, ids)
}

// ToggleSelection adds or removes a conversation from the multi-select
// set used for bulk delete. Pure set-membership toggle.
func (c *Controller) ToggleSelection(id string) {
	c.mu.Lock()
	if c.selected[id] {
		delete(c.selected, id)
	} else {
		c.selected[id] = true
	}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notifier.Publish(snap)
}

// Snapshot returns the presentation-facing read-only state surface.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// persist writes one conversation through to the store, fire-and-forget.
// A failed write is logged, never propagated: the in-memory state is the
// live truth and the next mutation retries the full record anyway.
func (c *Controller) persist(ctx context.Context, conv store.Conversation) {
	persistCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := c.stor.Upsert(persistCtx, conv); err != nil {
		c.logger.Error("failed to persist conversation",
			"error", err,
			"conversation_id", conv.ID)
	}
}

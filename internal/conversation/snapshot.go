// ABOUTME: Snapshot is the read-only state surface consumed by the presentation layer
// ABOUTME: Deep-copied on every build so the UI can never mutate live state

package conversation

import "github.com/2389/tutorchat/internal/store"

// Snapshot captures everything the presentation layer renders: the
// conversation list (most-recent-first), the active conversation's message
// sequence, and the generation session state. It is refreshed on every
// core mutation and shares no memory with the controller.
type Snapshot struct {
	ActiveConversationID string
	Conversations        store.Collection
	Messages             []store.Message
	IsGenerating         bool
	IsFollowup           bool
	CurrentTaskID        string
	Selected             map[string]bool
}

// ActiveConversation returns the active conversation, if one exists.
func (s Snapshot) ActiveConversation() (store.Conversation, bool) {
	for _, conv := range s.Conversations {
		if conv.ID == s.ActiveConversationID {
			return conv, true
		}
	}
	return store.Conversation{}, false
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		ActiveConversationID: c.activeID,
		Conversations:        c.collection.SortedByRecency(),
		IsGenerating:         c.isGenerating,
		IsFollowup:           c.isFollowup,
		CurrentTaskID:        c.currentTaskID,
		Selected:             make(map[string]bool, len(c.selected)),
	}
	for id := range c.selected {
		snap.Selected[id] = true
	}
	if conv, ok := c.collection.Find(c.activeID); ok {
		active := conv.Clone()
		snap.Messages = active.Messages
	}
	return snap
}

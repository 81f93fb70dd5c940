// ABOUTME: Store interface and data types for tutorchat conversation persistence
// ABOUTME: Defines Conversation, Message, Collection and the Store interface

package store

import (
	"context"
	"errors"
	"strings"
	"time"
)

// ErrNotFound is returned when a requested entity does not exist
var ErrNotFound = errors.New("not found")

// Role identifies who authored a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MessageStatus tracks the streaming state of an assistant message.
type MessageStatus string

const (
	// StatusGenerating marks an assistant message still receiving fragments.
	StatusGenerating MessageStatus = "generating"
	// StatusComplete marks a frozen message; content no longer changes.
	StatusComplete MessageStatus = "complete"
)

// Message is a single entry in a conversation. Status and IsFollowup are
// only meaningful for assistant messages.
type Message struct {
	ID         string        `json:"id"`
	Role       Role          `json:"role"`
	Content    string        `json:"content"`
	Status     MessageStatus `json:"status,omitempty"`
	Timestamp  time.Time     `json:"timestamp"`
	IsFollowup bool          `json:"is_followup,omitempty"`
}

// Conversation is a titled, ordered sequence of messages. Identity is ID.
type Conversation struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Messages    []Message `json:"messages"`
	Created     time.Time `json:"created"`
	LastUpdated time.Time `json:"last_updated"`
}

// Clone returns a deep copy so callers can hand out snapshots without
// sharing the message slice.
func (c Conversation) Clone() Conversation {
	out := c
	out.Messages = make([]Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return out
}

// DefaultTitle is used for conversations that have no first question yet.
const DefaultTitle = "(untitled)"

// titleMaxRunes is the cut-off before the ellipsis marker is appended.
const titleMaxRunes = 30

// DeriveTitle builds a conversation title from the first user question:
// the question itself, or its first 30 runes plus "..." when longer.
func DeriveTitle(question string) string {
	question = strings.TrimSpace(question)
	if question == "" {
		return DefaultTitle
	}
	runes := []rune(question)
	if len(runes) <= titleMaxRunes {
		return question
	}
	return string(runes[:titleMaxRunes]) + "..."
}

// Store persists the conversation collection as a single serialized record.
// Implementations must treat an absent or malformed record as an empty
// collection, and must not leave a stale record behind when the collection
// becomes empty.
type Store interface {
	// Load returns the persisted collection, or an empty one if nothing
	// (or nothing readable) was persisted.
	Load(ctx context.Context) (Collection, error)

	// Save replaces the persisted collection wholesale. Saving an empty
	// collection deletes the record.
	Save(ctx context.Context, c Collection) error

	// Upsert replaces-or-inserts one conversation by ID.
	Upsert(ctx context.Context, conv Conversation) error

	// Remove deletes all conversations whose IDs are in ids and returns
	// the resulting collection.
	Remove(ctx context.Context, ids []string) (Collection, error)

	Close() error
}

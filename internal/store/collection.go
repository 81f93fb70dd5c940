// ABOUTME: Collection is the in-memory conversation list with copy-on-write helpers
// ABOUTME: All mutating helpers return a new Collection; receivers are never modified

package store

import "sort"

// Collection is an ordered list of conversations. New conversations are
// inserted at the front; replacing an existing one keeps its slot, so the
// list order is stable across streaming updates. Recency ordering is a
// view concern served by SortedByRecency.
type Collection []Conversation

// Find returns the conversation with the given ID.
func (c Collection) Find(id string) (Conversation, bool) {
	for _, conv := range c {
		if conv.ID == id {
			return conv, true
		}
	}
	return Conversation{}, false
}

// Upsert returns a new collection with conv replaced in place if its ID
// already exists, or prepended otherwise.
func (c Collection) Upsert(conv Conversation) Collection {
	for i, existing := range c {
		if existing.ID == conv.ID {
			out := make(Collection, len(c))
			copy(out, c)
			out[i] = conv
			return out
		}
	}
	out := make(Collection, 0, len(c)+1)
	out = append(out, conv)
	return append(out, c...)
}

// Remove returns a new collection without the conversations whose IDs are
// in ids. Unknown IDs are ignored.
func (c Collection) Remove(ids []string) Collection {
	if len(ids) == 0 {
		return c.Clone()
	}
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	out := make(Collection, 0, len(c))
	for _, conv := range c {
		if !drop[conv.ID] {
			out = append(out, conv)
		}
	}
	return out
}

// MostRecent returns the conversation with the latest LastUpdated.
func (c Collection) MostRecent() (Conversation, bool) {
	if len(c) == 0 {
		return Conversation{}, false
	}
	best := c[0]
	for _, conv := range c[1:] {
		if conv.LastUpdated.After(best.LastUpdated) {
			best = conv
		}
	}
	return best, true
}

// SortedByRecency returns a copy ordered most-recently-updated first.
// The sort is stable so equal timestamps keep their insertion order.
func (c Collection) SortedByRecency() Collection {
	out := c.Clone()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].LastUpdated.After(out[j].LastUpdated)
	})
	return out
}

// Clone returns a deep copy of the collection.
func (c Collection) Clone() Collection {
	out := make(Collection, len(c))
	for i, conv := range c {
		out[i] = conv.Clone()
	}
	return out
}

// Package store provides persistent storage for conversations using SQLite.
//
// # Architecture
//
// The conversation collection is persisted as a single serialized record,
// the way a browser client would keep it under one localStorage key. The
// Store interface exposes whole-collection Load/Save plus the two
// record-level mutations the controller needs:
//
//   - Load: returns the persisted collection; absent or malformed data is
//     an empty collection, never an error
//   - Save: full replace; saving an empty collection deletes the record
//   - Upsert: replace-or-insert one conversation by ID
//   - Remove: delete a set of conversations, returning the survivors
//
// SQLiteStore implements the interface on modernc.org/sqlite; MemoryStore
// is a contract-faithful in-memory fake for tests.
//
// # Data Models
//
//   - Conversation: id, derived title, ordered messages, timestamps
//   - Message: id, role (user/assistant), content, streaming status
//   - Collection: ordered conversation list with copy-on-write helpers
//
// # Invariants
//
// Collection helpers never mutate their receiver: Upsert, Remove and
// SortedByRecency all return fresh values so the controller can hand out
// snapshots without defensive copying. Upsert keeps an existing
// conversation's slot and prepends new ones; recency ordering is computed
// per call from LastUpdated.
package store

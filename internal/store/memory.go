// ABOUTME: In-memory Store implementation for tests and storage-less runs
// ABOUTME: Mirrors the SQLite semantics including empty-save record deletion

package store

import (
	"context"
	"sync"
)

// MemoryStore keeps the collection in memory. It honors the same contract
// as SQLiteStore, which makes it a drop-in fake for controller tests.
type MemoryStore struct {
	mu         sync.Mutex
	collection Collection
	hasRecord  bool

	// SaveCalls counts Save invocations, for test assertions.
	SaveCalls int
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Seed replaces the stored collection, as if it had been persisted earlier.
func (m *MemoryStore) Seed(c Collection) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = c.Clone()
	m.hasRecord = len(c) > 0
}

// HasRecord reports whether a persisted record currently exists.
func (m *MemoryStore) HasRecord() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hasRecord
}

func (m *MemoryStore) Load(ctx context.Context) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.hasRecord {
		return Collection{}, nil
	}
	return m.collection.Clone(), nil
}

func (m *MemoryStore) Save(ctx context.Context, c Collection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SaveCalls++
	if len(c) == 0 {
		m.collection = nil
		m.hasRecord = false
		return nil
	}
	m.collection = c.Clone()
	m.hasRecord = true
	return nil
}

func (m *MemoryStore) Upsert(ctx context.Context, conv Conversation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = m.collection.Upsert(conv)
	m.hasRecord = true
	return nil
}

func (m *MemoryStore) Remove(ctx context.Context, ids []string) (Collection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection = m.collection.Remove(ids)
	m.hasRecord = len(m.collection) > 0
	return m.collection.Clone(), nil
}

func (m *MemoryStore) Close() error { return nil }

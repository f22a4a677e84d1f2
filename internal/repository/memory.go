package repository

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
)

// MemoryStore keeps documents in process. Used by tests and the memory backend.
type MemoryStore struct {
	mu   sync.Mutex
	docs map[string]Document
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (m *MemoryStore) Load(_ context.Context, key string) (*Document, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, ok := m.docs[key]
	if !ok {
		return nil, fmt.Errorf("Load: %s: %w", key, domain.ErrNotFound)
	}
	doc.Data = slices.Clone(doc.Data)
	return &doc, nil
}

func (m *MemoryStore) Save(_ context.Context, doc *Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.docs[doc.Key].Version
	if current != doc.Version-1 {
		return fmt.Errorf("Save: %s at version %d, got %d: %w", doc.Key, current, doc.Version, domain.ErrVersionConflict)
	}
	stored := *doc
	stored.Data = slices.Clone(doc.Data)
	m.docs[doc.Key] = stored
	return nil
}

func (m *MemoryStore) Ping(context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

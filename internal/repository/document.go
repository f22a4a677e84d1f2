package repository

import (
	"context"
	"time"
)

// Document is the durable form of the whole ledger: one versioned JSON body
// per storage key. Version starts at 1 and grows by one on every save.
type Document struct {
	Key       string
	Version   int64
	Data      []byte
	UpdatedAt time.Time
}

// DocumentStore is implemented by every backend. Load returns
// domain.ErrNotFound when nothing is stored under the key. Save succeeds only
// when the stored version is doc.Version-1, with an absent document counting
// as version 0; otherwise it returns domain.ErrVersionConflict.
type DocumentStore interface {
	Load(ctx context.Context, key string) (*Document, error)
	Save(ctx context.Context, doc *Document) error
	Ping(ctx context.Context) error
	Close() error
}

// WithDeadline bounds every Load and Save on s to d.
func WithDeadline(s DocumentStore, d time.Duration) DocumentStore {
	return deadlineStore{DocumentStore: s, d: d}
}

type deadlineStore struct {
	DocumentStore
	d time.Duration
}

func (s deadlineStore) Load(ctx context.Context, key string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.DocumentStore.Load(ctx, key)
}

func (s deadlineStore) Save(ctx context.Context, doc *Document) error {
	ctx, cancel := context.WithTimeout(ctx, s.d)
	defer cancel()
	return s.DocumentStore.Save(ctx, doc)
}

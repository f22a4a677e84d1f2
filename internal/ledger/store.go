package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/josh-kwaku/chama-ledger/internal/domain"
	"github.com/josh-kwaku/chama-ledger/internal/logging"
	"github.com/josh-kwaku/chama-ledger/internal/repository"
)

const DefaultStorageKey = "chama-ledger"

type documentStore interface {
	Load(ctx context.Context, key string) (*repository.Document, error)
	Save(ctx context.Context, doc *repository.Document) error
}

type Options struct {
	// Docs is optional; without it the store is purely in-memory.
	Docs documentStore
	Key  string

	// ShareValue converts confirmed contributions into whole shares.
	ShareValue domain.Money

	Now    func() time.Time
	NewID  func() string
	Logger *slog.Logger
}

// Store is the aggregate root owning every ledger collection. Commands are
// serialised by a single writer lock; each one works on a private copy of the
// state that replaces the live state only after derived fields are recomputed,
// invariants hold and the document has been saved.
type Store struct {
	mu      sync.RWMutex
	state   *State
	version int64

	docs       documentStore
	key        string
	shareValue domain.Money
	now        func() time.Time
	newID      func() string
	log        *slog.Logger
}

// errUnchanged lets a command report success without committing anything.
var errUnchanged = errors.New("unchanged")

// New returns a store seeded with DefaultState.
func New(opts Options) *Store {
	s := newStore(opts)
	s.state = DefaultState()
	// The default catalogue has no members to total.
	_ = s.derive(s.state)
	return s
}

// Open rehydrates a store from its durable document, reconciling it against
// DefaultState. A missing document yields the defaults.
func Open(ctx context.Context, opts Options) (*Store, error) {
	s := newStore(opts)
	if s.docs == nil {
		return nil, fmt.Errorf("Open: %w: no document store", domain.ErrInvalidRequest)
	}

	state, version, err := s.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("Open: %w", err)
	}
	s.state = state
	s.version = version

	s.log.Info("ledger loaded",
		"key", s.key,
		"version", s.version,
		"members", len(state.Members),
		"loans", len(state.Loans),
	)
	return s, nil
}

// load reads the durable document and rebuilds a verified state from it.
func (s *Store) load(ctx context.Context) (*State, int64, error) {
	var (
		persisted *State
		version   int64
	)
	doc, err := s.docs.Load(ctx, s.key)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		s.log.Info("no ledger document found, starting from defaults", "key", s.key)
	case err != nil:
		return nil, 0, err
	default:
		persisted, err = decodeState(doc.Data)
		if err != nil {
			return nil, 0, err
		}
		version = doc.Version
	}

	state := Reconcile(persisted, DefaultState())
	for i := range state.Loans {
		if err := state.Loans[i].CheckInvariants(); err != nil {
			s.log.Error("persisted ledger is inconsistent", "key", s.key, "error", err)
			return nil, 0, err
		}
	}
	if err := s.derive(state); err != nil {
		s.log.Error("persisted ledger is inconsistent", "key", s.key, "error", err)
		return nil, 0, err
	}
	if err := verify(state); err != nil {
		s.log.Error("persisted ledger is inconsistent", "key", s.key, "error", err)
		return nil, 0, err
	}
	return state, version, nil
}

func newStore(opts Options) *Store {
	s := &Store{
		docs:       opts.Docs,
		key:        opts.Key,
		shareValue: opts.ShareValue,
		now:        opts.Now,
		newID:      opts.NewID,
		log:        opts.Logger,
	}
	if s.key == "" {
		s.key = DefaultStorageKey
	}
	if s.now == nil {
		s.now = func() time.Time { return time.Now().UTC() }
	}
	if s.newID == nil {
		s.newID = uuid.NewString
	}
	if s.log == nil {
		s.log = slog.Default()
	}
	return s
}

// Version is the revision of the last saved document.
func (s *Store) Version() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// commit runs fn against a copy of the state and swaps it in when every step
// succeeds. The getter fn returns is evaluated after derived fields are
// recomputed, while the lock is still held.
func commit[T any](ctx context.Context, s *Store, op string, fn func(st *State) (func() T, error)) (T, error) {
	var zero T

	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.state.clone()
	get, err := fn(next)
	if errors.Is(err, errUnchanged) {
		return get(), nil
	}
	if err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.derive(next); err != nil {
		return zero, fmt.Errorf("%s: %w", op, err)
	}
	if err := verify(next); err != nil {
		logging.FromContext(ctx).Error("ledger invariant violated, command discarded", "op", op, "error", err)
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.persist(ctx, next); err != nil {
		if errors.Is(err, domain.ErrVersionConflict) {
			s.refresh(ctx, op)
			return zero, fmt.Errorf("%s: %w", op, err)
		}
		logging.FromContext(ctx).Error("ledger save failed, command discarded", "op", op, "error", err)
		return zero, fmt.Errorf("%s: %w", op, err)
	}

	s.state = next
	return get(), nil
}

// refresh replaces the live state with the durable one after another writer
// saved first, so the caller's retry runs against the newer revision. Callers
// hold the write lock.
func (s *Store) refresh(ctx context.Context, op string) {
	log := logging.FromContext(ctx)
	state, version, err := s.load(ctx)
	if err != nil {
		log.Error("ledger reload after conflict failed", "op", op, "error", err)
		return
	}
	log.Warn("ledger modified concurrently, reloaded",
		"op", op,
		"stale_version", s.version,
		"version", version,
	)
	s.state = state
	s.version = version
}

func (s *Store) persist(ctx context.Context, st *State) error {
	if s.docs == nil {
		return nil
	}
	data, err := json.Marshal(snapshot{SchemaVersion: schemaVersion, State: *st})
	if err != nil {
		return fmt.Errorf("persist: encode: %w", err)
	}
	doc := &repository.Document{
		Key:       s.key,
		Version:   s.version + 1,
		Data:      data,
		UpdatedAt: s.now(),
	}
	if err := s.docs.Save(ctx, doc); err != nil {
		return fmt.Errorf("persist: %w", err)
	}
	s.version = doc.Version
	return nil
}

func decodeState(data []byte) (*State, error) {
	var snap snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decodeState: %w", err)
	}
	if snap.SchemaVersion != schemaVersion {
		return nil, fmt.Errorf("decodeState: unsupported schema version %d: %w", snap.SchemaVersion, domain.ErrInvalidRequest)
	}
	return &snap.State, nil
}

// read runs fn under the read lock.
func read[T any](s *Store, fn func(st *State) (T, error)) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(s.state)
}

func (s *Store) today() time.Time {
	return dateOnly(s.now())
}

// dateOnly truncates to a UTC calendar date. The zero time stays zero.
func dateOnly(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *Store) dateOrToday(t time.Time) time.Time {
	if t.IsZero() {
		return s.today()
	}
	return dateOnly(t)
}

func ptr[T any](v T) *T { return &v }

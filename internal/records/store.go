package records

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"renewals/internal/core"
	"renewals/internal/log"
	"renewals/internal/storage"
)

// Store owns the date-grouped record collection and its persisted copy.
// Every mutation writes the full snapshot first and only then replaces the
// in-memory copy, so a failed write leaves the previous state in place.
type Store struct {
	mu       sync.RWMutex
	backend  storage.Backend
	key      string
	logger   *log.Logger
	groups   []core.DateGroup
	revision uint64
}

type Option func(*Store)

// ErrRejected is returned when a Guard refuses a write.
var ErrRejected = errors.New("write rejected")

// Guard inspects the collection under the write lock, just before a
// mutation, and returns false to abort it. It must not modify groups.
type Guard func(groups []core.DateGroup) bool

// WithKey overrides the storage key (default storage.RecordsKey).
func WithKey(key string) Option {
	return func(s *Store) { s.key = key }
}

func WithLogger(l *log.Logger) Option {
	return func(s *Store) { s.logger = l }
}

func NewStore(backend storage.Backend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		key:     storage.RecordsKey,
		groups:  []core.DateGroup{},
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = log.Default(log.ComponentRecords)
	}
	return s
}

// Load reads the persisted collection into memory and returns a copy of it.
// Missing or unreadable data yields an empty collection; the cause is logged.
func (s *Store) Load(ctx context.Context) []core.DateGroup {
	groups := s.read(ctx)

	s.mu.Lock()
	s.groups = groups
	s.revision++
	s.mu.Unlock()

	return Clone(groups)
}

func (s *Store) read(ctx context.Context) []core.DateGroup {
	raw, ok, err := s.backend.Get(ctx, s.key)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to read records, starting empty",
			log.FieldKey, s.key, log.FieldError, err)
		return []core.DateGroup{}
	}
	if !ok || len(raw) == 0 {
		return []core.DateGroup{}
	}

	var groups []core.DateGroup
	if err := json.Unmarshal(raw, &groups); err != nil {
		s.logger.WarnContext(ctx, "Stored records are malformed, starting empty",
			log.FieldKey, s.key, log.FieldError, err)
		return []core.DateGroup{}
	}
	if groups == nil {
		groups = []core.DateGroup{}
	}
	return groups
}

// Save persists groups as the whole collection and makes it current.
func (s *Store) Save(ctx context.Context, groups []core.DateGroup) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit(ctx, Clone(groups))
}

// commit writes next and swaps it in. Callers hold mu.
func (s *Store) commit(ctx context.Context, next []core.DateGroup) error {
	raw, err := json.Marshal(next)
	if err != nil {
		return fmt.Errorf("encode records: %w", err)
	}
	if err := s.backend.Set(ctx, s.key, raw); err != nil {
		return fmt.Errorf("save records: %w", err)
	}
	s.groups = next
	s.revision++
	s.logger.DebugContext(ctx, "Records saved",
		log.FieldKey, s.key, log.FieldCount, Count(next))
	return nil
}

func (s *Store) mutate(ctx context.Context, guards []Guard, fn func([]core.DateGroup) ([]core.DateGroup, bool)) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, g := range guards {
		if !g(s.groups) {
			return false, ErrRejected
		}
	}

	next, changed := fn(s.groups)
	if !changed {
		return false, nil
	}
	if err := s.commit(ctx, next); err != nil {
		return false, err
	}
	return true, nil
}

// Groups returns a copy of the current collection.
func (s *Store) Groups() []core.DateGroup {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Clone(s.groups)
}

// Revision increases on every load and successful write.
func (s *Store) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Find looks a record up by ID in the current collection.
func (s *Store) Find(id string) (core.Record, core.Date, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Find(s.groups, id)
}

// AddRecord files r under date and persists. It does not validate; guards
// run atomically with the write and ErrRejected reports a refusal.
func (s *Store) AddRecord(ctx context.Context, r core.Record, date core.Date, guards ...Guard) error {
	_, err := s.mutate(ctx, guards, func(groups []core.DateGroup) ([]core.DateGroup, bool) {
		return Add(groups, r, date), true
	})
	if err == nil {
		s.logger.InfoContext(ctx, "Record added",
			log.NewFields().WithRecord(r.ID, r.PlateNumber, date.String()).ToSlice()...)
	}
	return err
}

// UpdateRecord replaces the record with r.ID. It reports false when absent.
func (s *Store) UpdateRecord(ctx context.Context, r core.Record, guards ...Guard) (bool, error) {
	return s.mutate(ctx, guards, func(groups []core.DateGroup) ([]core.DateGroup, bool) {
		return Update(groups, r)
	})
}

// MoveRecord replaces the record with r.ID and refiles it under date.
func (s *Store) MoveRecord(ctx context.Context, r core.Record, date core.Date, guards ...Guard) (bool, error) {
	return s.mutate(ctx, guards, func(groups []core.DateGroup) ([]core.DateGroup, bool) {
		return Move(groups, r, date)
	})
}

// DeleteRecord removes the record with id. It reports false when absent.
func (s *Store) DeleteRecord(ctx context.Context, id string) (bool, error) {
	ok, err := s.mutate(ctx, nil, func(groups []core.DateGroup) ([]core.DateGroup, bool) {
		return Delete(groups, id)
	})
	if ok {
		s.logger.InfoContext(ctx, "Record deleted", log.FieldRecordID, id)
	}
	return ok, err
}

// Clear removes every record.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.mutate(ctx, nil, func([]core.DateGroup) ([]core.DateGroup, bool) {
		return []core.DateGroup{}, true
	})
	return err
}

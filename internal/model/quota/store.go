package quota

import (
	"context"
	"sync"
)

// Store abstracts usage-record persistence so the tracker is testable
// without a real backend. Load reports ok=false when no record exists yet.
type Store interface {
	Load(ctx context.Context) (rec Record, ok bool, err error)
	Save(ctx context.Context, rec Record) error
}

// MemoryStore implements Store in memory, suitable for tests and for
// deployments that do not configure a database path.
type MemoryStore struct {
	mu  sync.Mutex
	rec Record
	set bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns the stored record, if any.
func (s *MemoryStore) Load(_ context.Context) (Record, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rec, s.set, nil
}

// Save replaces the stored record.
func (s *MemoryStore) Save(_ context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rec = rec
	s.set = true
	return nil
}

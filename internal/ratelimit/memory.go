package ratelimit

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is an in-process Store used in tests and single-node
// deployments without Postgres.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Get(_ context.Context, key string) (Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return Record{}, false, nil
	}
	// Copy so callers cannot mutate stored state.
	out := Record{Key: record.Key, Uses: append([]time.Time(nil), record.Uses...)}
	return out, true, nil
}

func (s *MemoryStore) Put(_ context.Context, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := Record{Key: record.Key, Uses: append([]time.Time(nil), record.Uses...)}
	s.records[record.Key] = stored
	return nil
}

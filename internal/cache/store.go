// Package cache provides the TTL key-value store the query engines sit on.
//
// In deployments the store is process-local, but nothing in the engine relies
// on that: callers always handle a miss by recomputing, races between
// concurrent writers are last-writer-wins, and staleness is bounded only by
// each entry's TTL. Catalog writes never invalidate entries.
package cache

import (
	"sync"
	"time"
)

// Store is a key-value store with per-entry time-to-live.
// A zero TTL means the entry never expires.
type Store interface {
	Get(key string) (value any, found bool)
	Set(key string, value any, ttl time.Duration)
}

type entry struct {
	value     any
	expiresAt time.Time // zero when the entry never expires
}

// MemoryStore is a mutex-guarded in-process Store. Expired entries are
// dropped lazily on read; there is no background janitor.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]entry
	nowFn func() time.Time
}

// NewMemoryStore creates an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]entry),
		nowFn: time.Now,
	}
}

func (s *MemoryStore) Get(key string) (any, bool) {
	s.mu.RLock()
	e, ok := s.items[key]
	s.mu.RUnlock()
	if !ok {
		return nil, false
	}

	if !e.expiresAt.IsZero() && !s.nowFn().Before(e.expiresAt) {
		s.mu.Lock()
		// Re-check under the write lock; a writer may have refreshed the key.
		if cur, still := s.items[key]; still && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.items, key)
		}
		s.mu.Unlock()
		return nil, false
	}

	return e.value, true
}

func (s *MemoryStore) Set(key string, value any, ttl time.Duration) {
	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.nowFn().Add(ttl)
	}

	s.mu.Lock()
	s.items[key] = e
	s.mu.Unlock()
}

// Len reports the number of stored entries, counting expired ones not yet
// swept.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

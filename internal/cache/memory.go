package cache

import (
	"context"
	"sync"
)

// memoryStore is the hot tier: a capacity-bounded map that evicts the
// entry with the oldest CachedAt when full. Eviction is by insertion
// time, not recency of use, so a plain map is sufficient here.
type memoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*Entry
	capacity int
}

func newMemoryStore(capacity int) *memoryStore {
	return &memoryStore{
		entries:  make(map[string]*Entry),
		capacity: capacity,
	}
}

// NewMemoryStore returns the bounded in-memory tier as a standalone
// Store, for callers that want a hot cache with no persistent tier
func NewMemoryStore(capacity int) Store {
	return newMemoryStore(capacity)
}

func (s *memoryStore) Get(ctx context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.entries[key]
	if !ok {
		return nil, ErrNotFound
	}
	return entry, nil
}

func (s *memoryStore) Put(ctx context.Context, entry *Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.entries[entry.Key]; !exists && len(s.entries) >= s.capacity {
		s.evictOldestLocked()
	}
	s.entries[entry.Key] = entry
	return nil
}

// evictOldestLocked removes the entry with the oldest CachedAt
func (s *memoryStore) evictOldestLocked() {
	var oldestKey string
	for key, entry := range s.entries {
		if oldestKey == "" || entry.CachedAt.Before(s.entries[oldestKey].CachedAt) {
			oldestKey = key
		}
	}
	if oldestKey != "" {
		delete(s.entries, oldestKey)
	}
}

func (s *memoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}

func (s *memoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]*Entry)
	return nil
}

func (s *memoryStore) SizeBytes(ctx context.Context) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var total int64
	for _, entry := range s.entries {
		total += int64(len(entry.Value))
	}
	return total, nil
}

func (s *memoryStore) Close() error { return nil }

func (s *memoryStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

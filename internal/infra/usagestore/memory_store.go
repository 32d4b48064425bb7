package usagestore

import (
	"context"
	"sync"

	"github.com/yanqian/workout-coach/internal/domain/usage"
)

// MemoryStore keeps usage counters in process memory for tests/dev.
type MemoryStore struct {
	mu       sync.Mutex
	counters map[string]usage.Counter
}

// NewMemoryStore constructs an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{counters: make(map[string]usage.Counter)}
}

// Get implements usage.Store.
func (s *MemoryStore) Get(_ context.Context, key string) (usage.Counter, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter, ok := s.counters[key]
	return counter, ok, nil
}

// Increment bumps the counter, starting over when resetKey has moved on.
func (s *MemoryStore) Increment(_ context.Context, key, resetKey string) (usage.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	counter := s.counters[key]
	if counter.ResetKey != resetKey {
		counter = usage.Counter{ResetKey: resetKey}
	}
	counter.Count++
	s.counters[key] = counter
	return counter, nil
}

// Set overwrites the counter.
func (s *MemoryStore) Set(_ context.Context, key string, counter usage.Counter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.counters[key] = counter
	return nil
}

var _ usage.Store = (*MemoryStore)(nil)

package tokenstore

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is a process-local revocation store for single-node runs and
// tests. Same contract as RedisStore; lapsed markers read as absent and are
// dropped opportunistically.
type MemoryStore struct {
	mu      sync.Mutex
	markers map[string]time.Time
	now     func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return NewMemoryStoreWithNow(time.Now)
}

func NewMemoryStoreWithNow(now func() time.Time) *MemoryStore {
	return &MemoryStore{markers: make(map[string]time.Time), now: now}
}

func (s *MemoryStore) SetRevoked(_ context.Context, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.markers[key] = s.now().Add(ttl)
	return nil
}

func (s *MemoryStore) IsRevoked(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deadline, ok := s.markers[key]
	if !ok {
		return false, nil
	}
	if s.now().After(deadline) {
		delete(s.markers, key)
		return false, nil
	}
	return true, nil
}

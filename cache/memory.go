package cache

import (
	"context"
	"sync"
	"time"

	"github.com/marstr/collection/v2"
)

type entry struct {
	value     []byte
	expiresAt time.Time
}

// MemoryStore is an in-process Store that evicts the least recently used key once full
type MemoryStore struct {
	mu    sync.Mutex
	items *collection.LRUCache[string, entry]
	now   func() time.Time
}

// NewMemoryStore creates a store holding at most capacity keys
func NewMemoryStore(capacity uint) *MemoryStore {
	return &MemoryStore{
		items: collection.NewLRUCache[string, entry](capacity),
		now:   time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.items.Get(key)
	if !ok || (!e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)) {
		return nil, ErrMiss
	}
	return e.value, nil
}

// Set stores value; a zero ttl never expires
func (s *MemoryStore) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := entry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.items.Put(key, e)
	return nil
}

package session

import (
	"context"
	"sync"
	"time"

	"finsight/internal/cache"
)

// Memory store defaults. The TTL doubles as an idle logout.
const (
	DefaultMaxSessions = 1000
	DefaultTTL         = 12 * time.Hour
)

// MemoryStore keeps sessions in an in-process LRU with TTL eviction.
// This is the default backend: state is lost on restart on purpose.
type MemoryStore struct {
	mu    sync.Mutex
	cache *cache.LRUCache[*Session]
}

// NewMemoryStore creates a memory store. Non-positive arguments use the
// package defaults.
func NewMemoryStore(maxSessions int, ttl time.Duration) *MemoryStore {
	if maxSessions <= 0 {
		maxSessions = DefaultMaxSessions
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{cache: cache.NewLRUCache[*Session](maxSessions, ttl)}
}

// Get returns a copy of the session. Handlers read it freely while other
// requests mutate the stored original through Update.
func (m *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	return s.Clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s.UpdatedAt = time.Now().UTC()
	m.cache.Set(s.ID, s.Clone())
	return nil
}

// Update mutates the stored session under the lock and returns a copy of
// the result; the caller never holds the live object.
func (m *MemoryStore) Update(_ context.Context, id string, fn func(*Session) error) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.cache.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	if err := fn(s); err != nil {
		return nil, err
	}
	s.UpdatedAt = time.Now().UTC()
	m.cache.Set(id, s)
	return s.Clone(), nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.cache.Delete(id)
	return nil
}

func (m *MemoryStore) Close() error { return nil }

// CleanExpired lets the cache manager reap idle sessions.
func (m *MemoryStore) CleanExpired() int {
	return m.cache.CleanExpired()
}

package cache

import (
	"container/list"
	"sync"
	"time"
)

// LRUCache holds at most maxSize entries, each expiring ttl after its
// last Set. The session store keys it by session ID, so eviction under
// pressure drops the least recently visited login first.
type LRUCache[T any] struct {
	mu      sync.Mutex
	maxSize int
	ttl     time.Duration
	entries map[string]*list.Element
	order   *list.List
}

type lruEntry[T any] struct {
	key       string
	value     T
	expiresAt time.Time
}

func NewLRUCache[T any](maxSize int, ttl time.Duration) *LRUCache[T] {
	return &LRUCache[T]{
		maxSize: maxSize,
		ttl:     ttl,
		entries: make(map[string]*list.Element),
		order:   list.New(),
	}
}

// Get returns the value for key. An expired entry is removed on the
// spot and reported as a miss, so a stale session never resolves even
// between sweeps.
func (c *LRUCache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	entry := elem.Value.(*lruEntry[T])
	if time.Now().After(entry.expiresAt) {
		c.remove(elem)
		return zero, false
	}

	c.order.MoveToFront(elem)
	return entry.value, true
}

// Set stores value under key and resets its TTL. When the cache is
// full the least recently used entry is evicted.
func (c *LRUCache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry := &lruEntry[T]{
		key:       key,
		value:     value,
		expiresAt: time.Now().Add(c.ttl),
	}

	if elem, ok := c.entries[key]; ok {
		elem.Value = entry
		c.order.MoveToFront(elem)
		return
	}

	c.entries[key] = c.order.PushFront(entry)

	if c.order.Len() > c.maxSize {
		if oldest := c.order.Back(); oldest != nil {
			c.remove(oldest)
		}
	}
}

func (c *LRUCache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.remove(elem)
	}
}

func (c *LRUCache[T]) remove(elem *list.Element) {
	entry := elem.Value.(*lruEntry[T])
	delete(c.entries, entry.key)
	c.order.Remove(elem)
}

// CleanExpired drops every expired entry and reports how many went.
// Called by the cache manager on its sweep interval.
func (c *LRUCache[T]) CleanExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	var expired []*list.Element
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		if now.After(elem.Value.(*lruEntry[T]).expiresAt) {
			expired = append(expired, elem)
		}
	}
	for _, elem := range expired {
		c.remove(elem)
	}
	return len(expired)
}

package cache

import (
	"testing"
	"time"
)

func TestLRUCacheEvictsOldest(t *testing.T) {
	c := NewLRUCache[int](2, time.Hour)

	c.Set("a", 1)
	c.Set("b", 2)

	// Touching "a" makes "b" the eviction candidate.
	if _, ok := c.Get("a"); !ok {
		t.Fatal("expected a to be present")
	}

	c.Set("c", 3)

	if _, ok := c.Get("b"); ok {
		t.Error("expected b to be evicted")
	}
	if v, ok := c.Get("a"); !ok || v != 1 {
		t.Errorf("Get(a) = %d, %v; want 1, true", v, ok)
	}
	if v, ok := c.Get("c"); !ok || v != 3 {
		t.Errorf("Get(c) = %d, %v; want 3, true", v, ok)
	}
}

func TestLRUCacheExpiry(t *testing.T) {
	c := NewLRUCache[string](10, 10*time.Millisecond)

	c.Set("sid", "session")
	if _, ok := c.Get("sid"); !ok {
		t.Fatal("expected fresh entry to be present")
	}

	time.Sleep(20 * time.Millisecond)

	if _, ok := c.Get("sid"); ok {
		t.Error("expected expired entry to miss")
	}
}

func TestLRUCacheCleanExpired(t *testing.T) {
	c := NewLRUCache[int](10, 10*time.Millisecond)

	c.Set("a", 1)
	c.Set("b", 2)
	time.Sleep(20 * time.Millisecond)
	c.Set("fresh", 3)

	if got := c.CleanExpired(); got != 2 {
		t.Errorf("CleanExpired() = %d, want 2", got)
	}
	if _, ok := c.Get("fresh"); !ok {
		t.Error("expected fresh entry to survive the sweep")
	}
}

func TestLRUCacheDelete(t *testing.T) {
	c := NewLRUCache[int](10, time.Hour)

	c.Set("a", 1)
	c.Delete("a")
	c.Delete("missing")

	if _, ok := c.Get("a"); ok {
		t.Error("expected deleted entry to miss")
	}
}

func TestManagerStopWithoutStart(t *testing.T) {
	m := NewManager()

	done := make(chan struct{})
	go func() {
		m.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Stop blocked when cleanup never started")
	}
}

type countingCleaner struct {
	calls chan struct{}
}

func (c *countingCleaner) CleanExpired() int {
	select {
	case c.calls <- struct{}{}:
	default:
	}
	return 1
}

func TestManagerSweepsRegisteredCleaners(t *testing.T) {
	m := NewManager()
	cleaner := &countingCleaner{calls: make(chan struct{}, 1)}
	m.Register(cleaner)
	m.StartCleanup(5 * time.Millisecond)
	defer m.Stop()

	select {
	case <-cleaner.calls:
	case <-time.After(time.Second):
		t.Fatal("cleaner was never swept")
	}
}

package ratelimit

import (
	"testing"
	"time"
)

func TestLimiterAllowsWithinBudget(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 3})
	defer rl.Stop()

	for i := 0; i < 3; i++ {
		if !rl.Allow("203.0.113.7") {
			t.Fatalf("request %d denied within budget", i+1)
		}
	}
	if rl.Allow("203.0.113.7") {
		t.Error("expected fourth request to be denied")
	}

	// Other clients keep their own window.
	if !rl.Allow("203.0.113.8") {
		t.Error("expected separate client to be allowed")
	}
}

func TestLimiterWindowResets(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 1})
	defer rl.Stop()

	ip := "203.0.113.9"
	if !rl.Allow(ip) {
		t.Fatal("first request denied")
	}
	if rl.Allow(ip) {
		t.Fatal("second request allowed inside window")
	}

	rl.mu.Lock()
	rl.clients[ip].lastRequest = time.Now().Add(-2 * time.Minute)
	rl.mu.Unlock()

	if !rl.Allow(ip) {
		t.Error("expected fresh window after a minute of quiet")
	}
}

func TestLimiterSweepsStaleClients(t *testing.T) {
	rl := NewLimiter(Config{RequestsPerMinute: 5})
	defer rl.Stop()

	rl.Allow("203.0.113.10")
	rl.mu.Lock()
	rl.clients["203.0.113.10"].lastRequest = time.Now().Add(-11 * time.Minute)
	rl.mu.Unlock()

	rl.sweepStale()

	rl.mu.Lock()
	_, ok := rl.clients["203.0.113.10"]
	rl.mu.Unlock()
	if ok {
		t.Error("expected stale client to be swept")
	}
}

func TestLimiterStopIdempotent(t *testing.T) {
	rl := NewLimiter(DefaultConfig())
	rl.Stop()
	rl.Stop()
}

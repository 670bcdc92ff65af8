// Package ratelimit counts requests per client IP over a fixed one
// minute window. The server only consults it for mutating requests,
// so page loads and HTMX partial refreshes never count against the
// budget.
package ratelimit

import (
	"sync"
	"time"
)

// Limiter tracks per-IP request counts. Stale clients are dropped by a
// background sweep so the map stays bounded.
type Limiter struct {
	mu           sync.Mutex
	clients      map[string]*clientWindow
	stopCleanup  chan struct{}
	shutdownOnce sync.Once

	requestsPerMinute int
	cleanupInterval   time.Duration
}

type clientWindow struct {
	lastRequest time.Time
	requests    int
}

type Config struct {
	RequestsPerMinute int
	CleanupInterval   time.Duration
}

// DefaultConfig allows 30 mutating requests per minute per IP. Uploads
// and form posts are the only calls measured, and a person working a
// statement through the UI stays well under that.
func DefaultConfig() Config {
	return Config{
		RequestsPerMinute: 30,
		CleanupInterval:   5 * time.Minute,
	}
}

func NewLimiter(config Config) *Limiter {
	if config.RequestsPerMinute <= 0 {
		config.RequestsPerMinute = DefaultConfig().RequestsPerMinute
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultConfig().CleanupInterval
	}

	rl := &Limiter{
		clients:           make(map[string]*clientWindow),
		stopCleanup:       make(chan struct{}),
		requestsPerMinute: config.RequestsPerMinute,
		cleanupInterval:   config.CleanupInterval,
	}
	go rl.sweepLoop()
	return rl
}

// Allow reports whether clientIP has budget left in the current
// window. The window resets one minute after the client's last
// request.
func (rl *Limiter) Allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, ok := rl.clients[clientIP]

	if !ok {
		rl.clients[clientIP] = &clientWindow{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	client.requests++
	client.lastRequest = now
	return client.requests <= rl.requestsPerMinute
}

func (rl *Limiter) sweepLoop() {
	ticker := time.NewTicker(rl.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweepStale()
		case <-rl.stopCleanup:
			return
		}
	}
}

// sweepStale drops clients idle for longer than ten minutes.
func (rl *Limiter) sweepStale() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

// Stop ends the background sweep. Safe to call more than once.
func (rl *Limiter) Stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

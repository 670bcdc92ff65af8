// Package cache provides the TTL-bounded LRU backing the in-memory
// session store, plus the manager that sweeps expired entries so idle
// logins disappear without a request touching them.
package cache

import (
	"log/slog"
	"time"
)

// Cleaner is implemented by stores whose expired entries the manager
// should sweep periodically.
type Cleaner interface {
	CleanExpired() int
}

// Manager owns the background sweep over every registered cleaner.
type Manager struct {
	cleaners    []Cleaner
	stopCleanup chan struct{}
	cleanupDone chan struct{}
	started     bool
}

func NewManager() *Manager {
	return &Manager{
		stopCleanup: make(chan struct{}),
		cleanupDone: make(chan struct{}),
	}
}

// Register adds a cleaner to the sweep. Call before StartCleanup.
func (m *Manager) Register(c Cleaner) {
	m.cleaners = append(m.cleaners, c)
}

// StartCleanup launches the periodic sweep.
func (m *Manager) StartCleanup(interval time.Duration) {
	m.started = true
	go m.cleanup(interval)
}

func (m *Manager) cleanup(interval time.Duration) {
	defer close(m.cleanupDone)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			expired := 0
			for _, c := range m.cleaners {
				expired += c.CleanExpired()
			}
			if expired > 0 {
				slog.Debug("Swept expired sessions", "count", expired)
			}
		case <-m.stopCleanup:
			return
		}
	}
}

// Stop ends the sweep. Safe to call when StartCleanup never ran, which
// happens on the sqlite backend where nothing registers a cleaner.
func (m *Manager) Stop() {
	if !m.started {
		return
	}
	close(m.stopCleanup)
	<-m.cleanupDone
}

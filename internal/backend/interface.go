// Package backend selects and assembles the session store from
// configuration: the in-memory LRU by default, sqlite when durability
// across restarts is wanted.
package backend

import (
	"context"

	"finsight/internal/session"
)

// CleanupFunc releases resources held by a store.
type CleanupFunc func() error

// StoreResult contains the store instance and optional cleanup function.
type StoreResult struct {
	Store   session.Store
	Cleanup CleanupFunc
}

// Factory creates session stores based on configuration.
type Factory interface {
	CreateStore(ctx context.Context, config Config) (*StoreResult, error)
}

// StoreType selects the session store implementation.
type StoreType string

const (
	MemoryStore StoreType = "memory"
	SQLiteStore StoreType = "sqlite"
)

// String implements fmt.Stringer.
func (st StoreType) String() string {
	return string(st)
}

// IsValid returns true if the store type is known.
func (st StoreType) IsValid() bool {
	switch st {
	case MemoryStore, SQLiteStore:
		return true
	default:
		return false
	}
}

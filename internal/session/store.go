package session

import (
	"context"
	"errors"
)

// ErrNotFound is returned when no session exists for an ID.
var ErrNotFound = errors.New("session not found")

// Store persists sessions. The memory implementation keeps them for the
// life of the process only; the sqlite implementation survives restarts.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Put(ctx context.Context, s *Session) error
	// Update applies fn to the stored session under the store's lock and
	// persists the result. fn returning an error aborts the update.
	Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

package backend

import (
	"context"
	"fmt"
	"log/slog"

	"finsight/internal/session"
	"finsight/internal/storage"
)

// DefaultFactory implements the Factory interface.
type DefaultFactory struct {
	logger *slog.Logger
}

// NewFactory creates a new session store factory.
func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// CreateStore implements Factory.CreateStore.
func (f *DefaultFactory) CreateStore(_ context.Context, config Config) (*StoreResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case SQLiteStore:
		return f.createSQLiteStore(config)
	case MemoryStore:
		return f.createMemoryStore(config)
	default:
		return nil, fmt.Errorf("unsupported session store type: %s", config.Type)
	}
}

func (f *DefaultFactory) createSQLiteStore(config Config) (*StoreResult, error) {
	repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized sqlite session store", "db_path", config.SQLiteDBPath)

	return &StoreResult{
		Store:   repo,
		Cleanup: repo.Close,
	}, nil
}

func (f *DefaultFactory) createMemoryStore(config Config) (*StoreResult, error) {
	store := session.NewMemoryStore(config.MaxSessions, config.SessionTTL)

	f.logger.Info("Initialized memory session store",
		"max_sessions", config.MaxSessions,
		"ttl", config.SessionTTL)

	return &StoreResult{
		Store:   store,
		Cleanup: store.Close,
	}, nil
}

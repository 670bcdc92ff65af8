package backend

import (
	"fmt"
	"time"

	"finsight/internal/config"
)

// Config holds configuration for session store creation.
type Config struct {
	Type StoreType

	// Memory specific
	MaxSessions int
	SessionTTL  time.Duration

	// SQLite specific
	SQLiteDBPath string
}

// FromAppConfig converts the application config to store config.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	storeType := StoreType(appConfig.SessionBackend)
	if !storeType.IsValid() {
		return Config{}, fmt.Errorf("invalid session backend in config: %s", appConfig.SessionBackend)
	}

	return Config{
		Type:         storeType,
		MaxSessions:  appConfig.SessionMax,
		SessionTTL:   appConfig.SessionTTL,
		SQLiteDBPath: appConfig.SQLiteDBPath,
	}, nil
}

// Validate validates the store configuration.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("invalid session store type: %s", c.Type)
	}

	switch c.Type {
	case SQLiteStore:
		if c.SQLiteDBPath == "" {
			return fmt.Errorf("SQLite database path is required for sqlite session store")
		}
	case MemoryStore:
		if c.MaxSessions < 0 {
			return fmt.Errorf("max sessions cannot be negative")
		}
	}

	return nil
}

// GetStoreTypes returns all valid store types.
func GetStoreTypes() []StoreType {
	return []StoreType{MemoryStore, SQLiteStore}
}

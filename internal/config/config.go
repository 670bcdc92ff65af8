package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port string

	// Analysis backend
	AnalyzerBaseURL string

	// Chat model
	GeminiAPIKey string
	GeminiModel  string

	// Session storage
	SessionBackend string
	SessionMax     int
	SessionTTL     time.Duration
	SQLiteDBPath   string

	// AMQP
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Worker
	SweepInterval time.Duration

	// Demo login
	DemoUserID   string
	DemoPassword string
}

func Load() *Config {
	cfg := &Config{
		Port:            getEnv("PORT", "8081"),
		AnalyzerBaseURL: getEnv("ANALYZER_BASE_URL", "http://localhost:5000"),

		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash-latest"),

		SessionBackend: getEnv("SESSION_BACKEND", "memory"),
		SessionMax:     getEnvInt("SESSION_MAX", 1000),
		SessionTTL:     getEnvDuration("SESSION_TTL", 12*time.Hour),
		SQLiteDBPath:   getEnv("SQLITE_DB_PATH", "./data/finsight.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "finsight"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "analysis_events"),

		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 15*time.Minute),

		DemoUserID:   getEnv("DEMO_USER_ID", "demo"),
		DemoPassword: getEnv("DEMO_PASSWORD", "demo123"),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.AnalyzerBaseURL == "" {
		errors = append(errors, "analyzer base URL cannot be empty")
	} else if parsedURL, err := url.Parse(c.AnalyzerBaseURL); err != nil {
		errors = append(errors, fmt.Sprintf("invalid analyzer base URL '%s': %v", c.AnalyzerBaseURL, err))
	} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
		errors = append(errors, fmt.Sprintf("invalid analyzer base URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
	}

	validBackends := []string{"memory", "sqlite"}
	isValidBackend := false
	for _, backend := range validBackends {
		if c.SessionBackend == backend {
			isValidBackend = true
			break
		}
	}
	if !isValidBackend {
		errors = append(errors, fmt.Sprintf("invalid session backend '%s': must be one of %v", c.SessionBackend, validBackends))
	}

	if c.SessionBackend == "sqlite" {
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite session backend")
		} else {
			dir := filepath.Dir(c.SQLiteDBPath)
			if dir != "." && dir != "" {
				if _, err := os.Stat(dir); os.IsNotExist(err) {
					if err := os.MkdirAll(dir, 0755); err != nil {
						errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
					}
				}
			}
		}
	}

	if c.SessionMax < 1 {
		errors = append(errors, fmt.Sprintf("invalid session max %d: must be at least 1", c.SessionMax))
	}
	if c.SessionTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid session TTL %v: must be at least 1 minute", c.SessionTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}

		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.SweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at least 1 second", c.SweepInterval))
	} else if c.SweepInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at most 24 hours", c.SweepInterval))
	}

	if c.DemoUserID == "" {
		errors = append(errors, "demo user ID cannot be empty")
	}
	if c.DemoPassword == "" {
		errors = append(errors, "demo password cannot be empty")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

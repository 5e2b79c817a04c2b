package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration for the railview engine
type Config struct {
	// Upstream telemetry service
	BackendURL string // HTTP base, e.g. http://localhost:8000
	UpdatesURL string // websocket push channel, derived from BackendURL when empty

	// Transport timing
	PollInterval     time.Duration // fallback poll while the push channel is down
	FastPollInterval time.Duration // independent live-overlay poll
	MaxBackoff       time.Duration // cap for push-channel reconnect backoff

	// Alerts
	CriticalToastWindow time.Duration

	// History recorder
	DatabasePath string // SQLite file; ignored when PostgresURL is set
	PostgresURL  string
	HistoryLimit int // snapshots kept queryable

	// HTTP state API
	Port           string
	FrontendOrigin string
}

// Load reads configuration from environment variables with sensible defaults
func Load() *Config {
	cfg := &Config{
		BackendURL: getEnv("BACKEND_URL", "http://localhost:8000"),
		UpdatesURL: getEnv("UPDATES_URL", ""),

		PollInterval:     time.Duration(getEnvInt("POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		FastPollInterval: time.Duration(getEnvInt("FAST_POLL_INTERVAL_MS", 50)) * time.Millisecond,
		MaxBackoff:       time.Duration(getEnvInt("MAX_BACKOFF_SECONDS", 60)) * time.Second,

		CriticalToastWindow: time.Duration(getEnvInt("CRITICAL_TOAST_SECONDS", 5)) * time.Second,

		DatabasePath: getEnv("SQLITE_DATABASE", "data/railview.db"),
		PostgresURL:  getEnv("POSTGRES_URL", ""),
		HistoryLimit: getEnvInt("HISTORY_LIMIT", 100),

		Port:           getEnv("PORT", "8090"),
		FrontendOrigin: getEnv("FRONTEND_ORIGIN", "http://localhost:5173"),
	}

	if cfg.UpdatesURL == "" {
		cfg.UpdatesURL = wsURLFromHTTP(cfg.BackendURL) + "/updates"
	}

	return cfg
}

// wsURLFromHTTP rewrites an http(s) base URL to its ws(s) equivalent
func wsURLFromHTTP(base string) string {
	switch {
	case len(base) >= 8 && base[:8] == "https://":
		return "wss://" + base[8:]
	case len(base) >= 7 && base[:7] == "http://":
		return "ws://" + base[7:]
	}
	return base
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

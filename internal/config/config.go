// Package config loads runtime configuration from the environment.
// A .env file in the working directory is honored when present.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds everything the composition root needs to wire the system.
type Config struct {
	HomaBaseURL       string        // required, e.g. https://api.homa.example
	HomaCenterBaseURL string        // write-path proxy; defaults to HomaBaseURL
	FirebaseAPIKey    string        // identity provider web key; login disabled when empty
	RequestTimeout    time.Duration // default 10s, per-call overridable
	StoragePath       string        // SQLite file, default ~/.miosync/miosync.db
	LogLevel          string        // debug, info, warn, error
	LogFormat         string        // json or console
}

// Load reads configuration from the environment, applying defaults and
// validating required fields.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := Config{
		HomaBaseURL:       os.Getenv("HOMA_BASE_URL"),
		HomaCenterBaseURL: getEnv("HOMA_CENTER_BASE_URL", os.Getenv("HOMA_BASE_URL")),
		FirebaseAPIKey:    os.Getenv("FIREBASE_API_KEY"),
		RequestTimeout:    getDuration("REQUEST_TIMEOUT", 10*time.Second),
		StoragePath:       getEnv("STORAGE_PATH", defaultStoragePath()),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		LogFormat:         getEnv("LOG_FORMAT", "json"),
	}

	if cfg.HomaBaseURL == "" {
		return Config{}, errors.New("HOMA_BASE_URL is required")
	}

	return cfg, nil
}

func defaultStoragePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "miosync.db"
	}
	return filepath.Join(home, ".miosync", "miosync.db")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return time.Duration(n) * time.Second
		}
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

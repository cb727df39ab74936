// Package config loads process configuration from the environment via
// os.Getenv, loaded through joho/godotenv so a .env file works the
// same as real environment variables in local development.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is every environment-controlled setting: data directory/DSN,
// HTTP port, scheduler enable/period, fetch timeout, JWT secret.
// FetchTimeout is loaded from FETCH_TIMEOUT but nothing reads it: the
// HTTP fetcher uses its own fixed 10-second timeout.
type Config struct {
	StoreDriver      string
	StoreDSN         string
	HTTPPort         string
	JWTSecret        string
	SchedulerEnabled bool
	SchedulerPeriod  time.Duration
	FetchTimeout     time.Duration
	Categories       []string
}

// Load reads .env (if present; its absence is not an error) and then
// the environment, applying its own defaults where a variable is
// unset.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		StoreDriver:      getenv("STORE_DRIVER", "sqlite"),
		StoreDSN:         getenv("STORE_DSN", "lmsrexchange.db"),
		HTTPPort:         getenv("HTTP_PORT", "8080"),
		JWTSecret:        getenv("JWT_SECRET", "dev-secret-change-me"),
		SchedulerEnabled: getenvBool("SCHEDULER_ENABLED", true),
		SchedulerPeriod:  getenvDuration("SCHEDULER_PERIOD", 60*time.Second),
		FetchTimeout:     getenvDuration("FETCH_TIMEOUT", 10*time.Second),
		Categories:       LoadCategories(getenv("CATEGORIES_FILE", "")),
	}
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return b
}

func getenvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration loaded from environment variables.
// CLI flags may override individual fields after Load.
type Config struct {
	GitHubToken string
	Lookback    time.Duration // How far back to search the run history.
	Timeout     time.Duration // Deadline applied to every provider call.
	MaxInFlight int           // Cap on concurrent provider requests.
	ListenAddr  string        // serve mode bind address.
	DBPath      string        // Verdict history database; empty disables history.
}

// Load reads configuration from environment variables and returns a validated
// Config. DEPLOYWATCH_GITHUB_TOKEN is optional at load time (unauthenticated
// queries work against public repositories at a lower rate limit). Optional
// variables with defaults: DEPLOYWATCH_LOOKBACK (24h), DEPLOYWATCH_TIMEOUT
// (30s), DEPLOYWATCH_MAX_INFLIGHT (3), DEPLOYWATCH_LISTEN_ADDR
// (127.0.0.1:8080), DEPLOYWATCH_DB_PATH (deploywatch.db).
func Load() (*Config, error) {
	token := os.Getenv("DEPLOYWATCH_GITHUB_TOKEN")

	lookback := 24 * time.Hour
	if v, ok := os.LookupEnv("DEPLOYWATCH_LOOKBACK"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DEPLOYWATCH_LOOKBACK has invalid duration %q: %w", v, err)
		}
		lookback = parsed
	}

	timeout := 30 * time.Second
	if v, ok := os.LookupEnv("DEPLOYWATCH_TIMEOUT"); ok {
		parsed, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("DEPLOYWATCH_TIMEOUT has invalid duration %q: %w", v, err)
		}
		timeout = parsed
	}

	maxInFlight := 3
	if v, ok := os.LookupEnv("DEPLOYWATCH_MAX_INFLIGHT"); ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 1 {
			return nil, fmt.Errorf("DEPLOYWATCH_MAX_INFLIGHT has invalid value %q: expected a positive integer", v)
		}
		maxInFlight = parsed
	}

	listenAddr := "127.0.0.1:8080"
	if v, ok := os.LookupEnv("DEPLOYWATCH_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	dbPath := "deploywatch.db"
	if v, ok := os.LookupEnv("DEPLOYWATCH_DB_PATH"); ok {
		dbPath = v
	}

	return &Config{
		GitHubToken: token,
		Lookback:    lookback,
		Timeout:     timeout,
		MaxInFlight: maxInFlight,
		ListenAddr:  listenAddr,
		DBPath:      dbPath,
	}, nil
}

// Package config holds the client's runtime settings. Values are resolved
// defaults-first, then overlaid from an optional JSON file; command-line
// flags are layered on top by the CLI.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/moodlog-app/moodlog/internal/timex"
)

// Config is the full client configuration.
type Config struct {
	// ServerEndpointAddr is the base URL of the moodlog server.
	ServerEndpointAddr string `json:"server_endpoint_addr"`
	// DatabaseDSN is the SQLite DSN of the local store.
	DatabaseDSN string `json:"database_dsn"`
	// OwnerID identifies whose journal this client writes.
	OwnerID string `json:"owner_id"`
	// AuthToken is the bearer token presented on every request.
	AuthToken string `json:"auth_token"`
	// StagingDir is where encrypted attachments wait for upload.
	StagingDir string `json:"staging_dir"`

	// OnlineCheckInterval is the connectivity heartbeat period.
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	// DebounceWindow is how long the network must stay up after an
	// offline-to-online transition before a drain is triggered.
	DebounceWindow timex.Duration `json:"debounce_window"`
	// RequestTimeout bounds each HTTP request to the server.
	RequestTimeout timex.Duration `json:"request_timeout"`

	// MaxSyncAttempts is the failed-submission budget per entry.
	MaxSyncAttempts int `json:"max_sync_attempts"`
	// BackoffBase is the delay after the first failed attempt.
	BackoffBase timex.Duration `json:"backoff_base"`
	// BackoffCap bounds the exponential backoff.
	BackoffCap timex.Duration `json:"backoff_cap"`
	// SyncingGrace is how long a sync claim survives before a restart
	// treats it as abandoned.
	SyncingGrace timex.Duration `json:"syncing_grace"`
}

func defaultConfig() *Config {
	home, _ := os.UserHomeDir()
	dataDir := filepath.Join(home, ".moodlog")
	return &Config{
		ServerEndpointAddr:  "http://127.0.0.1:8080",
		DatabaseDSN:         filepath.Join(dataDir, "moodlog.db"),
		StagingDir:          filepath.Join(dataDir, "staging"),
		OnlineCheckInterval: timex.Duration{Duration: 15 * time.Second},
		DebounceWindow:      timex.Duration{Duration: 2 * time.Second},
		RequestTimeout:      timex.Duration{Duration: 10 * time.Second},
		MaxSyncAttempts:     8,
		BackoffBase:         timex.Duration{Duration: 5 * time.Second},
		BackoffCap:          timex.Duration{Duration: 15 * time.Minute},
		SyncingGrace:        timex.Duration{Duration: 5 * time.Minute},
	}
}

// Load builds the configuration: defaults, then the JSON file at path if
// one is given.
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	if path != "" {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

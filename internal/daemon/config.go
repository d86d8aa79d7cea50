// Package daemon manages the engine daemon lifecycle and
// configuration.
package daemon

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all daemon configuration.
type Config struct {
	API     APIConfig     `toml:"api"`
	Store   StoreConfig   `toml:"store"`
	Redis   RedisConfig   `toml:"redis"`
	Jobs    JobsConfig    `toml:"jobs"`
	Logging LoggingConfig `toml:"logging"`
}

// APIConfig controls the HTTP API server. Environment overrides
// derive from the field path: INSCHOOLZ_API_PORT, and so on.
type APIConfig struct {
	Host    string `toml:"host"`
	Port    int    `toml:"port"`
	Metrics bool   `toml:"metrics"`
}

// StoreConfig controls the SQLite store.
type StoreConfig struct {
	Dir string `toml:"dir"`
}

// RedisConfig controls the optional leaderboard mirror. An empty
// address disables the mirror entirely.
type RedisConfig struct {
	Addr string `toml:"addr"`
}

// JobsConfig controls the scheduled jobs.
type JobsConfig struct {
	Enabled      bool `toml:"enabled"`
	SnapshotSize int  `toml:"snapshot_size"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			Host:    "127.0.0.1",
			Port:    4800,
			Metrics: true,
		},
		Store: StoreConfig{
			Dir: engineHome(),
		},
		Redis: RedisConfig{
			Addr: "",
		},
		Jobs: JobsConfig{
			Enabled:      true,
			SnapshotSize: 100,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// LoadConfig reads config from $INSCHOOLZ_HOME/config.toml, falling
// back to defaults, then applies INSCHOOLZ_* environment overrides on
// top (INSCHOOLZ_API_PORT, INSCHOOLZ_LOGGING_LEVEL, ...).
func LoadConfig() (Config, error) {
	cfg := DefaultConfig()
	path := filepath.Join(engineHome(), "config.toml")

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := envconfig.Process("INSCHOOLZ", &cfg); err != nil {
		return cfg, fmt.Errorf("env overrides: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes the config to $INSCHOOLZ_HOME/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(engineHome(), "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	return toml.NewEncoder(f).Encode(cfg)
}

// engineHome returns the engine data directory.
func engineHome() string {
	if env := os.Getenv("INSCHOOLZ_HOME"); env != "" {
		return env
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".inschoolz")
}

// Package config holds all tunable agent parameters, loaded from an optional
// YAML file layered over defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full agent configuration.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Agent   AgentConfig   `yaml:"agent"`
	Storage StorageConfig `yaml:"storage"`
	Sync    SyncConfig    `yaml:"sync"`
}

// APIConfig points at the remote content API.
type APIConfig struct {
	URL string `yaml:"url"`
	// Token is the bearer credential. The FIELDLEDGR_TOKEN environment
	// variable overrides it so tokens can stay out of config files.
	Token string `yaml:"token"`
}

// AgentConfig configures the local HTTP surface.
type AgentConfig struct {
	ListenAddr string `yaml:"listenAddr"`
	// APIKey guards the local HTTP surface; empty disables auth (dev mode).
	APIKey string `yaml:"apiKey"`
}

// StorageConfig selects and configures the queue persistence backend.
type StorageConfig struct {
	// Backend is "file" or "redis".
	Backend   string `yaml:"backend"`
	Path      string `yaml:"path"`
	RedisAddr string `yaml:"redisAddr"`
	Key       string `yaml:"key"`
}

// SyncConfig holds the retry/backoff policy knobs, in milliseconds to match
// the mobile app's config file. The base controls the delay between retry
// attempts; the interval controls the fallback polling cadence while online.
type SyncConfig struct {
	BackoffBaseMs   int `yaml:"backoffBaseMs"`
	IntervalMs      int `yaml:"intervalMs"`
	ProbeIntervalMs int `yaml:"probeIntervalMs"`
}

// BackoffBase returns the backoff base as a duration.
func (c SyncConfig) BackoffBase() time.Duration {
	return time.Duration(c.BackoffBaseMs) * time.Millisecond
}

// Interval returns the periodic sync interval as a duration.
func (c SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

// ProbeInterval returns the reachability poll interval as a duration.
func (c SyncConfig) ProbeInterval() time.Duration {
	return time.Duration(c.ProbeIntervalMs) * time.Millisecond
}

// Default returns the configuration the agent runs with when no file is
// provided. The policy constants match the mobile app: 1s backoff base and a
// 30s periodic sync.
func Default() Config {
	return Config{
		API: APIConfig{
			URL: "http://localhost:3000",
		},
		Agent: AgentConfig{
			ListenAddr: ":8081",
		},
		Storage: StorageConfig{
			Backend:   "file",
			Path:      "offline_queue.json",
			RedisAddr: "127.0.0.1:6379",
			Key:       "fieldledgr_offline_queue",
		},
		Sync: SyncConfig{
			BackoffBaseMs:   1000,
			IntervalMs:      30_000,
			ProbeIntervalMs: 5000,
		},
	}
}

// Load reads the YAML file at path over the defaults. An empty path returns
// the defaults. Environment overrides are applied last.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if token := os.Getenv("FIELDLEDGR_TOKEN"); token != "" {
		cfg.API.Token = token
	}
	if key := os.Getenv("AGENT_API_KEY"); key != "" {
		cfg.Agent.APIKey = key
	}

	if err := cfg.validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Storage.Backend {
	case "file", "redis":
	default:
		return fmt.Errorf("unknown storage backend: %q", c.Storage.Backend)
	}
	if c.Sync.BackoffBaseMs <= 0 {
		return fmt.Errorf("sync backoffBaseMs must be positive")
	}
	if c.Sync.IntervalMs <= 0 {
		return fmt.Errorf("sync intervalMs must be positive")
	}
	return nil
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Sync.BackoffBase() != time.Second {
		t.Errorf("Expected 1s backoff base, got %s", cfg.Sync.BackoffBase())
	}
	if cfg.Sync.Interval() != 30*time.Second {
		t.Errorf("Expected 30s sync interval, got %s", cfg.Sync.Interval())
	}
	if cfg.Storage.Backend != "file" {
		t.Errorf("Expected file backend, got %s", cfg.Storage.Backend)
	}
	if cfg.Storage.Key != "fieldledgr_offline_queue" {
		t.Errorf("Expected default storage key, got %s", cfg.Storage.Key)
	}
}

func TestFileOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	data := `
api:
  url: https://api.example.com
storage:
  backend: redis
  redisAddr: 10.0.0.5:6379
sync:
  intervalMs: 10000
`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.API.URL != "https://api.example.com" {
		t.Errorf("Expected overridden API URL, got %s", cfg.API.URL)
	}
	if cfg.Storage.Backend != "redis" || cfg.Storage.RedisAddr != "10.0.0.5:6379" {
		t.Errorf("Expected redis backend override, got %+v", cfg.Storage)
	}
	if cfg.Sync.Interval() != 10*time.Second {
		t.Errorf("Expected 10s interval, got %s", cfg.Sync.Interval())
	}
	// Untouched keys keep their defaults
	if cfg.Sync.BackoffBase() != time.Second {
		t.Errorf("Expected default backoff base, got %s", cfg.Sync.BackoffBase())
	}
}

func TestEnvTokenOverride(t *testing.T) {
	t.Setenv("FIELDLEDGR_TOKEN", "env-token")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.API.Token != "env-token" {
		t.Errorf("Expected env token override, got %q", cfg.API.Token)
	}
}

func TestInvalidBackendRejected(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent.yaml")
	if err := os.WriteFile(path, []byte("storage:\n  backend: s3\n"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Expected error for unknown storage backend")
	}
}

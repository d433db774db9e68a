package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8091 {
		t.Errorf("Server.Port = %d, want 8091", cfg.Server.Port)
	}
	if !cfg.NATS.Enabled {
		t.Error("NATS.Enabled = false, want true")
	}
	if cfg.Redis.Enabled {
		t.Error("Redis.Enabled = true, want false")
	}
	if cfg.Archive.Enabled {
		t.Error("Archive.Enabled = true, want false")
	}
	if cfg.Collection.MaxEvents != 100 {
		t.Errorf("Collection.MaxEvents = %d, want 100", cfg.Collection.MaxEvents)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
server:
  port: 9999
redis:
  enabled: true
  addr: redis.internal:6379
collection:
  max_events: 500
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if !cfg.Redis.Enabled {
		t.Error("Redis.Enabled = false, want true")
	}
	if cfg.Redis.Addr != "redis.internal:6379" {
		t.Errorf("Redis.Addr = %q", cfg.Redis.Addr)
	}
	if cfg.Collection.MaxEvents != 500 {
		t.Errorf("Collection.MaxEvents = %d, want 500", cfg.Collection.MaxEvents)
	}
	// Untouched keys keep their defaults.
	if cfg.NATS.URL != "nats://localhost:4222" {
		t.Errorf("NATS.URL = %q", cfg.NATS.URL)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load("/nonexistent/config.yaml"); err == nil {
		t.Error("Load() with missing explicit file should fail")
	}
}

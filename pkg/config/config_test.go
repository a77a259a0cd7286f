package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadFromFile(t *testing.T) {
	path := writeConfig(t, `
serverURL = "http://localhost:3000"
logLevel = "debug"
timeoutSec = 5
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ServerURL != "http://localhost:3000" {
		t.Errorf("want serverURL %q, got %q", "http://localhost:3000", cfg.ServerURL)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("want logLevel %q, got %q", "debug", cfg.LogLevel)
	}
	if cfg.Timeout() != 5*time.Second {
		t.Errorf("want timeout 5s, got %v", cfg.Timeout())
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	path := writeConfig(t, `serverURL = "http://localhost:3000"`)

	t.Setenv("SNAKESSS_SERVER_URL", "http://forum.example:8080")
	t.Setenv("SNAKESSS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.ServerURL != "http://forum.example:8080" {
		t.Errorf("want env-overridden serverURL, got %q", cfg.ServerURL)
	}
	if cfg.LogLevel != "warn" {
		t.Errorf("want env-overridden logLevel %q, got %q", "warn", cfg.LogLevel)
	}
}

func TestLoadMissingFileWithEnv(t *testing.T) {
	t.Setenv("SNAKESSS_SERVER_URL", "http://forum.example")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("Load() with missing file returned error: %v", err)
	}

	if cfg.ServerURL != "http://forum.example" {
		t.Errorf("want serverURL from env, got %q", cfg.ServerURL)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("want default logLevel %q, got %q", "info", cfg.LogLevel)
	}
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("want default timeout 10s, got %v", cfg.Timeout())
	}
}

func TestLoadMissingServerURL(t *testing.T) {
	t.Setenv("SNAKESSS_SERVER_URL", "")

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	if !errors.Is(err, ErrServerURLMissing) {
		t.Errorf("want ErrServerURLMissing, got %v", err)
	}
}

// Package config resolves the application configuration: a TOML file with
// environment overrides. The server address is resolved once at process
// start; there is no runtime reconfiguration.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
)

var ErrServerURLMissing = errors.New("config: server URL missing, set serverURL or SNAKESSS_SERVER_URL")

const defaultTimeoutSec = 10

type Config struct {
	ServerURL  string `toml:"serverURL"`
	LogLevel   string `toml:"logLevel"`
	TimeoutSec int    `toml:"timeoutSec"`
}

// DefaultPath returns the config file location under the user config dir.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "snakesss", "config.toml"), nil
}

// Load reads the config file at path and applies environment overrides
// (SNAKESSS_SERVER_URL, SNAKESSS_LOG_LEVEL). A missing file is not an error;
// a missing server URL after overrides is.
func Load(path string) (*Config, error) {
	cfg := Config{
		LogLevel:   "info",
		TimeoutSec: defaultTimeoutSec,
	}

	if _, err := toml.DecodeFile(path, &cfg); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	if v := os.Getenv("SNAKESSS_SERVER_URL"); v != "" {
		cfg.ServerURL = v
	}
	if v := os.Getenv("SNAKESSS_LOG_LEVEL"); v != "" {
		cfg.LogLevel = v
	}

	if cfg.ServerURL == "" {
		return nil, ErrServerURLMissing
	}
	if cfg.TimeoutSec <= 0 {
		cfg.TimeoutSec = defaultTimeoutSec
	}

	return &cfg, nil
}

func (c *Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSec) * time.Second
}

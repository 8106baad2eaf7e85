// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 8420 {
		t.Errorf("port = %d, want 8420", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:8420" {
		t.Errorf("addr = %q", cfg.Server.Addr())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if !cfg.Providers.Satellite.Enabled || !cfg.Providers.Barometric.Enabled {
		t.Error("satellite and barometric providers should default to enabled")
	}
	if cfg.Providers.Remote.Enabled {
		t.Error("remote provider should default to disabled")
	}
	if cfg.Fusion.FetchTimeout != 5*time.Second {
		t.Errorf("fetch timeout = %v", cfg.Fusion.FetchTimeout)
	}
	if cfg.Continuous.DefaultInterval != time.Minute {
		t.Errorf("continuous interval = %v", cfg.Continuous.DefaultInterval)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("ALTIMETRUS_PORT", "9001")
	t.Setenv("ALTIMETRUS_LOG_LEVEL", "debug")
	t.Setenv("ALTIMETRUS_REMOTE_ENABLED", "true")
	t.Setenv("ALTIMETRUS_REMOTE_URL", "https://elevation.example.com")
	t.Setenv("ALTIMETRUS_FUSION_FETCH_TIMEOUT", "2s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Providers.Remote.Enabled || cfg.Providers.Remote.URL != "https://elevation.example.com" {
		t.Errorf("remote = %+v", cfg.Providers.Remote)
	}
	if cfg.Fusion.FetchTimeout != 2*time.Second {
		t.Errorf("fetch timeout = %v, want 2s", cfg.Fusion.FetchTimeout)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "altimetrus.yaml")
	yaml := `
server:
  port: 7777
logging:
  level: warn
store:
  path: /var/lib/altimetrus
`
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want 7777", cfg.Server.Port)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("level = %q, want warn", cfg.Logging.Level)
	}
	if cfg.Store.Path != "/var/lib/altimetrus" {
		t.Errorf("store path = %q", cfg.Store.Path)
	}
	// Untouched sections keep their defaults.
	if cfg.Fusion.FetchTimeout != 5*time.Second {
		t.Errorf("fetch timeout = %v, want default 5s", cfg.Fusion.FetchTimeout)
	}
}

func TestEnvBeatsFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "altimetrus.yaml")
	if err := os.WriteFile(path, []byte("server:\n  port: 7777\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(ConfigPathEnvVar, path)
	t.Setenv("ALTIMETRUS_PORT", "9002")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Port != 9002 {
		t.Errorf("port = %d, env should beat file", cfg.Server.Port)
	}
}

func TestValidateRejectsBadConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"port out of range", func(c *Config) { c.Server.Port = 0 }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"empty store path", func(c *Config) { c.Store.Path = "" }},
		{"remote enabled without url", func(c *Config) { c.Providers.Remote.Enabled = true }},
		{"sub-second continuous interval", func(c *Config) { c.Continuous.DefaultInterval = 100 * time.Millisecond }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() = nil, want error")
			}
		})
	}
}

func TestEnvTransformDropsUnknownKeys(t *testing.T) {
	if got := envTransformFunc("ALTIMETRUS_PORT"); got != "server.port" {
		t.Errorf("transform = %q, want server.port", got)
	}
	if got := envTransformFunc("ALTIMETRUS_SOMETHING_ELSE"); got != "" {
		t.Errorf("unknown key transformed to %q, want empty", got)
	}
}

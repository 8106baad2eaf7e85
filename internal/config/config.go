// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package config loads the process configuration with koanf v2 in three
// layers: built-in defaults, an optional YAML file, then environment
// variables. Precedence is ENV > file > defaults.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/tomtom215/altimetrus/internal/validation"
)

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "ALTIMETRUS_CONFIG"

// DefaultConfigPaths are searched in order when ALTIMETRUS_CONFIG is unset.
var DefaultConfigPaths = []string{
	"altimetrus.yaml",
	"config/altimetrus.yaml",
	"/etc/altimetrus/config.yaml",
}

// Config is the full process configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Logging    LoggingConfig    `koanf:"logging"`
	Store      StoreConfig      `koanf:"store"`
	Fusion     FusionConfig     `koanf:"fusion"`
	Providers  ProvidersConfig  `koanf:"providers"`
	Continuous ContinuousConfig `koanf:"continuous"`
	Stream     StreamConfig     `koanf:"stream"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port" validate:"gte=1,lte=65535"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns the host:port listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// LoggingConfig configures the zerolog output.
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// StoreConfig configures the BadgerDB-backed record store.
type StoreConfig struct {
	Path                string        `koanf:"path" validate:"required"`
	InMemory            bool          `koanf:"in_memory"`
	MaintenanceInterval time.Duration `koanf:"maintenance_interval"`
}

// FusionConfig configures the fusion engine.
type FusionConfig struct {
	FetchTimeout time.Duration `koanf:"fetch_timeout"`
}

// ProvidersConfig enables and tunes the altitude providers.
type ProvidersConfig struct {
	Satellite  SatelliteConfig  `koanf:"satellite"`
	Barometric BarometricConfig `koanf:"barometric"`
	Remote     RemoteConfig     `koanf:"remote"`
}

// SatelliteConfig configures the satellite provider.
type SatelliteConfig struct {
	Enabled bool `koanf:"enabled"`
}

// BarometricConfig configures the barometric provider.
type BarometricConfig struct {
	Enabled bool `koanf:"enabled"`
}

// RemoteConfig configures the remote elevation lookup provider.
type RemoteConfig struct {
	Enabled                 bool          `koanf:"enabled"`
	URL                     string        `koanf:"url" validate:"omitempty,url"`
	RequestTimeout          time.Duration `koanf:"request_timeout"`
	RequestsPerSecond       float64       `koanf:"requests_per_second" validate:"gte=0"`
	BreakerFailureThreshold uint32        `koanf:"breaker_failure_threshold"`
	BreakerCooldown         time.Duration `koanf:"breaker_cooldown"`
}

// ContinuousConfig configures continuous measurement sessions.
type ContinuousConfig struct {
	DefaultInterval time.Duration `koanf:"default_interval"`
}

// StreamConfig configures the in-process event broker.
type StreamConfig struct {
	BufferSize int64 `koanf:"buffer_size" validate:"gte=0"`
}

// defaultConfig returns the built-in defaults layer.
func defaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8420,
			ShutdownTimeout: 10 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Store: StoreConfig{
			Path:                "data/altimetrus",
			MaintenanceInterval: 5 * time.Minute,
		},
		Fusion: FusionConfig{
			FetchTimeout: 5 * time.Second,
		},
		Providers: ProvidersConfig{
			Satellite:  SatelliteConfig{Enabled: true},
			Barometric: BarometricConfig{Enabled: true},
			Remote: RemoteConfig{
				Enabled:                 false,
				RequestTimeout:          5 * time.Second,
				RequestsPerSecond:       2,
				BreakerFailureThreshold: 5,
				BreakerCooldown:         30 * time.Second,
			},
		},
		Continuous: ContinuousConfig{
			DefaultInterval: time.Minute,
		},
		Stream: StreamConfig{
			BufferSize: 64,
		},
	}
}

// Load builds the configuration from defaults, the first config file
// found and environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	defaults := defaultConfig()
	if err := k.Load(structs.Provider(defaults, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("ALTIMETRUS_", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration invalid: %w", err)
	}
	return cfg, nil
}

// Validate checks the assembled configuration against its constraints.
func (c *Config) Validate() error {
	if verr := validation.ValidateStruct(c); verr != nil {
		return verr
	}
	if c.Providers.Remote.Enabled && c.Providers.Remote.URL == "" {
		return fmt.Errorf("providers.remote.url is required when the remote provider is enabled")
	}
	if c.Continuous.DefaultInterval < time.Second {
		return fmt.Errorf("continuous.default_interval must be at least 1s")
	}
	return nil
}

// findConfigFile returns the first existing config file, preferring the
// ALTIMETRUS_CONFIG override.
func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

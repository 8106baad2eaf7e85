// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package config

import "strings"

// envMappings maps environment variable names (after the ALTIMETRUS_
// prefix is stripped and lowercased) to koanf config paths. Explicit
// mapping avoids guessing where the underscores split.
var envMappings = map[string]string{
	"host":             "server.host",
	"port":             "server.port",
	"shutdown_timeout": "server.shutdown_timeout",

	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"store_path":           "store.path",
	"store_in_memory":      "store.in_memory",
	"maintenance_interval": "store.maintenance_interval",
	"fusion_fetch_timeout": "fusion.fetch_timeout",
	"continuous_interval":  "continuous.default_interval",
	"stream_buffer_size":   "stream.buffer_size",

	"satellite_enabled":  "providers.satellite.enabled",
	"barometric_enabled": "providers.barometric.enabled",

	"remote_enabled":             "providers.remote.enabled",
	"remote_url":                 "providers.remote.url",
	"remote_request_timeout":     "providers.remote.request_timeout",
	"remote_requests_per_second": "providers.remote.requests_per_second",
	"remote_breaker_threshold":   "providers.remote.breaker_failure_threshold",
	"remote_breaker_cooldown":    "providers.remote.breaker_cooldown",
}

// envTransformFunc maps ALTIMETRUS_* environment variables to koanf
// paths. Unknown variables are dropped rather than guessed at.
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, "ALTIMETRUS_"))
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package main is the entry point for the Altimetrus server.
//
// Altimetrus fuses altitude readings from multiple sources (satellite
// fixes, barometric pressure, remote elevation lookup) into a single
// best measurement, keeps a bounded measurement history with session
// grouping, and streams updates to connected clients over WebSocket.
//
// # Application Architecture
//
// The server initializes components in the following order:
//
//  1. Configuration: layered from defaults, YAML file and environment (Koanf v2)
//  2. Store: BadgerDB-backed measurement history with bounded retention
//  3. Providers: altitude sources registered per configuration
//  4. Fusion engine: parallel fan-out with deterministic scoring
//  5. Supervision tree: storage, messaging and api layers under suture
//  6. HTTP server: REST API, Prometheus metrics and the WebSocket feed
//
// # Configuration
//
// Configuration is loaded via Koanf v2 with layered sources (highest
// priority wins):
//   - Environment variables (ALTIMETRUS_* prefix)
//   - Config file (altimetrus.yaml, or ALTIMETRUS_CONFIG)
//   - Built-in defaults
//
// Example:
//
//	export ALTIMETRUS_PORT=8420
//	export ALTIMETRUS_STORE_PATH=/var/lib/altimetrus
//	export ALTIMETRUS_REMOTE_ENABLED=true
//	export ALTIMETRUS_REMOTE_URL=https://api.open-elevation.com
//	./altimetrus
//
// # Signal Handling
//
// The server shuts down gracefully on SIGINT and SIGTERM: the HTTP
// server drains in-flight requests, supervised services stop in order,
// and the store is closed last.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/tomtom215/altimetrus/internal/altimeter"
	"github.com/tomtom215/altimetrus/internal/api"
	"github.com/tomtom215/altimetrus/internal/config"
	"github.com/tomtom215/altimetrus/internal/fusion"
	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/provider"
	"github.com/tomtom215/altimetrus/internal/session"
	"github.com/tomtom215/altimetrus/internal/store"
	"github.com/tomtom215/altimetrus/internal/stream"
	"github.com/tomtom215/altimetrus/internal/supervisor"
	"github.com/tomtom215/altimetrus/internal/supervisor/services"
	"github.com/tomtom215/altimetrus/internal/websocket"
)

func main() {
	if err := run(); err != nil {
		logging.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("store", cfg.Store.Path).
		Msg("starting altimetrus")

	db, err := openBadger(cfg.Store)
	if err != nil {
		return fmt.Errorf("open store database: %w", err)
	}
	defer func() {
		if cerr := db.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("failed to close store database")
		}
	}()

	st, err := store.Open(db)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}

	registry, pressure := buildRegistry(cfg.Providers)
	if registry.Len() == 0 {
		return errors.New("no altitude providers enabled")
	}

	broker := stream.NewBroker(cfg.Stream.BufferSize)
	defer func() {
		if cerr := broker.Close(); cerr != nil {
			logging.Error().Err(cerr).Msg("failed to close broker")
		}
	}()

	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())

	alt := altimeter.New(
		fusion.New(registry, cfg.Fusion.FetchTimeout),
		st,
		session.NewManager(st),
		broker,
		tree.Root(),
	)

	hub := websocket.NewHub()
	tree.AddMessagingService(services.NewWebSocketService(hub))
	tree.AddMessagingService(websocket.NewForwarder(broker, hub))
	tree.AddStorageService(services.NewMaintenanceService(st, cfg.Store.MaintenanceInterval))

	handler := api.NewHandler(alt, st, hub, registry, pressure)
	server := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           api.NewRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}
	tree.AddAPIService(services.NewHTTPService(server, cfg.Server.ShutdownTimeout))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = tree.Serve(ctx)
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("supervision tree: %w", err)
	}

	logging.Info().Msg("altimetrus stopped")
	return nil
}

// openBadger opens the store database per configuration. In-memory mode
// serves development and testing; data does not survive a restart.
func openBadger(cfg config.StoreConfig) (*badger.DB, error) {
	opts := badger.DefaultOptions(cfg.Path).WithLogger(nil)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	return badger.Open(opts)
}

// buildRegistry assembles the provider registry per configuration. The
// returned pressure source is nil when the barometric provider is
// disabled.
func buildRegistry(cfg config.ProvidersConfig) (*provider.Registry, *provider.ReportedPressure) {
	registry := provider.NewRegistry()

	if cfg.Satellite.Enabled {
		registry.Register(provider.NewSatellite())
	}

	var pressure *provider.ReportedPressure
	if cfg.Barometric.Enabled {
		pressure = provider.NewReportedPressure(0)
		registry.Register(provider.NewBarometric(pressure))
	}

	if cfg.Remote.Enabled {
		registry.Register(provider.NewRemote(provider.RemoteConfig{
			BaseURL:                 cfg.Remote.URL,
			RequestTimeout:          cfg.Remote.RequestTimeout,
			RequestsPerSecond:       cfg.Remote.RequestsPerSecond,
			BreakerFailureThreshold: cfg.Remote.BreakerFailureThreshold,
			BreakerCooldown:         cfg.Remote.BreakerCooldown,
		}))
	}

	return registry, pressure
}

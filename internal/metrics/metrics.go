// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package metrics provides Prometheus instrumentation for fusion rounds,
// provider fetches, the record store and the HTTP API.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Provider fetch metrics
	ProviderFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "provider_fetch_duration_seconds",
			Help:    "Duration of individual provider fetches in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"provider"},
	)

	ProviderFetchFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "provider_fetch_failures_total",
			Help: "Total number of failed provider fetches",
		},
		[]string{"provider", "reason"}, // "unavailable", "timeout", "error"
	)

	// Fusion metrics
	FusionRoundsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_rounds_total",
			Help: "Total number of fusion rounds executed",
		},
	)

	FusionEmptyRounds = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "fusion_empty_rounds_total",
			Help: "Total number of fusion rounds where every provider failed",
		},
	)

	FusionReadingsPerRound = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "fusion_readings_per_round",
			Help:    "Number of readings produced per fusion round",
			Buckets: []float64{0, 1, 2, 3, 4, 5},
		},
	)

	// Record store metrics
	StoreRecords = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_records",
			Help: "Current number of records held in the store",
		},
	)

	StoreSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_sessions",
			Help: "Current number of sessions held in the store",
		},
	)

	StoreSerializedBytes = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "store_serialized_bytes",
			Help: "Serialized size of the persisted blob in bytes",
		},
	)

	StoreCleanups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_cleanups_total",
			Help: "Total number of capacity cleanups by trigger",
		},
		[]string{"trigger"}, // "record_count", "session_count", "size", "proactive"
	)

	StorePersistFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "store_persist_fallbacks_total",
			Help: "Total number of degraded persistence attempts by step",
		},
		[]string{"step"}, // "reduced", "minimal", "abandoned"
	)

	// API metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "endpoint", "status_code"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "endpoint"},
	)

	// WebSocket metrics
	WebSocketClients = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "websocket_clients",
			Help: "Current number of connected WebSocket clients",
		},
	)

	WebSocketMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_messages_sent_total",
			Help: "Total number of messages broadcast to WebSocket clients",
		},
	)
)

// ObserveProviderFetch records the outcome of a single provider fetch.
func ObserveProviderFetch(provider string, start time.Time, failReason string) {
	ProviderFetchDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if failReason != "" {
		ProviderFetchFailures.WithLabelValues(provider, failReason).Inc()
	}
}

// ObserveAPIRequest records a completed API request.
func ObserveAPIRequest(method, endpoint string, statusCode int, duration time.Duration) {
	APIRequestsTotal.WithLabelValues(method, endpoint, strconv.Itoa(statusCode)).Inc()
	APIRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// SetStoreSize updates the store gauges after a mutation.
func SetStoreSize(records, sessions int, serializedBytes int64) {
	StoreRecords.Set(float64(records))
	StoreSessions.Set(float64(sessions))
	StoreSerializedBytes.Set(float64(serializedBytes))
}

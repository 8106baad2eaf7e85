// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package fusion fans a single location fix out to every registered
// provider in parallel and selects the best resulting reading.
//
// Failure isolation is the core contract: each fetch runs in its own
// goroutine with its own timeout, a failing or slow provider is dropped
// from the round, and no partial failure ever fails the round itself.
package fusion

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/metrics"
	"github.com/tomtom215/altimetrus/internal/models"
	"github.com/tomtom215/altimetrus/internal/provider"
)

// ErrNoReadings indicates every provider failed this round. Retryable on
// the next trigger, surfaced to the caller as a "could not measure" state.
var ErrNoReadings = errors.New("no readings produced")

// DefaultFetchTimeout bounds a single provider fetch.
const DefaultFetchTimeout = 5 * time.Second

// Engine coordinates concurrent provider fan-out and reading selection.
// The engine itself holds no locks; the provider set is snapshotted at
// fetch start so registry changes cannot tear an in-flight round.
type Engine struct {
	registry *provider.Registry
	timeout  time.Duration
}

// New creates a fusion engine over the given registry. A zero timeout
// falls back to DefaultFetchTimeout.
func New(registry *provider.Registry, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = DefaultFetchTimeout
	}
	return &Engine{registry: registry, timeout: timeout}
}

// FetchAll queries all registered providers concurrently with the given
// fix and returns the successful readings in registration order. Provider
// failures are logged and omitted; the result may be empty but the call
// itself never fails.
func (e *Engine) FetchAll(ctx context.Context, fix models.LocationFix) []models.Reading {
	providers := e.registry.Snapshot()
	results := make([]*models.Reading, len(providers))

	var wg sync.WaitGroup
	for i, p := range providers {
		wg.Add(1)
		go func(i int, p provider.Provider) {
			defer wg.Done()

			fetchCtx, cancel := context.WithTimeout(ctx, e.timeout)
			defer cancel()

			start := time.Now()
			reading, err := p.Fetch(fetchCtx, fix)
			if err != nil {
				reason := failureReason(err)
				metrics.ObserveProviderFetch(p.Name(), start, reason)
				logging.Debug().
					Str("provider", p.Name()).
					Str("reason", reason).
					Err(err).
					Msg("provider excluded from fusion round")
				return
			}
			metrics.ObserveProviderFetch(p.Name(), start, "")

			reading.Reliability = models.ClampScore(reading.Reliability)
			results[i] = &reading
		}(i, p)
	}
	wg.Wait()

	readings := make([]models.Reading, 0, len(providers))
	for _, r := range results {
		if r != nil {
			readings = append(readings, *r)
		}
	}

	metrics.FusionRoundsTotal.Inc()
	metrics.FusionReadingsPerRound.Observe(float64(len(readings)))
	if len(readings) == 0 {
		metrics.FusionEmptyRounds.Inc()
	}

	return readings
}

// FetchBest runs FetchAll and selects the reading with the highest
// composite score. Ties are broken by provider registration order.
// Returns ErrNoReadings when every provider failed.
func (e *Engine) FetchBest(ctx context.Context, fix models.LocationFix) (models.Reading, error) {
	readings := e.FetchAll(ctx, fix)
	if len(readings) == 0 {
		return models.Reading{}, ErrNoReadings
	}

	best := readings[0]
	bestScore := CompositeScore(best)
	for _, r := range readings[1:] {
		// Strict inequality keeps the earlier-registered reading on ties.
		if score := CompositeScore(r); score > bestScore {
			best = r
			bestScore = score
		}
	}

	logging.Debug().
		Str("source", string(best.Source)).
		Float64("altitude", best.Altitude).
		Float64("score", bestScore).
		Int("candidates", len(readings)).
		Msg("best reading selected")

	return best, nil
}

// failureReason classifies a fetch error for metrics.
func failureReason(err error) string {
	switch {
	case errors.Is(err, provider.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/tomtom215/altimetrus/internal/models"
)

// Plausibility bands for returned elevations, in meters. The terrestrial
// band spans the Dead Sea shore to above Everest; anything past the
// extended band is treated as a bad lookup.
const (
	plausibleLow      = -500
	plausibleHigh     = 9000
	extendedHigh      = 11000
)

// RemoteConfig configures the remote elevation lookup provider.
type RemoteConfig struct {
	// BaseURL of an Open-Elevation compatible service.
	BaseURL string

	// RequestTimeout bounds a single lookup. Default: 5s.
	RequestTimeout time.Duration

	// RequestsPerSecond limits outbound lookups. Default: 2.
	RequestsPerSecond float64

	// BreakerFailureThreshold is the consecutive-failure count that opens
	// the circuit. Default: 5.
	BreakerFailureThreshold uint32

	// BreakerCooldown is the open-state duration before a trial request.
	// Default: 30s.
	BreakerCooldown time.Duration
}

func (c *RemoteConfig) applyDefaults() {
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 5 * time.Second
	}
	if c.RequestsPerSecond == 0 {
		c.RequestsPerSecond = 2
	}
	if c.BreakerFailureThreshold == 0 {
		c.BreakerFailureThreshold = 5
	}
	if c.BreakerCooldown == 0 {
		c.BreakerCooldown = 30 * time.Second
	}
}

// Remote looks up terrain elevation from a remote service. Lookups are
// rate-limited and guarded by a circuit breaker so a degraded service
// fails fast instead of consuming the whole fusion timeout every round.
type Remote struct {
	cfg     RemoteConfig
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[float64]
	limiter *rate.Limiter
}

// NewRemote creates a remote elevation lookup provider.
func NewRemote(cfg RemoteConfig) *Remote {
	cfg.applyDefaults()

	settings := gobreaker.Settings{
		Name:    "remote-elevation",
		Timeout: cfg.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailureThreshold
		},
	}

	return &Remote{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.RequestTimeout},
		breaker: gobreaker.NewCircuitBreaker[float64](settings),
		limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), 1),
	}
}

// Name implements Provider.
func (r *Remote) Name() string {
	return "remote"
}

// Probe implements Provider. An open breaker means the service is known
// to be down, so there is no point asking this round.
func (r *Remote) Probe(_ context.Context) bool {
	return r.cfg.BaseURL != "" && r.breaker.State() != gobreaker.StateOpen
}

// Fetch implements Provider.
func (r *Remote) Fetch(ctx context.Context, fix models.LocationFix) (models.Reading, error) {
	if r.cfg.BaseURL == "" {
		return models.Reading{}, ErrUnavailable
	}
	if err := r.limiter.Wait(ctx); err != nil {
		return models.Reading{}, err
	}

	elevation, err := r.breaker.Execute(func() (float64, error) {
		return r.lookup(ctx, fix.Latitude, fix.Longitude)
	})
	if err != nil {
		return models.Reading{}, fmt.Errorf("remote lookup: %w", err)
	}

	spec := models.SourceRemote.Spec()
	return models.Reading{
		Altitude:       elevation,
		Source:         models.SourceRemote,
		AccuracyMeters: spec.TypicalAccuracyMeters,
		Reliability:    models.ClampScore(spec.BaseReliability + plausibilityBonus(elevation)),
		CapturedAt:     time.Now(),
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
	}, nil
}

// lookupResponse matches the Open-Elevation wire format.
type lookupResponse struct {
	Results []struct {
		Elevation float64 `json:"elevation"`
	} `json:"results"`
}

func (r *Remote) lookup(ctx context.Context, lat, lon float64) (float64, error) {
	u := fmt.Sprintf("%s/api/v1/lookup?locations=%s",
		r.cfg.BaseURL,
		url.QueryEscape(fmt.Sprintf("%.6f,%.6f", lat, lon)))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, fmt.Errorf("elevation service returned %d", resp.StatusCode)
	}

	var decoded lookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return 0, fmt.Errorf("decode response: %w", err)
	}
	if len(decoded.Results) == 0 {
		return 0, ErrUnavailable
	}
	return decoded.Results[0].Elevation, nil
}

// plausibilityBonus adjusts reliability by how believable the returned
// elevation is as a terrestrial value.
func plausibilityBonus(elevation float64) float64 {
	switch {
	case elevation >= plausibleLow && elevation <= plausibleHigh:
		return 5
	case elevation >= plausibleLow && elevation <= extendedHigh:
		return 0
	default:
		return -10
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"context"
	"time"

	"github.com/tomtom215/altimetrus/internal/models"
)

// Satellite reads the altitude directly from the GNSS fix supplied by the
// collaborator layer. The fix's horizontal accuracy drives the confidence
// adjustment: a fine fix earns a bonus, a coarse one a penalty.
type Satellite struct{}

// NewSatellite creates a satellite altitude provider.
func NewSatellite() *Satellite {
	return &Satellite{}
}

// Name implements Provider.
func (s *Satellite) Name() string {
	return "satellite"
}

// Probe implements Provider. The fix itself carries the availability
// signal, so the provider is always worth asking.
func (s *Satellite) Probe(_ context.Context) bool {
	return true
}

// Fetch implements Provider. Returns ErrUnavailable when the fix carries
// no altitude component.
func (s *Satellite) Fetch(ctx context.Context, fix models.LocationFix) (models.Reading, error) {
	if err := ctx.Err(); err != nil {
		return models.Reading{}, err
	}
	if fix.AltitudeMeters == nil {
		return models.Reading{}, ErrUnavailable
	}

	spec := models.SourceSatellite.Spec()
	return models.Reading{
		Altitude:       *fix.AltitudeMeters,
		Source:         models.SourceSatellite,
		AccuracyMeters: fix.AccuracyMeters,
		Reliability:    models.ClampScore(spec.BaseReliability + satelliteBonus(fix.AccuracyMeters)),
		CapturedAt:     time.Now(),
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
	}, nil
}

// satelliteBonus maps fix accuracy to the reliability adjustment:
// finer accuracy earns a higher bonus.
func satelliteBonus(accuracyMeters float64) float64 {
	switch {
	case accuracyMeters <= 5:
		return 20
	case accuracyMeters <= 10:
		return 10
	case accuracyMeters <= 20:
		return 0
	default:
		return -10
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/tomtom215/altimetrus/internal/models"
)

// seaLevelPressureHPa is the ICAO standard atmosphere reference pressure.
const seaLevelPressureHPa = 1013.25

// Pressure bands for the confidence adjustment, in hPa.
const (
	normalBandLow      = 950
	normalBandHigh     = 1050
	acceptableBandLow  = 900
	acceptableBandHigh = 1100
)

// PressureSource supplies raw barometric pressure in hPa. The sensor
// registration and platform plumbing live in the collaborator layer.
type PressureSource interface {
	// Pressure returns the current ambient pressure in hPa.
	Pressure(ctx context.Context) (float64, error)

	// Available reports whether the sensor hardware is present.
	Available() bool
}

// Barometric converts ambient pressure to altitude via the barometric
// formula. Readings in the normal pressure band earn a confidence bonus;
// abnormal pressure (storm, sensor drift) is penalized.
type Barometric struct {
	source PressureSource
}

// NewBarometric creates a barometric altitude provider over the given
// pressure source.
func NewBarometric(source PressureSource) *Barometric {
	return &Barometric{source: source}
}

// Name implements Provider.
func (b *Barometric) Name() string {
	return "barometric"
}

// Probe implements Provider.
func (b *Barometric) Probe(_ context.Context) bool {
	return b.source != nil && b.source.Available()
}

// Fetch implements Provider.
func (b *Barometric) Fetch(ctx context.Context, fix models.LocationFix) (models.Reading, error) {
	if b.source == nil || !b.source.Available() {
		return models.Reading{}, ErrUnavailable
	}

	pressure, err := b.source.Pressure(ctx)
	if err != nil {
		return models.Reading{}, fmt.Errorf("read pressure: %w", err)
	}
	if pressure <= 0 {
		return models.Reading{}, ErrUnavailable
	}

	spec := models.SourceBarometric.Spec()
	return models.Reading{
		Altitude:       PressureToAltitude(pressure),
		Source:         models.SourceBarometric,
		AccuracyMeters: spec.TypicalAccuracyMeters,
		Reliability:    models.ClampScore(spec.BaseReliability + pressureBonus(pressure)),
		CapturedAt:     time.Now(),
		Latitude:       fix.Latitude,
		Longitude:      fix.Longitude,
	}, nil
}

// PressureToAltitude converts station pressure in hPa to altitude in
// meters using the international barometric formula:
//
//	h = 44330 * (1 - (P/P0)^(1/5.255))
func PressureToAltitude(pressureHPa float64) float64 {
	return 44330 * (1 - math.Pow(pressureHPa/seaLevelPressureHPa, 1/5.255))
}

// pressureBonus classifies the pressure into the normal, acceptable or
// abnormal band and returns the reliability adjustment.
func pressureBonus(pressureHPa float64) float64 {
	switch {
	case pressureHPa >= normalBandLow && pressureHPa <= normalBandHigh:
		return 10
	case pressureHPa >= acceptableBandLow && pressureHPa <= acceptableBandHigh:
		return 0
	default:
		return -20
	}
}

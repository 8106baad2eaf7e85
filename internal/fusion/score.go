// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package fusion

import (
	"github.com/tomtom215/altimetrus/internal/models"
)

// Composite score weights. The accuracy band is pre-scaled to 30 points,
// so the maximum composite score is 0.7*100 + 0.3*30 = 79.
const (
	reliabilityWeight = 0.7
	accuracyWeight    = 0.3
)

// CompositeScore ranks a reading across sources: a weighted blend of its
// reliability score and its accuracy band.
func CompositeScore(r models.Reading) float64 {
	return reliabilityWeight*r.Reliability + accuracyWeight*accuracyBand(r.AccuracyMeters)
}

// accuracyBand maps accuracy in meters to a pre-weighted 30-point scale;
// finer accuracy earns more points.
func accuracyBand(accuracyMeters float64) float64 {
	switch {
	case accuracyMeters <= 1:
		return 30
	case accuracyMeters <= 3:
		return 25
	case accuracyMeters <= 5:
		return 20
	case accuracyMeters <= 10:
		return 15
	case accuracyMeters <= 20:
		return 10
	default:
		return 5
	}
}

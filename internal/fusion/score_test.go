// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package fusion

import (
	"testing"

	"github.com/tomtom215/altimetrus/internal/models"
)

func TestAccuracyBand(t *testing.T) {
	tests := []struct {
		accuracy float64
		want     float64
	}{
		{0.5, 30},
		{1, 30},
		{2, 25},
		{3, 25},
		{4, 20},
		{5, 20},
		{7, 15},
		{10, 15},
		{15, 10},
		{20, 10},
		{50, 5},
	}
	for _, tt := range tests {
		if got := accuracyBand(tt.accuracy); got != tt.want {
			t.Errorf("accuracyBand(%v) = %v, want %v", tt.accuracy, got, tt.want)
		}
	}
}

func TestCompositeScoreMonotonicInReliability(t *testing.T) {
	low := models.Reading{Reliability: 40, AccuracyMeters: 5}
	high := models.Reading{Reliability: 80, AccuracyMeters: 5}

	if CompositeScore(high) <= CompositeScore(low) {
		t.Error("composite score should increase with reliability")
	}
}

func TestCompositeScoreNonIncreasingInAccuracyMeters(t *testing.T) {
	// Finer accuracy (smaller meters) must score equal or higher.
	prev := CompositeScore(models.Reading{Reliability: 50, AccuracyMeters: 0.5})
	for _, acc := range []float64{1, 2, 3, 4, 5, 8, 10, 15, 20, 30, 100} {
		cur := CompositeScore(models.Reading{Reliability: 50, AccuracyMeters: acc})
		if cur > prev {
			t.Errorf("score increased with coarser accuracy at %vm: %v > %v", acc, cur, prev)
		}
		prev = cur
	}
}

func TestCompositeScoreKnownValues(t *testing.T) {
	// 0.7*85 + 0.3*20 = 65.5
	b := models.Reading{Reliability: 85, AccuracyMeters: 5}
	if got := CompositeScore(b); got != 65.5 {
		t.Errorf("CompositeScore = %v, want 65.5", got)
	}
}

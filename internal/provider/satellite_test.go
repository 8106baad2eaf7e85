// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/altimetrus/internal/models"
)

func fixWithAltitude(altitude, accuracy float64) models.LocationFix {
	return models.LocationFix{
		Latitude:       47.37,
		Longitude:      8.54,
		AccuracyMeters: accuracy,
		AltitudeMeters: &altitude,
		Timestamp:      time.Now(),
	}
}

func TestSatelliteAccuracyBonus(t *testing.T) {
	tests := []struct {
		name     string
		accuracy float64
		want     float64 // base 40 + bonus
	}{
		{"fine fix", 4, 60},
		{"boundary 5m", 5, 60},
		{"medium fix", 8, 50},
		{"boundary 10m", 10, 50},
		{"coarse fix", 15, 40},
		{"boundary 20m", 20, 40},
		{"poor fix", 35, 30},
	}

	sat := NewSatellite()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reading, err := sat.Fetch(context.Background(), fixWithAltitude(120, tt.accuracy))
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if reading.Reliability != tt.want {
				t.Errorf("reliability = %v, want %v", reading.Reliability, tt.want)
			}
			if reading.Source != models.SourceSatellite {
				t.Errorf("source = %v, want satellite", reading.Source)
			}
			if reading.AccuracyMeters != tt.accuracy {
				t.Errorf("accuracy = %v, want %v", reading.AccuracyMeters, tt.accuracy)
			}
		})
	}
}

func TestSatelliteNoAltitudeInFix(t *testing.T) {
	sat := NewSatellite()
	fix := models.LocationFix{Latitude: 1, Longitude: 2, AccuracyMeters: 5}

	_, err := sat.Fetch(context.Background(), fix)
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}
}

func TestSatelliteCanceledContext(t *testing.T) {
	sat := NewSatellite()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sat.Fetch(ctx, fixWithAltitude(120, 5))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

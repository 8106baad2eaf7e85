// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package fusion

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/altimetrus/internal/models"
	"github.com/tomtom215/altimetrus/internal/provider"
)

// stubProvider returns a fixed reading or error, optionally after a delay.
type stubProvider struct {
	name    string
	reading models.Reading
	err     error
	delay   time.Duration
}

func (s *stubProvider) Name() string { return s.name }

func (s *stubProvider) Probe(_ context.Context) bool { return s.err == nil }

func (s *stubProvider) Fetch(ctx context.Context, _ models.LocationFix) (models.Reading, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return models.Reading{}, ctx.Err()
		}
	}
	if s.err != nil {
		return models.Reading{}, s.err
	}
	return s.reading, nil
}

func reading(source models.SourceKind, altitude, accuracy, reliability float64) models.Reading {
	return models.Reading{
		Altitude:       altitude,
		Source:         source,
		AccuracyMeters: accuracy,
		Reliability:    reliability,
		CapturedAt:     time.Now(),
	}
}

func TestFetchAllCollectsAllSuccesses(t *testing.T) {
	reg := provider.NewRegistry(
		&stubProvider{name: "a", reading: reading(models.SourceSatellite, 100, 5, 60)},
		&stubProvider{name: "b", reading: reading(models.SourceBarometric, 101, 5, 85)},
		&stubProvider{name: "c", reading: reading(models.SourceRemote, 102, 15, 70)},
	)
	engine := New(reg, time.Second)

	readings := engine.FetchAll(context.Background(), models.LocationFix{})
	if len(readings) != 3 {
		t.Fatalf("len = %d, want 3", len(readings))
	}
	// Registration order preserved.
	if readings[0].Source != models.SourceSatellite || readings[2].Source != models.SourceRemote {
		t.Errorf("readings out of registration order: %+v", readings)
	}
}

func TestFetchAllExcludesFailures(t *testing.T) {
	reg := provider.NewRegistry(
		&stubProvider{name: "a", err: provider.ErrUnavailable},
		&stubProvider{name: "b", reading: reading(models.SourceBarometric, 101, 5, 85)},
		&stubProvider{name: "c", err: errors.New("boom")},
	)
	engine := New(reg, time.Second)

	readings := engine.FetchAll(context.Background(), models.LocationFix{})
	if len(readings) != 1 {
		t.Fatalf("len = %d, want 1", len(readings))
	}
	if readings[0].Source != models.SourceBarometric {
		t.Errorf("wrong survivor: %+v", readings[0])
	}
}

func TestFetchAllTimeoutIsolation(t *testing.T) {
	reg := provider.NewRegistry(
		&stubProvider{name: "slow", delay: 5 * time.Second, reading: reading(models.SourceRemote, 1, 1, 99)},
		&stubProvider{name: "fast", reading: reading(models.SourceSatellite, 100, 5, 60)},
	)
	engine := New(reg, 50*time.Millisecond)

	start := time.Now()
	readings := engine.FetchAll(context.Background(), models.LocationFix{})
	elapsed := time.Since(start)

	if len(readings) != 1 || readings[0].Source != models.SourceSatellite {
		t.Fatalf("expected only the fast reading, got %+v", readings)
	}
	if elapsed > time.Second {
		t.Errorf("slow provider extended the round: %v", elapsed)
	}
}

func TestFetchAllClampsReliability(t *testing.T) {
	reg := provider.NewRegistry(
		&stubProvider{name: "hot", reading: reading(models.SourceSatellite, 100, 5, 150)},
	)
	engine := New(reg, time.Second)

	readings := engine.FetchAll(context.Background(), models.LocationFix{})
	if len(readings) != 1 || readings[0].Reliability != 100 {
		t.Errorf("reliability not clamped: %+v", readings)
	}
}

func TestFetchBestCompositeSelection(t *testing.T) {
	// Provider A: satellite at accuracy 4m, reliability 60 -> 0.7*60 + 0.3*20 = 48.
	// Provider B: barometric at accuracy 5m, reliability 85 -> 0.7*85 + 0.3*20 = 65.5.
	reg := provider.NewRegistry(
		&stubProvider{name: "a", reading: reading(models.SourceSatellite, 120.0, 4, 60)},
		&stubProvider{name: "b", reading: reading(models.SourceBarometric, 118.5, 5, 85)},
	)
	engine := New(reg, time.Second)

	best, err := engine.FetchBest(context.Background(), models.LocationFix{})
	if err != nil {
		t.Fatalf("FetchBest: %v", err)
	}
	if best.Source != models.SourceBarometric || best.Altitude != 118.5 {
		t.Errorf("best = %+v, want barometric 118.5", best)
	}
}

func TestFetchBestTieBreakByRegistrationOrder(t *testing.T) {
	reg := provider.NewRegistry(
		&stubProvider{name: "first", reading: reading(models.SourceSatellite, 100, 5, 80)},
		&stubProvider{name: "second", reading: reading(models.SourceRemote, 200, 5, 80)},
	)
	engine := New(reg, time.Second)

	best, err := engine.FetchBest(context.Background(), models.LocationFix{})
	if err != nil {
		t.Fatalf("FetchBest: %v", err)
	}
	if best.Altitude != 100 {
		t.Errorf("tie should go to the earlier-registered provider, got %+v", best)
	}
}

func TestFetchBestNoReadings(t *testing.T) {
	reg := provider.NewRegistry(
		&stubProvider{name: "a", err: provider.ErrUnavailable},
	)
	engine := New(reg, time.Second)

	_, err := engine.FetchBest(context.Background(), models.LocationFix{})
	if !errors.Is(err, ErrNoReadings) {
		t.Errorf("expected ErrNoReadings, got %v", err)
	}
}

func TestFetchAllEmptyRegistry(t *testing.T) {
	engine := New(provider.NewRegistry(), time.Second)
	if readings := engine.FetchAll(context.Background(), models.LocationFix{}); len(readings) != 0 {
		t.Errorf("expected no readings from empty registry, got %d", len(readings))
	}
}

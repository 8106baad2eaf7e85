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

func TestReportedPressureFreshSample(t *testing.T) {
	r := NewReportedPressure(0)
	if r.Available() {
		t.Error("should be unavailable before any report")
	}

	r.Report(1013.25)
	if !r.Available() {
		t.Error("should be available after a report")
	}

	got, err := r.Pressure(context.Background())
	if err != nil {
		t.Fatalf("Pressure: %v", err)
	}
	if got != 1013.25 {
		t.Errorf("pressure = %v, want 1013.25", got)
	}
}

func TestReportedPressureIgnoresInvalid(t *testing.T) {
	r := NewReportedPressure(0)
	r.Report(0)
	r.Report(-5)
	if r.Available() {
		t.Error("non-positive samples must be ignored")
	}
}

func TestReportedPressureGoesStale(t *testing.T) {
	r := NewReportedPressure(20 * time.Millisecond)
	r.Report(1000)
	time.Sleep(40 * time.Millisecond)

	if r.Available() {
		t.Error("sample should have aged out")
	}
	if _, err := r.Pressure(context.Background()); !errors.Is(err, ErrUnavailable) {
		t.Errorf("Pressure err = %v, want ErrUnavailable", err)
	}
}

func TestReportedPressureFeedsBarometric(t *testing.T) {
	r := NewReportedPressure(0)
	b := NewBarometric(r)

	if b.Probe(context.Background()) {
		t.Error("barometric should probe false without a sample")
	}

	r.Report(1013.25)
	reading, err := b.Fetch(context.Background(), models.LocationFix{})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	// Sea-level pressure yields roughly zero altitude.
	if reading.Altitude < -1 || reading.Altitude > 1 {
		t.Errorf("altitude = %v, want ~0", reading.Altitude)
	}
}

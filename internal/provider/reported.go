// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"context"
	"sync"
	"time"
)

// DefaultPressureMaxAge is how long a reported pressure sample stays
// usable before the barometric provider goes unavailable again.
const DefaultPressureMaxAge = 2 * time.Minute

// ReportedPressure is a PressureSource fed by collaborators: devices
// report ambient pressure over the API and the latest sample serves the
// barometric provider until it goes stale.
type ReportedPressure struct {
	mu         sync.RWMutex
	pressure   float64
	reportedAt time.Time
	maxAge     time.Duration
}

// NewReportedPressure creates the source. maxAge bounds sample staleness;
// zero means DefaultPressureMaxAge.
func NewReportedPressure(maxAge time.Duration) *ReportedPressure {
	if maxAge <= 0 {
		maxAge = DefaultPressureMaxAge
	}
	return &ReportedPressure{maxAge: maxAge}
}

// Report stores a fresh pressure sample in hPa. Non-positive samples are
// ignored.
func (r *ReportedPressure) Report(pressureHPa float64) {
	if pressureHPa <= 0 {
		return
	}
	r.mu.Lock()
	r.pressure = pressureHPa
	r.reportedAt = time.Now()
	r.mu.Unlock()
}

// Pressure implements PressureSource.
func (r *ReportedPressure) Pressure(_ context.Context) (float64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stale() {
		return 0, ErrUnavailable
	}
	return r.pressure, nil
}

// Available implements PressureSource.
func (r *ReportedPressure) Available() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return !r.stale()
}

// stale reports whether the sample is missing or aged out. Caller holds
// the lock.
func (r *ReportedPressure) stale() bool {
	return r.reportedAt.IsZero() || time.Since(r.reportedAt) > r.maxAge
}

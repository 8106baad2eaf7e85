// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package provider defines the altitude provider capability contract and
// the concrete satellite, barometric and remote-lookup providers.
//
// A provider wraps exactly one data source behind {Fetch, Probe, Name}.
// Each provider computes its own reliability score: the catalog prior for
// its source kind adjusted by a source-specific confidence signal, clamped
// to [0,100]. A provider that cannot produce a value returns an error and
// is excluded from that fusion round; it never aborts the others.
package provider

import (
	"context"
	"errors"

	"github.com/tomtom215/altimetrus/internal/models"
)

// ErrUnavailable indicates the provider's data source cannot produce a
// value right now (no hardware, no signal, request failure). Recovered
// locally by the fusion engine.
var ErrUnavailable = errors.New("provider unavailable")

// Provider is the uniform capability contract over one data source.
type Provider interface {
	// Fetch produces a reading for the given location fix. Implementations
	// must honor context cancellation and return promptly on deadline.
	Fetch(ctx context.Context, fix models.LocationFix) (models.Reading, error)

	// Probe reports whether the provider can currently produce readings.
	Probe(ctx context.Context) bool

	// Name returns a stable provider identifier used in logs and metrics.
	Name() string
}

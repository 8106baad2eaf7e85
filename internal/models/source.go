// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package models

// SourceKind identifies the kind of data source a reading came from.
// The string value is the persisted enum name and must stay stable.
type SourceKind string

const (
	// SourceSatellite is a GNSS fix altitude.
	SourceSatellite SourceKind = "satellite"

	// SourceBarometric is an altitude derived from a pressure sensor.
	SourceBarometric SourceKind = "barometric"

	// SourceRemote is an elevation looked up from a remote terrain service.
	SourceRemote SourceKind = "remote"
)

// SourceSpec is the fixed catalog entry for a source kind: the prior used
// for scoring before any per-reading adjustment.
type SourceSpec struct {
	// BaseReliability is the prior trustworthiness in [0,100].
	BaseReliability float64

	// TypicalAccuracyMeters is the accuracy assumed when the source cannot
	// report one itself.
	TypicalAccuracyMeters float64
}

// sourceCatalog holds the registry entry per provider type. Satellite
// altitude carries a low prior (GNSS vertical error is large), barometric
// a high one (relative pressure altitude is stable over a measurement).
var sourceCatalog = map[SourceKind]SourceSpec{
	SourceSatellite:  {BaseReliability: 40, TypicalAccuracyMeters: 10},
	SourceBarometric: {BaseReliability: 75, TypicalAccuracyMeters: 5},
	SourceRemote:     {BaseReliability: 65, TypicalAccuracyMeters: 15},
}

// Spec returns the catalog entry for the source kind. Unknown kinds get a
// zero-trust entry rather than a panic.
func (k SourceKind) Spec() SourceSpec {
	if spec, ok := sourceCatalog[k]; ok {
		return spec
	}
	return SourceSpec{BaseReliability: 0, TypicalAccuracyMeters: 100}
}

// Valid reports whether the kind is a known catalog entry.
func (k SourceKind) Valid() bool {
	_, ok := sourceCatalog[k]
	return ok
}

// ClampScore clamps a reliability score to [0,100].
func ClampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

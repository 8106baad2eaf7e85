// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package models defines the core data model: readings produced by
// providers, records and sessions held by the store, and the derived
// statistics snapshot. The JSON tags on Record and Session are the
// persisted blob contract (see the store package) and are load-bearing.
package models

import (
	"time"
)

// LocationFix is the raw positional input supplied by the collaborator
// layer (GPS wiring lives outside the core).
type LocationFix struct {
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	AccuracyMeters float64 `json:"horizontal_accuracy_meters"`
	// AltitudeMeters is nil when the fix carries no altitude.
	AltitudeMeters *float64  `json:"altitude_meters,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// Reading is one altitude measurement from one provider at one instant.
// Immutable once produced.
type Reading struct {
	Altitude       float64    `json:"altitude"`
	Source         SourceKind `json:"source"`
	AccuracyMeters float64    `json:"accuracy"`
	// Reliability is the 0-100 confidence score, always clamped.
	Reliability float64   `json:"reliability"`
	CapturedAt  time.Time `json:"captured_at"`
	Latitude    float64   `json:"latitude"`
	Longitude   float64   `json:"longitude"`
}

// Record is a persisted Reading plus identity and optional session linkage.
// Owned exclusively by the store after creation; never mutated, only deleted.
type Record struct {
	ID          string     `json:"id"`
	Timestamp   LocalTime  `json:"timestamp"`
	Altitude    float64    `json:"altitude"`
	Source      SourceKind `json:"source"`
	Accuracy    float64    `json:"accuracy"`
	Reliability float64    `json:"reliability"`
	Latitude    float64    `json:"latitude"`
	Longitude   float64    `json:"longitude"`
	SessionID   *string    `json:"sessionId"`
	Description string     `json:"description,omitempty"`
}

// Reading converts the record back to the reading it was created from.
func (r Record) Reading() Reading {
	return Reading{
		Altitude:       r.Altitude,
		Source:         r.Source,
		AccuracyMeters: r.Accuracy,
		Reliability:    r.Reliability,
		CapturedAt:     r.Timestamp.Time,
		Latitude:       r.Latitude,
		Longitude:      r.Longitude,
	}
}

// SessionKind distinguishes the three measurement modes.
type SessionKind string

const (
	// SessionSingle is a self-contained session of exactly one record.
	SessionSingle SessionKind = "single"

	// SessionContinuous stays open across many records until stopped.
	SessionContinuous SessionKind = "continuous"

	// SessionManual groups records appended by explicit user action.
	SessionManual SessionKind = "manual"
)

// Valid reports whether the kind is one of the three measurement modes.
func (k SessionKind) Valid() bool {
	switch k {
	case SessionSingle, SessionContinuous, SessionManual:
		return true
	}
	return false
}

// Session is a time-bounded grouping of records sharing a measurement
// context. EndTime is nil while the session is open; the aggregates are
// recomputed from constituent records on every append.
type Session struct {
	ID              string      `json:"sessionId"`
	Kind            SessionKind `json:"sessionType"`
	StartTime       LocalTime   `json:"startTime"`
	EndTime         *LocalTime  `json:"endTime"`
	TotalRecords    int         `json:"totalRecords"`
	AverageAltitude float64     `json:"averageAltitude"`
	MaxAltitude     float64     `json:"maxAltitude"`
	MinAltitude     float64     `json:"minAltitude"`
	AltitudeRange   float64     `json:"altitudeRange"`
}

// Open reports whether the session has not been closed yet.
func (s Session) Open() bool {
	return s.EndTime == nil
}

// Recompute rebuilds the aggregate fields from the given altitudes.
func (s *Session) Recompute(altitudes []float64) {
	s.TotalRecords = len(altitudes)
	if len(altitudes) == 0 {
		s.AverageAltitude = 0
		s.MaxAltitude = 0
		s.MinAltitude = 0
		s.AltitudeRange = 0
		return
	}

	sum := 0.0
	minAlt := altitudes[0]
	maxAlt := altitudes[0]
	for _, a := range altitudes {
		sum += a
		if a < minAlt {
			minAlt = a
		}
		if a > maxAlt {
			maxAlt = a
		}
	}
	s.AverageAltitude = sum / float64(len(altitudes))
	s.MinAltitude = minAlt
	s.MaxAltitude = maxAlt
	s.AltitudeRange = maxAlt - minAlt
}

// Statistics is the derived snapshot over the live record set. It is
// recomputed per call, never stored.
type Statistics struct {
	Count              int        `json:"count"`
	SessionCount       int        `json:"session_count"`
	AverageAltitude    float64    `json:"average_altitude"`
	MinAltitude        float64    `json:"min_altitude"`
	MaxAltitude        float64    `json:"max_altitude"`
	MostReliableSource SourceKind `json:"most_reliable_source,omitempty"`
	FirstTimestamp     *LocalTime `json:"first_timestamp,omitempty"`
	LastTimestamp      *LocalTime `json:"last_timestamp,omitempty"`
}

// ChartPoint is one downsampled point of the altitude chart series.
type ChartPoint struct {
	Timestamp LocalTime  `json:"timestamp"`
	Altitude  float64    `json:"altitude"`
	Source    SourceKind `json:"source"`
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package store

import (
	"sort"

	"github.com/tomtom215/altimetrus/internal/models"
)

// Statistics derives the aggregate snapshot over the current record set.
// O(n) per call; the set is bounded, so there is no incremental
// maintenance.
func (s *Store) Statistics() models.Statistics {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := models.Statistics{
		Count:        len(s.records),
		SessionCount: len(s.sessions),
	}
	if len(s.records) == 0 {
		return stats
	}

	var sum float64
	reliabilitySum := make(map[models.SourceKind]float64)
	readingCount := make(map[models.SourceKind]int)

	first := s.records[0]
	last := s.records[0]
	stats.MinAltitude = first.Altitude
	stats.MaxAltitude = first.Altitude

	for _, rec := range s.records {
		sum += rec.Altitude
		if rec.Altitude < stats.MinAltitude {
			stats.MinAltitude = rec.Altitude
		}
		if rec.Altitude > stats.MaxAltitude {
			stats.MaxAltitude = rec.Altitude
		}
		if rec.Timestamp.Before(first.Timestamp.Time) {
			first = rec
		}
		if rec.Timestamp.After(last.Timestamp.Time) {
			last = rec
		}
		reliabilitySum[rec.Source] += rec.Reliability
		readingCount[rec.Source]++
	}

	stats.AverageAltitude = sum / float64(len(s.records))
	stats.FirstTimestamp = &first.Timestamp
	stats.LastTimestamp = &last.Timestamp

	// Most reliable source: the kind with the highest mean reliability.
	// Kinds are visited in sorted order so ties resolve to the same kind
	// on every call.
	kinds := make([]models.SourceKind, 0, len(reliabilitySum))
	for kind := range reliabilitySum {
		kinds = append(kinds, kind)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })

	bestMean := -1.0
	for _, kind := range kinds {
		mean := reliabilitySum[kind] / float64(readingCount[kind])
		if mean > bestMean {
			bestMean = mean
			stats.MostReliableSource = kind
		}
	}

	return stats
}

// ChartSeries returns the most recent maxPoints records as chart points
// sorted by timestamp ascending. Downsampling is by truncation of the
// oldest points, not averaging.
func (s *Store) ChartSeries(maxPoints int) []models.ChartPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if maxPoints <= 0 || len(s.records) == 0 {
		return nil
	}

	points := make([]models.ChartPoint, len(s.records))
	for i, rec := range s.records {
		points[i] = models.ChartPoint{
			Timestamp: rec.Timestamp,
			Altitude:  rec.Altitude,
			Source:    rec.Source,
		}
	}
	sort.SliceStable(points, func(i, j int) bool {
		return points[i].Timestamp.Before(points[j].Timestamp.Time)
	})

	if len(points) > maxPoints {
		points = points[len(points)-maxPoints:]
	}
	return points
}

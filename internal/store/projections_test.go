// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package store

import (
	"testing"
	"time"

	"github.com/tomtom215/altimetrus/internal/models"
)

func TestStatisticsEmpty(t *testing.T) {
	s, _ := Open(testDB(t))

	stats := s.Statistics()
	if stats.Count != 0 || stats.SessionCount != 0 {
		t.Errorf("empty store stats = %+v", stats)
	}
	if stats.FirstTimestamp != nil || stats.LastTimestamp != nil {
		t.Error("empty store should have nil first/last timestamps")
	}
}

func TestStatisticsAggregates(t *testing.T) {
	s, _ := Open(testDB(t))
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	// Appended out of chronological order on purpose: first/last are by
	// timestamp, not insertion.
	readings := []struct {
		altitude float64
		source   models.SourceKind
		rel      float64
		offset   time.Duration
	}{
		{110, models.SourceSatellite, 60, 2 * time.Minute},
		{100, models.SourceBarometric, 85, 0},
		{105, models.SourceBarometric, 85, 4 * time.Minute},
		{120, models.SourceRemote, 65, 1 * time.Minute},
	}
	for _, r := range readings {
		s.Append(models.Reading{
			Altitude:    r.altitude,
			Source:      r.source,
			Reliability: r.rel,
			CapturedAt:  base.Add(r.offset),
		}, nil, "")
	}

	stats := s.Statistics()
	if stats.Count != 4 {
		t.Fatalf("Count = %d, want 4", stats.Count)
	}
	if stats.MinAltitude != 100 || stats.MaxAltitude != 120 {
		t.Errorf("min/max = %v/%v, want 100/120", stats.MinAltitude, stats.MaxAltitude)
	}
	if want := (110.0 + 100 + 105 + 120) / 4; stats.AverageAltitude != want {
		t.Errorf("average = %v, want %v", stats.AverageAltitude, want)
	}
	if stats.FirstTimestamp == nil || !stats.FirstTimestamp.Equal(base) {
		t.Errorf("FirstTimestamp = %v, want %v", stats.FirstTimestamp, base)
	}
	if stats.LastTimestamp == nil || !stats.LastTimestamp.Equal(base.Add(4*time.Minute)) {
		t.Errorf("LastTimestamp = %v, want %v", stats.LastTimestamp, base.Add(4*time.Minute))
	}
	// Barometric has the highest mean reliability (85 vs 65 vs 60).
	if stats.MostReliableSource != models.SourceBarometric {
		t.Errorf("MostReliableSource = %v, want barometric", stats.MostReliableSource)
	}
}

func TestStatisticsMostReliableTieIsStable(t *testing.T) {
	s, _ := Open(testDB(t))
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	s.Append(models.Reading{
		Altitude:    100,
		Source:      models.SourceSatellite,
		Reliability: 70,
		CapturedAt:  base,
	}, nil, "")
	s.Append(models.Reading{
		Altitude:    101,
		Source:      models.SourceRemote,
		Reliability: 70,
		CapturedAt:  base.Add(time.Minute),
	}, nil, "")

	// Equal means resolve to the lexicographically smallest kind, on
	// every call.
	for i := 0; i < 10; i++ {
		if got := s.Statistics().MostReliableSource; got != models.SourceRemote {
			t.Fatalf("MostReliableSource = %v, want remote on a tie", got)
		}
	}
}

func TestChartSeriesOrderAndTruncation(t *testing.T) {
	s, _ := Open(testDB(t))
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.Local)

	// Appended newest-first so the series has to sort.
	for i := 4; i >= 0; i-- {
		s.Append(models.Reading{
			Altitude:   float64(100 + i),
			Source:     models.SourceSatellite,
			CapturedAt: base.Add(time.Duration(i) * time.Minute),
		}, nil, "")
	}

	points := s.ChartSeries(10)
	if len(points) != 5 {
		t.Fatalf("len = %d, want 5", len(points))
	}
	for i := 1; i < len(points); i++ {
		if points[i].Timestamp.Before(points[i-1].Timestamp.Time) {
			t.Fatal("chart points not in ascending timestamp order")
		}
	}

	// Downsampling keeps the newest points.
	points = s.ChartSeries(2)
	if len(points) != 2 {
		t.Fatalf("len = %d, want 2", len(points))
	}
	if points[0].Altitude != 103 || points[1].Altitude != 104 {
		t.Errorf("truncated series = %v, want the two newest", points)
	}
}

func TestChartSeriesDegenerate(t *testing.T) {
	s, _ := Open(testDB(t))

	if pts := s.ChartSeries(10); pts != nil {
		t.Errorf("empty store series = %v, want nil", pts)
	}

	s.Append(models.Reading{Altitude: 100, Source: models.SourceSatellite, CapturedAt: time.Now()}, nil, "")
	if pts := s.ChartSeries(0); pts != nil {
		t.Errorf("maxPoints 0 series = %v, want nil", pts)
	}
	if pts := s.ChartSeries(-1); pts != nil {
		t.Errorf("negative maxPoints series = %v, want nil", pts)
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package provider

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/altimetrus/internal/models"
)

type fakePressure struct {
	hPa       float64
	err       error
	available bool
}

func (f *fakePressure) Pressure(_ context.Context) (float64, error) {
	return f.hPa, f.err
}

func (f *fakePressure) Available() bool {
	return f.available
}

func TestPressureToAltitude(t *testing.T) {
	// Reference pressure is sea level by definition.
	if h := PressureToAltitude(1013.25); math.Abs(h) > 0.001 {
		t.Errorf("altitude at P0 = %v, want 0", h)
	}

	// 900 hPa is roughly 1000 m in the standard atmosphere.
	h := PressureToAltitude(900)
	if h < 950 || h > 1050 {
		t.Errorf("altitude at 900 hPa = %v, want ~1000", h)
	}

	// Lower pressure means higher altitude.
	if PressureToAltitude(800) <= PressureToAltitude(900) {
		t.Error("altitude should decrease with pressure")
	}
}

func TestBarometricPressureBands(t *testing.T) {
	tests := []struct {
		name string
		hPa  float64
		want float64 // base 75 + band bonus
	}{
		{"normal band", 1000, 85},
		{"normal band low edge", 950, 85},
		{"normal band high edge", 1050, 85},
		{"acceptable band low", 920, 75},
		{"acceptable band high", 1080, 75},
		{"abnormal low", 850, 55},
		{"abnormal high", 1150, 55},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baro := NewBarometric(&fakePressure{hPa: tt.hPa, available: true})
			reading, err := baro.Fetch(context.Background(), models.LocationFix{})
			if err != nil {
				t.Fatalf("Fetch: %v", err)
			}
			if reading.Reliability != tt.want {
				t.Errorf("reliability = %v, want %v", reading.Reliability, tt.want)
			}
			if reading.Source != models.SourceBarometric {
				t.Errorf("source = %v, want barometric", reading.Source)
			}
		})
	}
}

func TestBarometricUnavailableSensor(t *testing.T) {
	baro := NewBarometric(&fakePressure{available: false})
	if baro.Probe(context.Background()) {
		t.Error("probe should fail for unavailable sensor")
	}
	if _, err := baro.Fetch(context.Background(), models.LocationFix{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable, got %v", err)
	}

	baro = NewBarometric(nil)
	if baro.Probe(context.Background()) {
		t.Error("probe should fail for nil source")
	}
}

func TestBarometricSensorError(t *testing.T) {
	sensorErr := errors.New("sensor read failed")
	baro := NewBarometric(&fakePressure{err: sensorErr, available: true})

	_, err := baro.Fetch(context.Background(), models.LocationFix{})
	if !errors.Is(err, sensorErr) {
		t.Errorf("expected wrapped sensor error, got %v", err)
	}
}

func TestBarometricZeroPressure(t *testing.T) {
	baro := NewBarometric(&fakePressure{hPa: 0, available: true})
	if _, err := baro.Fetch(context.Background(), models.LocationFix{}); !errors.Is(err, ErrUnavailable) {
		t.Errorf("expected ErrUnavailable for zero pressure, got %v", err)
	}
}

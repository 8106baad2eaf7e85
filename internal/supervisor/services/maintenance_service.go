// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package services

import (
	"context"
	"time"
)

// Maintainer is the proactive cleanup hook of the record store.
type Maintainer interface {
	Maintain()
}

// MaintenanceService runs the store's proactive cleanup on a fixed
// cadence so capacity pressure is relieved ahead of the hard ceilings,
// not only on the append that crosses them.
type MaintenanceService struct {
	store    Maintainer
	interval time.Duration
}

// NewMaintenanceService wraps the store. interval defaults to 5 minutes.
func NewMaintenanceService(store Maintainer, interval time.Duration) *MaintenanceService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &MaintenanceService{store: store, interval: interval}
}

// Serve implements suture.Service. One cleanup runs immediately at
// startup to recover headroom left over from the previous process.
func (m *MaintenanceService) Serve(ctx context.Context) error {
	m.store.Maintain()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			m.store.Maintain()
		}
	}
}

func (m *MaintenanceService) String() string {
	return "store-maintenance"
}

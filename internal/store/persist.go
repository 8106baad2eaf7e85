// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package store

import (
	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/metrics"
	"github.com/tomtom215/altimetrus/internal/models"
)

// minimalRecord is the last-resort persisted form: identity, time,
// altitude and source only. The JSON keys match models.Record so a later
// load reads it back without a separate path.
type minimalRecord struct {
	ID        string            `json:"id"`
	Timestamp models.LocalTime  `json:"timestamp"`
	Altitude  float64           `json:"altitude"`
	Source    models.SourceKind `json:"source"`
}

// persistLocked mirrors the in-memory state to the durable blob. The
// three-step degrade keeps the user-visible mutation successful even when
// the durable copy cannot hold the full dataset:
//
//  1. persist everything
//  2. persist a cleanup-reduced copy (truncated, descriptions stripped)
//  3. persist only the newest minimalRecords with minimal fields
//
// If all three fail the durable copy is abandoned for this call; the
// in-memory mutation stands for the process lifetime.
//
// Caller must hold the write lock.
func (s *Store) persistLocked() {
	err := s.writeBlob(s.records, s.sessions)
	if err == nil {
		s.reportSizeLocked()
		return
	}
	logging.Warn().Err(err).Msg("full persist failed, retrying with reduced data")

	// Step 2: reduce in memory the same way the capacity policy would,
	// then retry. The reduction is applied to the live set so the durable
	// copy and memory stay in sync.
	s.truncateRecordsLocked(retainRecords)
	s.truncateSessionsLocked(retainSessions)
	for i := range s.records {
		s.records[i].Description = ""
	}
	metrics.StorePersistFallbacks.WithLabelValues("reduced").Inc()
	if err = s.writeBlob(s.records, s.sessions); err == nil {
		s.reportSizeLocked()
		return
	}
	logging.Warn().Err(err).Msg("reduced persist failed, retrying with minimal records")

	// Step 3: newest minimalRecords with minimal fields. Memory keeps the
	// (already reduced) full records; only the durable form is minimal.
	metrics.StorePersistFallbacks.WithLabelValues("minimal").Inc()
	if err = s.writeMinimal(); err == nil {
		s.reportSizeLocked()
		return
	}
	logging.Error().Err(err).Msg("minimal persist failed, abandoning durable copy for this call")

	metrics.StorePersistFallbacks.WithLabelValues("abandoned").Inc()
}

// writeBlob serializes and writes both lists in one transaction.
func (s *Store) writeBlob(records []models.Record, sessions []models.Session) error {
	recordsJSON, err := json.Marshal(records)
	if err != nil {
		return err
	}
	sessionsJSON, err := json.Marshal(sessions)
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyRecords), recordsJSON); err != nil {
			return err
		}
		return txn.Set([]byte(keySessions), sessionsJSON)
	})
}

// writeMinimal persists only the newest minimalRecords in minimal form.
func (s *Store) writeMinimal() error {
	keep := s.records
	if len(keep) > minimalRecords {
		keep = keep[len(keep)-minimalRecords:]
	}

	minimal := make([]minimalRecord, len(keep))
	for i, rec := range keep {
		minimal[i] = minimalRecord{
			ID:        rec.ID,
			Timestamp: rec.Timestamp,
			Altitude:  rec.Altitude,
			Source:    rec.Source,
		}
	}

	recordsJSON, err := json.Marshal(minimal)
	if err != nil {
		return err
	}
	sessionsJSON, err := json.Marshal([]models.Session{})
	if err != nil {
		return err
	}

	return s.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set([]byte(keyRecords), recordsJSON); err != nil {
			return err
		}
		return txn.Set([]byte(keySessions), sessionsJSON)
	})
}

// reportSizeLocked refreshes the store gauges. Caller holds the write lock.
func (s *Store) reportSizeLocked() {
	metrics.SetStoreSize(len(s.records), len(s.sessions), serializedSize(s.records, s.sessions))
}

// serializedSize returns the byte size of the persisted form of the given
// sets. Marshal errors count as zero; they surface in persistLocked.
func serializedSize(records []models.Record, sessions []models.Session) int64 {
	var total int64
	if data, err := json.Marshal(records); err == nil {
		total += int64(len(data))
	}
	if data, err := json.Marshal(sessions); err == nil {
		total += int64(len(data))
	}
	return total
}

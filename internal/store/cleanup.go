// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package store

import (
	"sort"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/metrics"
	"github.com/tomtom215/altimetrus/internal/models"
)

// Capacity ceilings and the fixed retention counts applied when a ceiling
// is exceeded. Cleanup is last-write-wins: newer data always survives
// over older, regardless of source or reliability.
const (
	// MaxRecords is the hard ceiling on the record count.
	MaxRecords = 5000

	// MaxSessions is the hard ceiling on the session count.
	MaxSessions = 500

	// MaxSerializedBytes is the soft ceiling on the persisted blob size.
	MaxSerializedBytes = 1_000_000

	// retainRecords is the fixed count kept after a record truncation.
	retainRecords = 1000

	// retainSessions is the fixed count kept after a session truncation.
	retainSessions = 250

	// compactedRecords is the fallback count when stripping descriptions
	// alone does not get the blob under the size ceiling.
	compactedRecords = 500

	// minimalRecords is the last-resort count persisted with minimal
	// fields when even reduced persistence fails.
	minimalRecords = 100

	// proactiveFraction of any ceiling triggers cleanup ahead of the
	// ceiling itself.
	proactiveFraction = 0.8
)

// enforceCeilingsLocked applies the capacity policy after an in-memory
// mutation. Caller must hold the write lock.
func (s *Store) enforceCeilingsLocked() {
	if len(s.records) > MaxRecords {
		s.truncateRecordsLocked(retainRecords)
		metrics.StoreCleanups.WithLabelValues("record_count").Inc()
	}

	if len(s.sessions) > MaxSessions {
		s.truncateSessionsLocked(retainSessions)
		metrics.StoreCleanups.WithLabelValues("session_count").Inc()
	}

	if serializedSize(s.records, s.sessions) > MaxSerializedBytes {
		s.compactLocked()
		metrics.StoreCleanups.WithLabelValues("size").Inc()
	}
}

// Maintain proactively runs the same cleanup once utilization crosses the
// proactive fraction of any ceiling. Called at startup and periodically,
// independent of the next append.
func (s *Store) Maintain() {
	s.mu.Lock()

	triggered := false
	if float64(len(s.records)) >= proactiveFraction*MaxRecords {
		s.truncateRecordsLocked(retainRecords)
		triggered = true
	}
	if float64(len(s.sessions)) >= proactiveFraction*MaxSessions {
		s.truncateSessionsLocked(retainSessions)
		triggered = true
	}
	if float64(serializedSize(s.records, s.sessions)) >= proactiveFraction*MaxSerializedBytes {
		s.compactLocked()
		triggered = true
	}

	if triggered {
		metrics.StoreCleanups.WithLabelValues("proactive").Inc()
		s.persistLocked()
		s.mu.Unlock()
		logging.Info().Msg("proactive store cleanup completed")
		return
	}
	s.mu.Unlock()
}

// truncateRecordsLocked retains only the keep most recent records by
// timestamp, preserving insertion order among the survivors. This is a
// full truncation to a fixed count, not an LRU.
func (s *Store) truncateRecordsLocked(keep int) {
	if len(s.records) <= keep {
		return
	}

	// Find the cutoff: the keep-th newest timestamp.
	byTime := make([]models.Record, len(s.records))
	copy(byTime, s.records)
	sort.SliceStable(byTime, func(i, j int) bool {
		return byTime[i].Timestamp.After(byTime[j].Timestamp.Time)
	})
	survivors := make(map[string]struct{}, keep)
	for _, rec := range byTime[:keep] {
		survivors[rec.ID] = struct{}{}
	}

	kept := s.records[:0]
	for _, rec := range s.records {
		if _, ok := survivors[rec.ID]; ok {
			kept = append(kept, rec)
		}
	}
	dropped := len(s.records) - len(kept)
	s.records = kept

	logging.Warn().
		Int("dropped", dropped).
		Int("retained", len(s.records)).
		Msg("record ceiling exceeded, truncated to most recent")
}

// truncateSessionsLocked retains only the keep most recent sessions by
// start time.
func (s *Store) truncateSessionsLocked(keep int) {
	if len(s.sessions) <= keep {
		return
	}

	byStart := make([]models.Session, len(s.sessions))
	copy(byStart, s.sessions)
	sort.SliceStable(byStart, func(i, j int) bool {
		return byStart[i].StartTime.After(byStart[j].StartTime.Time)
	})
	survivors := make(map[string]struct{}, keep)
	for _, sess := range byStart[:keep] {
		survivors[sess.ID] = struct{}{}
	}

	kept := s.sessions[:0]
	for _, sess := range s.sessions {
		if _, ok := survivors[sess.ID]; ok {
			kept = append(kept, sess)
		}
	}
	dropped := len(s.sessions) - len(kept)
	s.sessions = kept

	logging.Warn().
		Int("dropped", dropped).
		Int("retained", len(s.sessions)).
		Msg("session ceiling exceeded, truncated to most recent")
}

// compactLocked reduces serialized size: first strip the free-text
// descriptions from all records, then fall back to keeping only the most
// recent compactedRecords.
func (s *Store) compactLocked() {
	for i := range s.records {
		s.records[i].Description = ""
	}
	if serializedSize(s.records, s.sessions) <= MaxSerializedBytes {
		logging.Warn().Msg("size ceiling exceeded, stripped record descriptions")
		return
	}

	s.truncateRecordsLocked(compactedRecords)
	logging.Warn().
		Int("retained", len(s.records)).
		Msg("size ceiling still exceeded, truncated records")
}

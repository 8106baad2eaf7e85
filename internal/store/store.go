// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package store holds the bounded measurement history: an append-only,
// insertion-ordered record set plus its sessions, mirrored synchronously
// to a BadgerDB blob after every mutation.
//
// The store is deliberately not a queryable engine. The durable form is
// two JSON lists under fixed keys plus one flag; capacity ceilings are
// enforced by fixed-count truncation and description-stripping compaction,
// and persistence degrades in steps rather than failing a mutation.
package store

import (
	"errors"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/metrics"
	"github.com/tomtom215/altimetrus/internal/models"
)

// Badger keys for the persisted blob.
const (
	keyRecords    = "records"
	keySessions   = "sessions"
	keyAutoRecord = "auto_record"
)

// Store is the single-writer record store. Mutations are serialized by a
// mutex; reads hand out copies so callers never observe a torn iteration.
type Store struct {
	mu         sync.RWMutex
	db         *badger.DB
	records    []models.Record
	sessions   []models.Session
	autoRecord bool
}

// Open creates a store over the given Badger handle and loads the
// persisted blob. Individually corrupt entries are skipped, never fatal.
func Open(db *badger.DB) (*Store, error) {
	s := &Store{db: db}
	if err := s.load(); err != nil {
		return nil, err
	}
	s.publishSizeMetrics()
	return s, nil
}

// load reads the durable blob into memory. A missing key means a fresh
// store; a malformed list is logged and treated as empty rather than
// aborting startup.
func (s *Store) load() error {
	return s.db.View(func(txn *badger.Txn) error {
		if data := readKey(txn, keyRecords); data != nil {
			s.records = decodeRecords(data)
		}
		if data := readKey(txn, keySessions); data != nil {
			s.sessions = decodeSessions(data)
		}
		if data := readKey(txn, keyAutoRecord); data != nil {
			s.autoRecord = string(data) == "true"
		}
		return nil
	})
}

// readKey returns the value for key or nil when absent.
func readKey(txn *badger.Txn, key string) []byte {
	item, err := txn.Get([]byte(key))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil
	}
	if err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to read persisted key")
		return nil
	}

	var out []byte
	if err := item.Value(func(val []byte) error {
		out = append(out, val...)
		return nil
	}); err != nil {
		logging.Warn().Err(err).Str("key", key).Msg("failed to copy persisted value")
		return nil
	}
	return out
}

// decodeRecords parses the persisted record list, skipping entries that
// fail to deserialize individually.
func decodeRecords(data []byte) []models.Record {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.Warn().Err(err).Msg("persisted record list unreadable, starting empty")
		return nil
	}

	records := make([]models.Record, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		var rec models.Record
		if err := json.Unmarshal(entry, &rec); err != nil || rec.ID == "" {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("skipped corrupt persisted records")
	}
	return records
}

// decodeSessions parses the persisted session list, skipping corrupt
// entries individually.
func decodeSessions(data []byte) []models.Session {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.Warn().Err(err).Msg("persisted session list unreadable, starting empty")
		return nil
	}

	sessions := make([]models.Session, 0, len(raw))
	skipped := 0
	for _, entry := range raw {
		var sess models.Session
		if err := json.Unmarshal(entry, &sess); err != nil || sess.ID == "" {
			skipped++
			continue
		}
		sessions = append(sessions, sess)
	}
	if skipped > 0 {
		logging.Warn().Int("skipped", skipped).Msg("skipped corrupt persisted sessions")
	}
	return sessions
}

// Append creates a record from the reading and stores it. The in-memory
// mutation always succeeds; only the durable mirror may degrade.
func (s *Store) Append(reading models.Reading, sessionID *string, description string) (models.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if reading.AccuracyMeters < 0 {
		reading.AccuracyMeters = 0
	}

	rec := models.Record{
		ID:          uuid.NewString(),
		Timestamp:   models.NewLocalTime(reading.CapturedAt),
		Altitude:    reading.Altitude,
		Source:      reading.Source,
		Accuracy:    reading.AccuracyMeters,
		Reliability: models.ClampScore(reading.Reliability),
		Latitude:    reading.Latitude,
		Longitude:   reading.Longitude,
		SessionID:   sessionID,
		Description: description,
	}

	s.records = append(s.records, rec)
	s.enforceCeilingsLocked()
	s.persistLocked()
	return rec, nil
}

// Delete removes the record with the given id. Deleting an unknown id is
// a no-op, not an error.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, rec := range s.records {
		if rec.ID == id {
			s.records = append(s.records[:i], s.records[i+1:]...)
			s.persistLocked()
			return
		}
	}
}

// Clear wipes all records and sessions.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = nil
	s.sessions = nil
	s.persistLocked()
}

// All returns a copy of the record set in insertion order.
func (s *Store) All() []models.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Record, len(s.records))
	copy(out, s.records)
	return out
}

// Sessions returns a copy of the session set in insertion order.
func (s *Store) Sessions() []models.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Session, len(s.sessions))
	copy(out, s.sessions)
	return out
}

// Count returns the current record count.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// UpsertSession inserts or replaces a session by id.
func (s *Store) UpsertSession(sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i, existing := range s.sessions {
		if existing.ID == sess.ID {
			s.sessions[i] = sess
			replaced = true
			break
		}
	}
	if !replaced {
		s.sessions = append(s.sessions, sess)
	}

	s.enforceCeilingsLocked()
	s.persistLocked()
	return nil
}

// SessionAltitudes returns the altitudes of all records bearing the
// session id, in insertion order. Implements session.RecordSource.
func (s *Store) SessionAltitudes(sessionID string) []float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []float64
	for _, rec := range s.records {
		if rec.SessionID != nil && *rec.SessionID == sessionID {
			out = append(out, rec.Altitude)
		}
	}
	return out
}

// SetAutoRecord persists the auto-record flag as its own key-value pair.
func (s *Store) SetAutoRecord(enabled bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.autoRecord = enabled
	value := "false"
	if enabled {
		value = "true"
	}
	if err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(keyAutoRecord), []byte(value))
	}); err != nil {
		logging.Warn().Err(err).Msg("failed to persist auto-record flag")
	}
}

// AutoRecord returns the persisted auto-record flag.
func (s *Store) AutoRecord() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.autoRecord
}

// publishSizeMetrics refreshes the store gauges. Callers hold no locks
// worth worrying about; the read lock keeps it consistent.
func (s *Store) publishSizeMetrics() {
	s.mu.RLock()
	records, sessions := len(s.records), len(s.sessions)
	size := serializedSize(s.records, s.sessions)
	s.mu.RUnlock()
	metrics.SetStoreSize(records, sessions, size)
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package session tracks the measurement session lifecycle.
//
// The manager is a two-state machine, Closed and Open, with a global
// invariant: at most one session is open at any time. Opening while open
// is rejected, never silently replaced. Session aggregates are recomputed
// from the full record set on every append so they stay consistent with
// deletions that happened in between.
package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/models"
)

var (
	// ErrSessionOpen is returned by Start when a session is already open.
	ErrSessionOpen = errors.New("a session is already open")

	// ErrSessionClosed is returned by Append and End when no session is open.
	ErrSessionClosed = errors.New("no session is open")

	// ErrSessionMismatch is returned when a record references a session
	// other than the open one.
	ErrSessionMismatch = errors.New("record references a different session")
)

// RecordSource is the slice of the record store the manager needs:
// altitudes for aggregate recomputation and session upserts for
// persistence. Satisfied by *store.Store.
type RecordSource interface {
	// SessionAltitudes returns the altitudes of all records bearing the
	// session id, in insertion order.
	SessionAltitudes(sessionID string) []float64

	// UpsertSession inserts or replaces the session in the store.
	UpsertSession(s models.Session) error
}

// Manager owns the open-session state. All mutations are serialized by an
// internal mutex; the single-writer model keeps aggregate recomputation
// consistent with the record set it reads.
type Manager struct {
	mu      sync.Mutex
	records RecordSource
	current *models.Session
}

// NewManager creates a session manager over the given record source.
func NewManager(records RecordSource) *Manager {
	return &Manager{records: records}
}

// Start opens a new session of the given kind. Fails with ErrSessionOpen
// if one is already open.
func (m *Manager) Start(kind models.SessionKind) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current != nil {
		return models.Session{}, ErrSessionOpen
	}

	s := models.Session{
		ID:        uuid.NewString(),
		Kind:      kind,
		StartTime: models.NewLocalTime(time.Now()),
	}
	if err := m.records.UpsertSession(s); err != nil {
		return models.Session{}, err
	}

	m.current = &s
	logging.Info().
		Str("session_id", s.ID).
		Str("kind", string(kind)).
		Msg("session started")
	return s, nil
}

// Append folds a record into the open session: the aggregates are rebuilt
// from every record currently bearing the session id. Valid only while a
// session is open, and only for records referencing it.
func (m *Manager) Append(rec models.Record) (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return models.Session{}, ErrSessionClosed
	}
	if rec.SessionID == nil || *rec.SessionID != m.current.ID {
		return models.Session{}, ErrSessionMismatch
	}

	m.current.Recompute(m.records.SessionAltitudes(m.current.ID))
	if err := m.records.UpsertSession(*m.current); err != nil {
		return models.Session{}, err
	}
	return *m.current, nil
}

// End stamps the end time on the open session and transitions to Closed.
func (m *Manager) End() (models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return models.Session{}, ErrSessionClosed
	}

	end := models.NewLocalTime(time.Now())
	m.current.EndTime = &end
	if err := m.records.UpsertSession(*m.current); err != nil {
		return models.Session{}, err
	}

	closed := *m.current
	m.current = nil
	logging.Info().
		Str("session_id", closed.ID).
		Int("records", closed.TotalRecords).
		Msg("session ended")
	return closed, nil
}

// Current returns a copy of the open session, if any.
func (m *Manager) Current() (models.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.current == nil {
		return models.Session{}, false
	}
	return *m.current, true
}

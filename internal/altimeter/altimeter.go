// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package altimeter is the collaborator-facing facade over fusion, the
// session lifecycle and the record store. The HTTP and WebSocket layers
// talk to this package only; every mutation it performs is announced on
// the event stream.
package altimeter

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/altimetrus/internal/fusion"
	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/models"
	"github.com/tomtom215/altimetrus/internal/session"
	"github.com/tomtom215/altimetrus/internal/store"
	"github.com/tomtom215/altimetrus/internal/stream"
)

// ErrContinuousNotRunning is returned by StopContinuousSession when no
// continuous measurement loop is active.
var ErrContinuousNotRunning = errors.New("no continuous session is running")

// DefaultStopTimeout bounds how long StopContinuousSession waits for the
// measurement loop to wind down.
const DefaultStopTimeout = 10 * time.Second

// FixFunc supplies the current position estimate for a measurement. The
// continuous loop calls it once per tick.
type FixFunc func(ctx context.Context) models.LocationFix

// Supervisor is the slice of the supervision tree the facade needs to run
// the continuous measurement loop. Satisfied by *suture.Supervisor.
type Supervisor interface {
	Add(service suture.Service) suture.ServiceToken
	RemoveAndWait(token suture.ServiceToken, timeout time.Duration) error
}

// Altimeter coordinates one measurement pipeline: fuse, record, fold into
// the session, publish.
type Altimeter struct {
	engine   *fusion.Engine
	store    *store.Store
	sessions *session.Manager
	broker   *stream.Broker
	sup      Supervisor

	mu              sync.Mutex
	continuousToken suture.ServiceToken
	continuousOn    bool
}

// New creates the facade. sup hosts the continuous measurement loop; it
// may be nil if continuous sessions are never started.
func New(engine *fusion.Engine, st *store.Store, sessions *session.Manager, broker *stream.Broker, sup Supervisor) *Altimeter {
	return &Altimeter{
		engine:   engine,
		store:    st,
		sessions: sessions,
		broker:   broker,
		sup:      sup,
	}
}

// StartMeasurement performs a single fused measurement. If a session is
// open the record joins it; otherwise a single-measurement session is
// opened around the record and closed again.
func (a *Altimeter) StartMeasurement(ctx context.Context, fix models.LocationFix, description string) (models.Record, error) {
	reading, err := a.engine.FetchBest(ctx, fix)
	if err != nil {
		return models.Record{}, err
	}

	if current, open := a.sessions.Current(); open {
		return a.appendToSession(reading, current.ID, description)
	}

	opened, err := a.sessions.Start(models.SessionSingle)
	if err != nil {
		// Lost the race to another opener; join their session instead.
		if errors.Is(err, session.ErrSessionOpen) {
			if current, open := a.sessions.Current(); open {
				return a.appendToSession(reading, current.ID, description)
			}
		}
		return models.Record{}, err
	}
	a.publishSession(stream.SessionStarted, opened)

	rec, err := a.appendToSession(reading, opened.ID, description)
	if err != nil {
		return models.Record{}, err
	}

	closed, err := a.sessions.End()
	if err != nil {
		return models.Record{}, err
	}
	a.publishSession(stream.SessionEnded, closed)
	return rec, nil
}

// appendToSession stores the reading under the session and folds it into
// the session aggregates.
func (a *Altimeter) appendToSession(reading models.Reading, sessionID, description string) (models.Record, error) {
	rec, err := a.store.Append(reading, &sessionID, description)
	if err != nil {
		return models.Record{}, err
	}

	updated, err := a.sessions.Append(rec)
	if err != nil {
		return models.Record{}, err
	}

	a.publishRecord(rec)
	a.publishSession(stream.SessionUpdated, updated)
	a.publishStats()
	return rec, nil
}

// StartSession opens a manual session of the given kind.
func (a *Altimeter) StartSession(kind models.SessionKind) (models.Session, error) {
	opened, err := a.sessions.Start(kind)
	if err != nil {
		return models.Session{}, err
	}
	a.publishSession(stream.SessionStarted, opened)
	return opened, nil
}

// EndSession closes the open session.
func (a *Altimeter) EndSession() (models.Session, error) {
	closed, err := a.sessions.End()
	if err != nil {
		return models.Session{}, err
	}
	a.publishSession(stream.SessionEnded, closed)
	a.publishStats()
	return closed, nil
}

// CurrentSession returns the open session, if any.
func (a *Altimeter) CurrentSession() (models.Session, bool) {
	return a.sessions.Current()
}

// DeleteRecord removes a single record. Unknown ids are a no-op.
func (a *Altimeter) DeleteRecord(id string) {
	a.store.Delete(id)
	if err := a.broker.PublishRecordDeleted(id); err != nil {
		logging.Warn().Err(err).Msg("failed to publish record deletion")
	}
	a.publishStats()
}

// ClearAll wipes the entire measurement history.
func (a *Altimeter) ClearAll() {
	a.store.Clear()
	if err := a.broker.PublishRecordsCleared(); err != nil {
		logging.Warn().Err(err).Msg("failed to publish history clear")
	}
	a.publishStats()
}

// SetAutoRecord toggles the persisted auto-record flag.
func (a *Altimeter) SetAutoRecord(enabled bool) {
	a.store.SetAutoRecord(enabled)
}

// AutoRecord returns the persisted auto-record flag.
func (a *Altimeter) AutoRecord() bool {
	return a.store.AutoRecord()
}

func (a *Altimeter) publishRecord(rec models.Record) {
	if err := a.broker.PublishRecordCreated(rec); err != nil {
		logging.Warn().Err(err).Str("record_id", rec.ID).Msg("failed to publish record")
	}
}

func (a *Altimeter) publishSession(action string, sess models.Session) {
	if err := a.broker.PublishSession(action, sess); err != nil {
		logging.Warn().Err(err).Str("session_id", sess.ID).Msg("failed to publish session event")
	}
}

func (a *Altimeter) publishStats() {
	if err := a.broker.PublishStats(a.store.Statistics()); err != nil {
		logging.Warn().Err(err).Msg("failed to publish statistics")
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package altimeter

import (
	"context"
	"errors"
	"time"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/models"
	"github.com/tomtom215/altimetrus/internal/session"
	"github.com/tomtom215/altimetrus/internal/stream"
)

// ErrNoSupervisor is returned by StartContinuousSession when the facade
// was built without a supervisor to host the measurement loop.
var ErrNoSupervisor = errors.New("no supervisor configured for continuous measurement")

// ErrContinuousRunning is returned by StartContinuousSession when a loop
// is already active.
var ErrContinuousRunning = errors.New("a continuous session is already running")

// DefaultMeasurementInterval is the cadence used when a caller supplies a
// non-positive interval.
const DefaultMeasurementInterval = time.Minute

// StartContinuousSession opens a continuous session and hands the
// measurement loop to the supervisor. The loop takes one measurement per
// interval until stopped.
func (a *Altimeter) StartContinuousSession(interval time.Duration, fix FixFunc) (models.Session, error) {
	if a.sup == nil {
		return models.Session{}, ErrNoSupervisor
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.continuousOn {
		return models.Session{}, ErrContinuousRunning
	}

	opened, err := a.sessions.Start(models.SessionContinuous)
	if err != nil {
		return models.Session{}, err
	}
	a.publishSession(stream.SessionStarted, opened)

	a.continuousToken = a.sup.Add(&continuousRunner{
		alt:       a,
		sessionID: opened.ID,
		interval:  interval,
		fix:       fix,
	})
	a.continuousOn = true
	return opened, nil
}

// StopContinuousSession stops the measurement loop and waits for it to
// close the session. ErrContinuousNotRunning when no loop is active.
func (a *Altimeter) StopContinuousSession() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.continuousOn {
		return ErrContinuousNotRunning
	}

	err := a.sup.RemoveAndWait(a.continuousToken, DefaultStopTimeout)
	a.continuousOn = false
	if err != nil {
		return err
	}

	// The runner ends the session on its way out; if it died without
	// reaching that point, close it here so the invariant holds.
	if _, open := a.sessions.Current(); open {
		closed, endErr := a.sessions.End()
		if endErr != nil {
			return endErr
		}
		a.publishSession(stream.SessionEnded, closed)
	}
	return nil
}

// ContinuousRunning reports whether the measurement loop is active.
func (a *Altimeter) ContinuousRunning() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.continuousOn
}

// continuousRunner is the supervised measurement loop. Serve returns only
// on context cancellation; individual measurement failures are logged and
// the loop keeps ticking.
type continuousRunner struct {
	alt       *Altimeter
	sessionID string
	interval  time.Duration
	fix       FixFunc
}

func (r *continuousRunner) Serve(ctx context.Context) error {
	// NewTicker panics on a non-positive interval; a panicking service
	// would spin in a supervisor restart loop with the session left open.
	interval := r.interval
	if interval <= 0 {
		interval = DefaultMeasurementInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logging.Info().
		Str("session_id", r.sessionID).
		Dur("interval", interval).
		Msg("continuous measurement started")

	for {
		select {
		case <-ctx.Done():
			r.closeSession()
			return ctx.Err()
		case <-ticker.C:
			r.measureOnce(ctx)
		}
	}
}

func (r *continuousRunner) measureOnce(ctx context.Context) {
	reading, err := r.alt.engine.FetchBest(ctx, r.fix(ctx))
	if err != nil {
		logging.Warn().Err(err).Str("session_id", r.sessionID).Msg("continuous measurement round failed")
		return
	}
	if _, err := r.alt.appendToSession(reading, r.sessionID, ""); err != nil {
		logging.Warn().Err(err).Str("session_id", r.sessionID).Msg("failed to record continuous measurement")
	}
}

// closeSession ends the session cooperatively before Serve returns. The
// session may already be closed if a collaborator ended it out of band.
func (r *continuousRunner) closeSession() {
	closed, err := r.alt.sessions.End()
	if err != nil {
		if !errors.Is(err, session.ErrSessionClosed) {
			logging.Warn().Err(err).Str("session_id", r.sessionID).Msg("failed to close continuous session")
		}
		return
	}
	r.alt.publishSession(stream.SessionEnded, closed)
	r.alt.publishStats()
	logging.Info().
		Str("session_id", closed.ID).
		Int("records", closed.TotalRecords).
		Msg("continuous measurement stopped")
}

func (r *continuousRunner) String() string {
	return "continuous-measurement[" + r.sessionID + "]"
}

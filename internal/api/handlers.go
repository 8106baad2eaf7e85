// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package api is the HTTP surface: measurement, history, sessions,
// projections and the live WebSocket feed, served over chi.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/tomtom215/altimetrus/internal/altimeter"
	"github.com/tomtom215/altimetrus/internal/fusion"
	"github.com/tomtom215/altimetrus/internal/models"
	"github.com/tomtom215/altimetrus/internal/provider"
	"github.com/tomtom215/altimetrus/internal/session"
	"github.com/tomtom215/altimetrus/internal/store"
	"github.com/tomtom215/altimetrus/internal/validation"
	"github.com/tomtom215/altimetrus/internal/websocket"
)

// defaultChartPoints bounds the chart series when the client does not ask
// for a specific size.
const defaultChartPoints = 100

// Handler carries the dependencies shared by all endpoints.
type Handler struct {
	alt      *altimeter.Altimeter
	store    *store.Store
	hub      *websocket.Hub
	registry *provider.Registry
	pressure *provider.ReportedPressure
}

// NewHandler creates the endpoint handler set. pressure may be nil when
// the barometric provider is disabled.
func NewHandler(alt *altimeter.Altimeter, st *store.Store, hub *websocket.Hub, registry *provider.Registry, pressure *provider.ReportedPressure) *Handler {
	return &Handler{alt: alt, store: st, hub: hub, registry: registry, pressure: pressure}
}

// MeasureRequest is the body of POST /api/v1/measure.
type MeasureRequest struct {
	Latitude       float64  `json:"latitude" validate:"latitude"`
	Longitude      float64  `json:"longitude" validate:"longitude"`
	AccuracyMeters float64  `json:"horizontal_accuracy_meters" validate:"gte=0"`
	AltitudeMeters *float64 `json:"altitude_meters"`
	PressureHPa    *float64 `json:"pressure_hpa" validate:"omitempty,gt=0"`
	Description    string   `json:"description" validate:"max=500"`
}

// Measure performs one fused measurement and returns the stored record.
func (h *Handler) Measure(w http.ResponseWriter, r *http.Request) {
	var req MeasureRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "request body is not valid JSON", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, codeValidation, verr.Error(), nil)
		return
	}

	if req.PressureHPa != nil && h.pressure != nil {
		h.pressure.Report(*req.PressureHPa)
	}

	fix := models.LocationFix{
		Latitude:       req.Latitude,
		Longitude:      req.Longitude,
		AccuracyMeters: req.AccuracyMeters,
		AltitudeMeters: req.AltitudeMeters,
		Timestamp:      time.Now(),
	}

	rec, err := h.alt.StartMeasurement(r.Context(), fix, req.Description)
	if err != nil {
		if errors.Is(err, fusion.ErrNoReadings) {
			respondError(w, http.StatusServiceUnavailable, codeNoProviders, "no altitude provider produced a reading", err)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "measurement failed", err)
		return
	}

	respondJSON(w, http.StatusCreated, rec)
}

// Records returns the full measurement history in insertion order.
func (h *Handler) Records(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.All())
}

// DeleteRecord removes one record by id. Unknown ids succeed; the
// operation is idempotent.
func (h *Handler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "record id is required", nil)
		return
	}
	h.alt.DeleteRecord(id)
	w.WriteHeader(http.StatusNoContent)
}

// ClearRecords wipes the entire history.
func (h *Handler) ClearRecords(w http.ResponseWriter, r *http.Request) {
	h.alt.ClearAll()
	w.WriteHeader(http.StatusNoContent)
}

// Sessions returns all stored sessions.
func (h *Handler) Sessions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Sessions())
}

// CurrentSession returns the open session, or 404 when none is open.
func (h *Handler) CurrentSession(w http.ResponseWriter, r *http.Request) {
	sess, open := h.alt.CurrentSession()
	if !open {
		respondError(w, http.StatusNotFound, codeNoSession, "no session is open", nil)
		return
	}
	respondJSON(w, http.StatusOK, sess)
}

// StartSessionRequest is the body of POST /api/v1/sessions.
type StartSessionRequest struct {
	Kind            string  `json:"type" validate:"required,oneof=manual continuous"`
	IntervalSeconds int     `json:"interval_seconds" validate:"omitempty,gte=1,lte=3600"`
	Latitude        float64 `json:"latitude" validate:"latitude"`
	Longitude       float64 `json:"longitude" validate:"longitude"`
}

// StartSession opens a manual session, or a continuous one with its
// supervised measurement loop.
func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "request body is not valid JSON", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, codeValidation, verr.Error(), nil)
		return
	}

	var (
		sess models.Session
		err  error
	)
	if req.Kind == string(models.SessionContinuous) {
		interval := time.Duration(req.IntervalSeconds) * time.Second
		if interval == 0 {
			interval = altimeter.DefaultMeasurementInterval
		}
		fix := models.LocationFix{Latitude: req.Latitude, Longitude: req.Longitude}
		sess, err = h.alt.StartContinuousSession(interval, func(ctx context.Context) models.LocationFix {
			fix.Timestamp = time.Now()
			return fix
		})
	} else {
		sess, err = h.alt.StartSession(models.SessionManual)
	}

	if err != nil {
		switch {
		case errors.Is(err, session.ErrSessionOpen):
			respondError(w, http.StatusConflict, codeSessionConflict, "a session is already open", nil)
		case errors.Is(err, altimeter.ErrContinuousRunning):
			respondError(w, http.StatusConflict, codeContinuousConflict, "a continuous session is already running", nil)
		default:
			respondError(w, http.StatusInternalServerError, codeInternal, "failed to start session", err)
		}
		return
	}

	respondJSON(w, http.StatusCreated, sess)
}

// EndSession closes the open session. If a continuous loop is running it
// is stopped first; the loop closes the session on its way out.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	if h.alt.ContinuousRunning() {
		if err := h.alt.StopContinuousSession(); err != nil {
			respondError(w, http.StatusInternalServerError, codeInternal, "failed to stop continuous session", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
		return
	}

	closed, err := h.alt.EndSession()
	if err != nil {
		if errors.Is(err, session.ErrSessionClosed) {
			respondError(w, http.StatusConflict, codeNoSession, "no session is open", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, codeInternal, "failed to end session", err)
		return
	}
	respondJSON(w, http.StatusOK, closed)
}

// Stats returns the statistics snapshot over the current history.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.store.Statistics())
}

// Chart returns the downsampled altitude series, newest points retained.
func (h *Handler) Chart(w http.ResponseWriter, r *http.Request) {
	maxPoints := defaultChartPoints
	if raw := r.URL.Query().Get("max_points"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			respondError(w, http.StatusBadRequest, codeInvalidRequest, "max_points must be a positive integer", err)
			return
		}
		maxPoints = parsed
	}

	points := h.store.ChartSeries(maxPoints)
	if points == nil {
		points = []models.ChartPoint{}
	}
	respondJSON(w, http.StatusOK, points)
}

// AutoRecordSetting is the GET/PUT payload for the auto-record flag.
type AutoRecordSetting struct {
	Enabled bool `json:"enabled"`
}

// GetAutoRecord returns the persisted auto-record flag.
func (h *Handler) GetAutoRecord(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, AutoRecordSetting{Enabled: h.alt.AutoRecord()})
}

// SetAutoRecord updates the persisted auto-record flag.
func (h *Handler) SetAutoRecord(w http.ResponseWriter, r *http.Request) {
	var req AutoRecordSetting
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "request body is not valid JSON", err)
		return
	}
	h.alt.SetAutoRecord(req.Enabled)
	respondJSON(w, http.StatusOK, req)
}

// PressureReport is the body of PUT /api/v1/sensors/pressure.
type PressureReport struct {
	PressureHPa float64 `json:"pressure_hpa" validate:"required,gt=0"`
}

// ReportPressure stores an ambient pressure sample for the barometric
// provider.
func (h *Handler) ReportPressure(w http.ResponseWriter, r *http.Request) {
	var req PressureReport
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, codeInvalidRequest, "request body is not valid JSON", err)
		return
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondError(w, http.StatusBadRequest, codeValidation, verr.Error(), nil)
		return
	}
	if h.pressure == nil {
		respondError(w, http.StatusConflict, codeInvalidRequest, "barometric provider is disabled", nil)
		return
	}
	h.pressure.Report(req.PressureHPa)
	w.WriteHeader(http.StatusNoContent)
}

// Health reports liveness, store gauges, the open-session state and the
// availability probe of every registered provider.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	providers := map[string]bool{}
	for _, p := range h.registry.Snapshot() {
		providers[p.Name()] = p.Probe(r.Context())
	}
	_, sessionOpen := h.alt.CurrentSession()

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"healthy":      true,
		"records":      h.store.Count(),
		"sessions":     len(h.store.Sessions()),
		"session_open": sessionOpen,
		"providers":    providers,
	})
}

// WebSocket upgrades the connection and attaches it to the hub.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	websocket.ServeWS(h.hub, w, r)
}

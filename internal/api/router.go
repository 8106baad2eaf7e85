// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the chi router over the handler set.
func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(requestMetrics)

		r.Post("/measure", h.Measure)

		r.Get("/records", h.Records)
		r.Delete("/records/{id}", h.DeleteRecord)
		r.Delete("/records", h.ClearRecords)

		r.Get("/sessions", h.Sessions)
		r.Post("/sessions", h.StartSession)
		r.Get("/sessions/current", h.CurrentSession)
		r.Delete("/sessions/current", h.EndSession)

		r.Get("/stats", h.Stats)
		r.Get("/chart", h.Chart)

		r.Get("/settings/auto-record", h.GetAutoRecord)
		r.Put("/settings/auto-record", h.SetAutoRecord)

		r.Put("/sensors/pressure", h.ReportPressure)
	})

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", h.WebSocket)

	return r
}

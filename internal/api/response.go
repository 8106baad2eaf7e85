// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package api

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/altimetrus/internal/logging"
)

// Response is the uniform envelope for every JSON endpoint.
type Response struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Error     *Error      `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// Error is the machine-readable error payload.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes used across handlers.
const (
	codeInvalidRequest     = "INVALID_REQUEST"
	codeValidation         = "VALIDATION_ERROR"
	codeNoProviders        = "NO_PROVIDERS_AVAILABLE"
	codeSessionConflict    = "SESSION_CONFLICT"
	codeNoSession          = "NO_OPEN_SESSION"
	codeContinuousConflict = "CONTINUOUS_CONFLICT"
	codeInternal           = "INTERNAL_ERROR"
)

// respondJSON writes the envelope with the given status.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")

	body, err := json.Marshal(&Response{
		Status:    "ok",
		Data:      data,
		Timestamp: time.Now(),
	})
	if err != nil {
		logging.Error().Err(err).Msg("failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		logging.Error().Err(err).Msg("failed to write JSON response")
	}
}

// respondError writes an error envelope. The wire message is intentionally
// terse; err carries the detail into the log only.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().Str("code", code).Err(err).Msg("api error")
	}

	w.Header().Set("Content-Type", "application/json")
	body, marshalErr := json.Marshal(&Response{
		Status:    "error",
		Error:     &Error{Code: code, Message: message},
		Timestamp: time.Now(),
	})
	if marshalErr != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, writeErr := w.Write(body); writeErr != nil {
		logging.Error().Err(writeErr).Msg("failed to write error response")
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package stream

import (
	"github.com/ThreeDotsLabs/watermill"

	"github.com/tomtom215/altimetrus/internal/logging"
)

// loggerAdapter routes Watermill's log output through the process logger so
// broker internals share the structured log stream.
type loggerAdapter struct {
	fields watermill.LogFields
}

// NewLoggerAdapter returns a watermill.LoggerAdapter backed by the global
// zerolog logger.
func NewLoggerAdapter() watermill.LoggerAdapter {
	return &loggerAdapter{}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	event := logging.Error().Err(err)
	for k, v := range l.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	event := logging.Debug() // Watermill's Info is chatty; demote to debug.
	for k, v := range l.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	for k, v := range l.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	event := logging.Debug()
	for k, v := range l.fields.Add(fields) {
		event = event.Interface(k, v)
	}
	event.Msg(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{fields: l.fields.Add(fields)}
}

var _ watermill.LoggerAdapter = (*loggerAdapter)(nil)

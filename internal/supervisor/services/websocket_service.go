// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package services

import (
	"context"
)

// HubRunner matches the websocket hub's supervised entry point.
type HubRunner interface {
	RunWithContext(ctx context.Context) error
}

// WebSocketService adapts the hub loop to suture.Service.
type WebSocketService struct {
	hub HubRunner
}

// NewWebSocketService wraps the hub.
func NewWebSocketService(hub HubRunner) *WebSocketService {
	return &WebSocketService{hub: hub}
}

// Serve implements suture.Service.
func (w *WebSocketService) Serve(ctx context.Context) error {
	return w.hub.RunWithContext(ctx)
}

func (w *WebSocketService) String() string {
	return "websocket-hub"
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package websocket

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/stream"
)

// Forwarder bridges the internal event stream onto the hub: every record,
// session and statistics event published by the core becomes a websocket
// frame. Runs as a supervised service.
type Forwarder struct {
	broker *stream.Broker
	hub    *Hub
}

// NewForwarder creates a forwarder over the given broker and hub.
func NewForwarder(broker *stream.Broker, hub *Hub) *Forwarder {
	return &Forwarder{broker: broker, hub: hub}
}

// Serve subscribes to all three topics and forwards until ctx is
// canceled. Implements suture.Service.
func (f *Forwarder) Serve(ctx context.Context) error {
	records, err := f.broker.Subscribe(ctx, stream.TopicRecords)
	if err != nil {
		return err
	}
	sessions, err := f.broker.Subscribe(ctx, stream.TopicSessions)
	if err != nil {
		return err
	}
	stats, err := f.broker.Subscribe(ctx, stream.TopicStats)
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case msg, ok := <-records:
			if !ok {
				return ctx.Err()
			}
			f.forwardRecord(msg.Payload)
			msg.Ack()

		case msg, ok := <-sessions:
			if !ok {
				return ctx.Err()
			}
			f.forwardSession(msg.Payload)
			msg.Ack()

		case msg, ok := <-stats:
			if !ok {
				return ctx.Err()
			}
			f.forwardStats(msg.Payload)
			msg.Ack()
		}
	}
}

func (f *Forwarder) forwardRecord(payload []byte) {
	var event stream.RecordEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logging.Warn().Err(err).Msg("unreadable record event, dropping")
		return
	}

	switch event.Action {
	case stream.RecordCreated:
		if event.Record != nil {
			f.hub.BroadcastRecordCreated(*event.Record)
		}
	case stream.RecordDeleted:
		f.hub.BroadcastRecordDeleted(event.RecordID)
	case stream.RecordCleared:
		f.hub.BroadcastRecordsCleared()
	default:
		logging.Warn().Str("action", event.Action).Msg("unknown record event action")
	}
}

func (f *Forwarder) forwardSession(payload []byte) {
	var event stream.SessionEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logging.Warn().Err(err).Msg("unreadable session event, dropping")
		return
	}
	f.hub.BroadcastSessionUpdate(event.Action, event.Session)
}

func (f *Forwarder) forwardStats(payload []byte) {
	var event stream.StatsEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		logging.Warn().Err(err).Msg("unreadable stats event, dropping")
		return
	}
	f.hub.BroadcastStatsUpdate(event.Stats)
}

func (f *Forwarder) String() string {
	return "websocket-forwarder"
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package stream is the in-process event fabric. Mutations to the
// measurement history are published as JSON messages on per-concern
// topics; consumers (the WebSocket hub, tests) subscribe independently.
package stream

import (
	"context"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/tomtom215/altimetrus/internal/models"
)

// Topics carried by the broker.
const (
	TopicRecords  = "altitude.records"
	TopicSessions = "altitude.sessions"
	TopicStats    = "altitude.stats"
)

// Record event actions.
const (
	RecordCreated = "created"
	RecordDeleted = "deleted"
	RecordCleared = "cleared"
)

// Session event actions.
const (
	SessionStarted = "started"
	SessionUpdated = "updated"
	SessionEnded   = "ended"
)

// RecordEvent describes a change to the record set. Record is nil for
// "cleared"; RecordID alone is set for "deleted".
type RecordEvent struct {
	Action   string         `json:"action"`
	Record   *models.Record `json:"record,omitempty"`
	RecordID string         `json:"recordId,omitempty"`
}

// SessionEvent describes a session lifecycle transition.
type SessionEvent struct {
	Action  string         `json:"action"`
	Session models.Session `json:"session"`
}

// StatsEvent carries a fresh statistics snapshot after a mutation.
type StatsEvent struct {
	Stats models.Statistics `json:"stats"`
}

// Broker is a thin wrapper over Watermill's in-process pub/sub with typed
// publish helpers. Delivery per topic is in publish order: a publish does
// not return until every subscriber has acked, so subscribers must ack
// promptly and never publish back from the receive path.
type Broker struct {
	pubsub *gochannel.GoChannel

	mu     sync.RWMutex
	closed bool
}

// NewBroker creates the broker. bufferSize bounds each subscriber's
// pending messages; zero means unbuffered.
func NewBroker(bufferSize int64) *Broker {
	return &Broker{
		// Without the ack barrier gochannel delivers each message in its
		// own goroutine and per-topic ordering is lost.
		pubsub: gochannel.NewGoChannel(gochannel.Config{
			OutputChannelBuffer:            bufferSize,
			BlockPublishUntilSubscriberAck: true,
		}, NewLoggerAdapter()),
	}
}

// Subscribe returns a channel of messages for the topic. The channel
// closes when ctx is canceled or the broker is closed.
func (b *Broker) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// PublishRecordCreated announces a freshly appended record.
func (b *Broker) PublishRecordCreated(rec models.Record) error {
	return b.publish(TopicRecords, RecordEvent{Action: RecordCreated, Record: &rec})
}

// PublishRecordDeleted announces removal of a single record.
func (b *Broker) PublishRecordDeleted(id string) error {
	return b.publish(TopicRecords, RecordEvent{Action: RecordDeleted, RecordID: id})
}

// PublishRecordsCleared announces a full wipe of the history.
func (b *Broker) PublishRecordsCleared() error {
	return b.publish(TopicRecords, RecordEvent{Action: RecordCleared})
}

// PublishSession announces a session lifecycle transition.
func (b *Broker) PublishSession(action string, sess models.Session) error {
	return b.publish(TopicSessions, SessionEvent{Action: action, Session: sess})
}

// PublishStats announces a refreshed statistics snapshot.
func (b *Broker) PublishStats(stats models.Statistics) error {
	return b.publish(TopicStats, StatsEvent{Stats: stats})
}

func (b *Broker) publish(topic string, event any) error {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return fmt.Errorf("stream: broker is closed")
	}
	b.mu.RUnlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("stream: marshal event for %s: %w", topic, err)
	}
	return b.pubsub.Publish(topic, message.NewMessage(uuid.NewString(), data))
}

// Close shuts down the broker and closes all subscriber channels.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true
	return b.pubsub.Close()
}

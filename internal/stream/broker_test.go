// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package stream

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/tomtom215/altimetrus/internal/models"
)

// drainPayloads acks every message on ch from its own goroutine and
// forwards the payloads in delivery order. Publishing blocks until the
// subscriber acks, so tests must consume concurrently.
func drainPayloads(ch <-chan *message.Message) <-chan []byte {
	out := make(chan []byte, 64)
	go func() {
		defer close(out)
		for msg := range ch {
			payload := msg.Payload
			msg.Ack()
			out <- payload
		}
	}()
	return out
}

func recvPayload(t *testing.T, ch <-chan []byte) []byte {
	t.Helper()
	select {
	case payload, ok := <-ch:
		if !ok {
			t.Fatal("subscription channel closed unexpectedly")
		}
		return payload
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
		return nil
	}
}

func TestPublishRecordCreated(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()

	ch, err := b.Subscribe(context.Background(), TopicRecords)
	if err != nil {
		t.Fatalf("Subscribe: %v", err)
	}
	payloads := drainPayloads(ch)

	rec := models.Record{ID: "rec-1", Altitude: 432.1, Source: models.SourceBarometric}
	if err := b.PublishRecordCreated(rec); err != nil {
		t.Fatalf("publish: %v", err)
	}

	var event RecordEvent
	if err := json.Unmarshal(recvPayload(t, payloads), &event); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if event.Action != RecordCreated {
		t.Errorf("action = %q, want %q", event.Action, RecordCreated)
	}
	if event.Record == nil || event.Record.ID != "rec-1" || event.Record.Altitude != 432.1 {
		t.Errorf("record payload = %+v", event.Record)
	}
}

func TestPublishRecordDeletedAndCleared(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), TopicRecords)
	payloads := drainPayloads(ch)

	b.PublishRecordDeleted("rec-9")
	b.PublishRecordsCleared()

	var event RecordEvent
	json.Unmarshal(recvPayload(t, payloads), &event)
	if event.Action != RecordDeleted || event.RecordID != "rec-9" || event.Record != nil {
		t.Errorf("delete event = %+v", event)
	}

	event = RecordEvent{}
	json.Unmarshal(recvPayload(t, payloads), &event)
	if event.Action != RecordCleared || event.Record != nil || event.RecordID != "" {
		t.Errorf("clear event = %+v", event)
	}
}

func TestPublishSessionLifecycle(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), TopicSessions)
	payloads := drainPayloads(ch)

	sess := models.Session{ID: "s1", Kind: models.SessionContinuous}
	for _, action := range []string{SessionStarted, SessionUpdated, SessionEnded} {
		if err := b.PublishSession(action, sess); err != nil {
			t.Fatalf("publish %s: %v", action, err)
		}
	}

	for _, want := range []string{SessionStarted, SessionUpdated, SessionEnded} {
		var event SessionEvent
		if err := json.Unmarshal(recvPayload(t, payloads), &event); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if event.Action != want || event.Session.ID != "s1" {
			t.Errorf("event = %+v, want action %q", event, want)
		}
	}
}

func TestRecordEventsDeliveredInPublishOrder(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()

	ch, _ := b.Subscribe(context.Background(), TopicRecords)
	payloads := drainPayloads(ch)

	const burst = 50
	for i := 0; i < burst; i++ {
		if err := b.PublishRecordDeleted(fmt.Sprintf("rec-%03d", i)); err != nil {
			t.Fatalf("publish %d: %v", i, err)
		}
	}

	for i := 0; i < burst; i++ {
		var event RecordEvent
		if err := json.Unmarshal(recvPayload(t, payloads), &event); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if want := fmt.Sprintf("rec-%03d", i); event.RecordID != want {
			t.Fatalf("message %d carries %q, want %q", i, event.RecordID, want)
		}
	}
}

func TestTopicsAreIndependent(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()

	records, _ := b.Subscribe(context.Background(), TopicRecords)
	stats, _ := b.Subscribe(context.Background(), TopicStats)
	statsPayloads := drainPayloads(stats)

	b.PublishStats(models.Statistics{Count: 7})

	var event StatsEvent
	json.Unmarshal(recvPayload(t, statsPayloads), &event)
	if event.Stats.Count != 7 {
		t.Errorf("stats count = %d, want 7", event.Stats.Count)
	}

	select {
	case msg := <-records:
		t.Errorf("record topic received unrelated message: %s", msg.Payload)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestPublishAfterCloseFails(t *testing.T) {
	b := NewBroker(16)
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("second Close should be a no-op: %v", err)
	}

	if err := b.PublishRecordsCleared(); err == nil {
		t.Error("publish after close should fail")
	}
}

func TestSubscribeCancelClosesChannel(t *testing.T) {
	b := NewBroker(16)
	defer b.Close()

	ctx, cancel := context.WithCancel(context.Background())
	ch, _ := b.Subscribe(ctx, TopicRecords)
	cancel()

	select {
	case _, ok := <-ch:
		if ok {
			t.Error("expected closed channel after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Error("channel not closed after context cancel")
	}
}

// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

package websocket

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/tomtom215/altimetrus/internal/models"
)

// fakeClient builds a client with no underlying connection; the tests
// read directly from its send channel.
func fakeClient(hub *Hub) *Client {
	return &Client{
		id:   clientIDCounter.Add(1),
		hub:  hub,
		send: make(chan Message, 16),
	}
}

func startHub(t *testing.T) (*Hub, context.CancelFunc) {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := hub.RunWithContext(ctx); !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v", err)
		}
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return hub, cancel
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.GetClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("client count = %d, want %d", hub.GetClientCount(), want)
		}
		time.Sleep(time.Millisecond)
	}
}

func recvFrame(t *testing.T, c *Client) Message {
	t.Helper()
	select {
	case msg, ok := <-c.send:
		if !ok {
			t.Fatal("send channel closed unexpectedly")
		}
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return Message{}
	}
}

func TestRegisterUnregister(t *testing.T) {
	hub, _ := startHub(t)

	c1 := fakeClient(hub)
	c2 := fakeClient(hub)
	hub.Register <- c1
	hub.Register <- c2
	waitForClients(t, hub, 2)

	hub.Unregister <- c1
	waitForClients(t, hub, 1)

	// Unregistering closes the client's send channel.
	select {
	case _, ok := <-c1.send:
		if ok {
			t.Error("expected closed send channel")
		}
	case <-time.After(time.Second):
		t.Error("send channel not closed after unregister")
	}
}

func TestBroadcastReachesAllClients(t *testing.T) {
	hub, _ := startHub(t)

	c1 := fakeClient(hub)
	c2 := fakeClient(hub)
	hub.Register <- c1
	hub.Register <- c2
	waitForClients(t, hub, 2)

	rec := models.Record{ID: "rec-1", Altitude: 120.5, Source: models.SourceSatellite}
	hub.BroadcastRecordCreated(rec)

	for _, c := range []*Client{c1, c2} {
		msg := recvFrame(t, c)
		if msg.Type != MessageTypeRecordCreated {
			t.Errorf("type = %q, want %q", msg.Type, MessageTypeRecordCreated)
		}
		got, ok := msg.Data.(models.Record)
		if !ok || got.ID != "rec-1" {
			t.Errorf("data = %#v", msg.Data)
		}
	}
}

func TestBroadcastFrameTypes(t *testing.T) {
	hub, _ := startHub(t)

	c := fakeClient(hub)
	hub.Register <- c
	waitForClients(t, hub, 1)

	hub.BroadcastRecordDeleted("rec-9")
	hub.BroadcastRecordsCleared()
	hub.BroadcastSessionUpdate("ended", models.Session{ID: "s1"})
	hub.BroadcastStatsUpdate(models.Statistics{Count: 3})

	wantTypes := []string{
		MessageTypeRecordDeleted,
		MessageTypeRecordsCleared,
		MessageTypeSessionUpdate,
		MessageTypeStatsUpdate,
	}
	for _, want := range wantTypes {
		if msg := recvFrame(t, c); msg.Type != want {
			t.Errorf("type = %q, want %q", msg.Type, want)
		}
	}
}

func TestSlowClientIsDropped(t *testing.T) {
	hub, _ := startHub(t)

	slow := fakeClient(hub)
	slow.send = make(chan Message) // unbuffered, nobody reading
	hub.Register <- slow
	waitForClients(t, hub, 1)

	hub.BroadcastRecordsCleared()
	waitForClients(t, hub, 0)
}

func TestShutdownClosesClients(t *testing.T) {
	hub, cancel := startHub(t)

	c := fakeClient(hub)
	hub.Register <- c
	waitForClients(t, hub, 1)

	cancel()

	select {
	case _, ok := <-c.send:
		if ok {
			t.Error("expected closed send channel after shutdown")
		}
	case <-time.After(2 * time.Second):
		t.Error("send channel not closed after shutdown")
	}
	if hub.GetClientCount() != 0 {
		t.Errorf("client count = %d after shutdown", hub.GetClientCount())
	}
}

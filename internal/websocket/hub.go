// Altimetrus - Multi-Source Altitude Fusion and Measurement History
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/altimetrus

// Package websocket pushes live measurement updates to connected browser
// and device clients. The hub fans out record, session and statistics
// events; payloads originate on the internal event stream.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/tomtom215/altimetrus/internal/logging"
	"github.com/tomtom215/altimetrus/internal/metrics"
	"github.com/tomtom215/altimetrus/internal/models"
)

// Message types pushed to clients.
const (
	MessageTypeRecordCreated  = "record_created"
	MessageTypeRecordDeleted  = "record_deleted"
	MessageTypeRecordsCleared = "records_cleared"
	MessageTypeSessionUpdate  = "session_update"
	MessageTypeStatsUpdate    = "stats_update"
	MessageTypePing           = "ping"
	MessageTypePong           = "pong"
)

// Message is the envelope for every frame sent to a client.
type Message struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// SessionUpdateData is the payload of a session_update frame.
type SessionUpdateData struct {
	Action  string         `json:"action"`
	Session models.Session `json:"session"`
}

// RecordDeletedData is the payload of a record_deleted frame.
type RecordDeletedData struct {
	RecordID string `json:"recordId"`
}

// Hub maintains the set of active clients and broadcasts messages to them.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a hub with no clients.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext runs the hub loop until ctx is canceled; designed for
// suture supervision. Lifecycle events take priority over broadcasts so
// client state is settled before a message fans out. Go's select picks
// randomly among ready channels, hence the staged selects.
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		default:
		}

		select {
		case client := <-h.Register:
			h.addClient(client)
			continue
		case client := <-h.Unregister:
			h.removeClient(client)
			continue
		default:
		}

		select {
		case <-ctx.Done():
			h.shutdown()
			return ctx.Err()
		case client := <-h.Register:
			h.addClient(client)
		case client := <-h.Unregister:
			h.removeClient(client)
		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client connected")
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	count := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Set(float64(count))
	logging.Info().Int("total_clients", count).Msg("websocket client disconnected")
}

// shutdown closes every client before the hub loop returns so a
// supervisor restart never inherits orphaned connections.
func (h *Hub) shutdown() {
	h.mu.Lock()
	count := len(h.clients)
	for client := range h.clients {
		close(client.send)
		delete(h.clients, client)
	}
	h.mu.Unlock()

	metrics.WebSocketClients.Set(0)
	logging.Info().
		Str("component", "websocket-hub").
		Int("clients_closed", count).
		Msg("websocket hub stopped")
}

// broadcastToClients fans the message out in client-id order. The sort
// keeps delivery order reproducible; a client with a full send buffer is
// dropped rather than blocking the others.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	var toRemove []*Client
	for _, client := range clients {
		select {
		case client.send <- message:
			metrics.WebSocketMessagesSent.Inc()
		default:
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		logging.Warn().Msg("dropped slow websocket client")
	}
	if len(toRemove) > 0 {
		metrics.WebSocketClients.Set(float64(len(h.clients)))
	}
}

func (h *Hub) enqueue(message Message) {
	select {
	case h.broadcast <- message:
	default:
		logging.Warn().Str("message_type", message.Type).Msg("broadcast channel full, dropping message")
	}
}

// BroadcastRecordCreated pushes a freshly appended record to all clients.
func (h *Hub) BroadcastRecordCreated(rec models.Record) {
	h.enqueue(Message{Type: MessageTypeRecordCreated, Data: rec})
}

// BroadcastRecordDeleted pushes a record deletion to all clients.
func (h *Hub) BroadcastRecordDeleted(id string) {
	h.enqueue(Message{Type: MessageTypeRecordDeleted, Data: RecordDeletedData{RecordID: id}})
}

// BroadcastRecordsCleared tells clients the history was wiped.
func (h *Hub) BroadcastRecordsCleared() {
	h.enqueue(Message{Type: MessageTypeRecordsCleared, Data: nil})
}

// BroadcastSessionUpdate pushes a session lifecycle transition.
func (h *Hub) BroadcastSessionUpdate(action string, sess models.Session) {
	h.enqueue(Message{Type: MessageTypeSessionUpdate, Data: SessionUpdateData{Action: action, Session: sess}})
}

// BroadcastStatsUpdate pushes a refreshed statistics snapshot.
func (h *Hub) BroadcastStatsUpdate(stats models.Statistics) {
	h.enqueue(Message{Type: MessageTypeStatsUpdate, Data: stats})
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

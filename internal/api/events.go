// Copyright 2026 The Eliza Gateway Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Event is one message pushed over the events websocket.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// EventHub fans events out to connected websocket clients. Slow clients
// are dropped rather than allowed to stall the hub.
type EventHub struct {
	mu      sync.Mutex
	clients map[*websocket.Conn]chan []byte
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{clients: make(map[*websocket.Conn]chan []byte)}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The gateway fronts a first-party UI; same-origin enforcement is
	// delegated to the deployment's reverse proxy.
	CheckOrigin: func(*http.Request) bool { return true },
}

// Broadcast queues an event for every connected client.
func (h *EventHub) Broadcast(eventType string, data interface{}) {
	payload, err := json.Marshal(Event{
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	})
	if err != nil {
		log.Warnf("events: failed to encode %s event: %v", eventType, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for conn, ch := range h.clients {
		select {
		case ch <- payload:
		default:
			// Client cannot keep up; disconnect it.
			delete(h.clients, conn)
			close(ch)
		}
	}
}

// Handle upgrades the request and streams events until the client leaves.
func (h *EventHub) Handle(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warnf("events: upgrade failed: %v", err)
		return
	}

	ch := make(chan []byte, 32)
	h.mu.Lock()
	h.clients[conn] = ch
	h.mu.Unlock()

	go h.writeLoop(conn, ch)
	h.readLoop(conn)
}

func (h *EventHub) writeLoop(conn *websocket.Conn, ch chan []byte) {
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()
	defer func() { _ = conn.Close() }()

	for {
		select {
		case payload, ok := <-ch:
			if !ok {
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				h.drop(conn)
				return
			}
		case <-ping.C:
			_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.drop(conn)
				return
			}
		}
	}
}

// readLoop drains client frames so pong handling works; any read error
// means the client is gone.
func (h *EventHub) readLoop(conn *websocket.Conn) {
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			h.drop(conn)
			return
		}
	}
}

func (h *EventHub) drop(conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.clients[conn]; ok {
		delete(h.clients, conn)
		close(ch)
	}
	_ = conn.Close()
}

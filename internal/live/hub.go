// Package live pushes booking change signals to connected browsers over
// websockets so they can refresh their projections.
package live

import (
	"context"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/net/websocket"

	"github.com/wolfman30/rehab-scheduler/internal/events"
	"github.com/wolfman30/rehab-scheduler/pkg/logging"
)

// InboundMessage is what a browser may send.
type InboundMessage struct {
	Type string `json:"type"` // "ping"
}

// OutboundMessage is what the hub sends.
type OutboundMessage struct {
	Type     string           `json:"type"` // "hello", "booking_changed", "pong"
	ClientID string           `json:"client_id,omitempty"`
	Event    *events.Envelope `json:"event,omitempty"`
}

// Hub tracks live connections and broadcasts envelopes to all of them.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[string]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Default()
	}
	return &Hub{logger: logger, clients: make(map[string]*websocket.Conn)}
}

// ServeHTTP upgrades the request and holds the connection open until the
// browser goes away.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	websocket.Handler(h.serve).ServeHTTP(w, r)
}

func (h *Hub) serve(conn *websocket.Conn) {
	id := uuid.NewString()
	h.mu.Lock()
	h.clients[id] = conn
	h.mu.Unlock()
	defer func() {
		h.mu.Lock()
		delete(h.clients, id)
		h.mu.Unlock()
	}()

	if err := websocket.JSON.Send(conn, OutboundMessage{Type: "hello", ClientID: id}); err != nil {
		return
	}
	h.logger.Debug("live: connection opened", "client_id", id)

	for {
		var msg InboundMessage
		if err := websocket.JSON.Receive(conn, &msg); err != nil {
			h.logger.Debug("live: connection closed", "client_id", id, "error", err)
			return
		}
		if msg.Type == "ping" {
			_ = websocket.JSON.Send(conn, OutboundMessage{Type: "pong"})
		}
	}
}

// Clients returns the number of open connections.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Handle broadcasts env to every connected browser.
func (h *Hub) Handle(_ context.Context, env events.Envelope) {
	h.mu.RLock()
	conns := make(map[string]*websocket.Conn, len(h.clients))
	for id, c := range h.clients {
		conns[id] = c
	}
	h.mu.RUnlock()

	msg := OutboundMessage{Type: "booking_changed", Event: &env}
	for id, c := range conns {
		if err := websocket.JSON.Send(c, msg); err != nil {
			h.logger.Debug("live: send failed", "client_id", id, "error", err)
		}
	}
}

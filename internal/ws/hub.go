// Package ws fans input change events out to WebSocket subscribers.
// The hub never blocks on a client: each client has a bounded send buffer
// and frames for a stalled client are dropped, so delivery loss stays a
// reporting-layer concern and never reaches the sampling loop.
package ws

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/fcc-lol/cyberdeck-25-firmware/internal/logic"
)

const (
	// sendBufferSize is the per-client outbound frame buffer.
	sendBufferSize = 256

	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second

	maxMessageSize = 512
)

// upgrader configures the WebSocket upgrader. Clients are local dashboards
// on the same network; any origin may connect.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(_ *http.Request) bool { return true },
}

// Hub manages WebSocket connections and broadcasts input events.
type Hub struct {
	logger   *slog.Logger
	snapshot func() logic.Snapshot

	mu      sync.RWMutex
	clients map[*client]struct{}
	closed  bool
}

// NewHub creates a hub. snapshot supplies the current full input state for
// the initial_state frame sent to connecting clients.
func NewHub(logger *slog.Logger, snapshot func() logic.Snapshot) *Hub {
	return &Hub{
		logger:   logger.With("component", "ws"),
		snapshot: snapshot,
		clients:  make(map[*client]struct{}),
	}
}

// HandleWS upgrades the HTTP connection and starts serving the client.
// The first frame every client receives is initial_state.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		hub:  h,
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}

	frame, err := marshalInitialState(h.snapshot())
	if err != nil {
		h.logger.Error("marshal initial state", "error", err)
		conn.Close()
		return
	}
	c.send <- frame

	h.register(c)

	go c.writePump()
	go c.readPump()
}

// Broadcast sends a change event to every connected client.
func (h *Hub) Broadcast(ev logic.Event) {
	frame, err := marshalEvent(ev)
	if err != nil {
		h.logger.Error("marshal event", "kind", ev.Kind, "error", err)
		return
	}

	h.mu.RLock()
	clients := make([]*client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.trySend(frame)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client. New connections are still upgraded but
// callers are expected to stop the HTTP server alongside.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		close(c.send)
		c.conn.Close()
		delete(h.clients, c)
	}
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		c.conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Info("client connected", "client", c.id, "clients", n)
}

// unregister removes a client. Only the goroutine that actually removes it
// from the map closes the send channel, preventing double-close during
// shutdown.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	delete(h.clients, c)
	n := len(h.clients)
	h.mu.Unlock()

	if existed {
		close(c.send)
		h.logger.Info("client disconnected", "client", c.id, "clients", n)
	}
}

package websocket

import (
	"log/slog"
	"sync"
)

// updateMessage is the only payload the notifier ever sends: "something
// changed; re-fetch". Viewers fetch full state on connect, so there is no
// replay for clients that connect after a signal.
var updateMessage = []byte(`{"type":"update"}`)

// Hub maintains the set of connected viewers and fans out change signals.
// Delivery is best-effort and unacknowledged: a slow viewer's buffer fills
// and the signal is dropped rather than delaying the mutating request.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

// NewHub creates a new Hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds a client to the hub.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// NotifyChanged signals every connected viewer that the document mutated.
// Called after each successful mutation, never on reads or failures.
func (h *Hub) NotifyChanged() {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- updateMessage:
		default:
			// buffer full, drop the signal rather than block
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

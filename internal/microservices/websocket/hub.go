package websocket

// Hub tracks the open notification streams of every signed-in user and pushes
// each notice to all of that user's connections.

import (
	"context"
	"log/slog"
	"sync"

	"libraryhub/internal/notify"

	jsoniter "github.com/json-iterator/go"
)

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // userID -> open connections
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logger,
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.UserID] = set
	}
	set[c] = struct{}{}
	h.logger.Debug("ws_client_registered", "user_id", c.UserID, "connections", len(set))
}

// Unregister removes the client and closes its send channel. Safe to call twice.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.clients[c.UserID]
	if !ok {
		return
	}
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	close(c.send)
	if len(set) == 0 {
		delete(h.clients, c.UserID)
	}
	h.logger.Debug("ws_client_unregistered", "user_id", c.UserID)
}

// Connected returns how many streams the user has open.
func (h *Hub) Connected(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// Deliver implements notify.Sender. A connection whose buffer is full misses
// the message; the notice is still in the user's inbox.
func (h *Hub) Deliver(_ context.Context, msg notify.Message) bool {
	if msg.UserID == "" {
		return false
	}
	payload, err := jsoniter.Marshal(msg)
	if err != nil {
		h.logger.Warn("ws_encode_failed", "type", msg.Type, "error", err)
		return false
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	delivered := false
	for c := range h.clients[msg.UserID] {
		select {
		case c.send <- payload:
			delivered = true
		default:
			h.logger.Warn("ws_client_slow", "user_id", msg.UserID, "type", msg.Type)
		}
	}
	return delivered
}

var _ notify.Sender = (*Hub)(nil)

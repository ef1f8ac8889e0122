package ws

import (
	"context"
	"sync"

	"literary-character-ai/backend/pkg/logger"
)

// Hub tracks live connections and owns their send channels
type Hub struct {
	clients map[*Client]bool
	chatter Chatter
	logger  *logger.Logger
	mu      sync.Mutex
	ctx     context.Context
	closed  bool
}

// NewHub creates a hub whose clients run turns through chatter
func NewHub(chatter Chatter, log *logger.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]bool),
		chatter: chatter,
		logger:  log,
		ctx:     context.Background(),
	}
}

// Run ties client lifetimes to ctx and blocks until it is done, then closes
// every client
func (h *Hub) Run(ctx context.Context) {
	h.mu.Lock()
	h.ctx = ctx
	h.mu.Unlock()

	<-ctx.Done()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for client := range h.clients {
		delete(h.clients, client)
		close(client.Send)
	}
}

// register adds client and returns the context its turns run under; false
// once the hub has shut down
func (h *Hub) register(client *Client) (context.Context, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false
	}
	h.clients[client] = true
	h.logger.Debug("WebSocket client registered", "client_id", client.ID, "user_id", client.UserID)
	return h.ctx, true
}

func (h *Hub) unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		h.logger.Debug("WebSocket client unregistered", "client_id", client.ID)
	}
}

// deliver queues frame for client unless it is gone or not keeping up
func (h *Hub) deliver(client *Client, frame []byte) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; !ok {
		return false
	}
	select {
	case client.Send <- frame:
		return true
	default:
		return false
	}
}

// ActiveConnections returns the number of connected clients
func (h *Hub) ActiveConnections() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

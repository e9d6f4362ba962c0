package notifications

import (
	"context"
	"errors"
	"log"
	"sync"

	"ideaboard/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	// Max connections per user
	maxConnsPerUser = 8
	// Max total connections
	maxTotalConns = 10000
)

// Hub is a websocket hub that maps userID -> list of Clients. Every board
// event goes to every connection; the per-user map only enforces limits.
type Hub struct {
	mu         sync.RWMutex
	conns      map[uint]map[*Client]struct{}
	totalConns int
	closed     bool
}

// Name returns a human-readable identifier for this hub.
func (h *Hub) Name() string { return "board hub" }

// NewHub creates a new Hub instance for board event fan-out.
func NewHub() *Hub {
	return &Hub{
		conns: make(map[uint]map[*Client]struct{}),
	}
}

// Register a connection for a given userID. Returns the Client or error if limits exceeded.
func (h *Hub) Register(userID uint, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, errors.New("hub is shut down")
	}
	if h.totalConns >= maxTotalConns {
		return nil, errors.New("server connection limit reached")
	}

	m, ok := h.conns[userID]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[userID] = m
	}

	if len(m) >= maxConnsPerUser {
		return nil, errors.New("user connection limit reached")
	}

	client := NewClient(h, conn, userID)
	m[client] = struct{}{}
	h.totalConns++
	observability.WebSocketConnectionsTotal.Inc()

	return client, nil
}

// UnregisterClient removes a client from the hub.
func (h *Hub) UnregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m, ok := h.conns[client.UserID]; ok {
		if _, exists := m[client]; exists {
			delete(m, client)
			h.totalConns--
			observability.WebSocketConnectionsTotal.Dec()
		}
		if len(m) == 0 {
			delete(h.conns, client.UserID)
		}
	}
}

// BroadcastAll sends message to every connected websocket client.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		for c := range clients {
			c.TrySend(data)
		}
	}
}

// ConnectionCount reports the number of live connections.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.totalConns
}

// StartWiring connects the Notifier to this hub: board events published on
// Redis, by this instance or a peer, reach every local connection.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartBoardSubscriber(ctx, func(channel, payload string) {
		if channel != BoardChannel {
			log.Printf("invalid board event channel: %s", channel)
			return
		}
		h.BroadcastAll(payload)
	})
}

// Shutdown closes all websocket connections and refuses new registrations.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	h.closed = true
	for userID, userConns := range h.conns {
		for client := range userConns {
			if client.Conn == nil {
				continue
			}
			if err := client.Conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server shutting down")); err != nil {
				log.Printf("failed to write close message for user %d: %v", userID, err)
			}
			if err := client.Conn.Close(); err != nil {
				log.Printf("failed to close websocket for user %d: %v", userID, err)
			}
		}
	}
	h.conns = make(map[uint]map[*Client]struct{})
	h.totalConns = 0
	h.mu.Unlock()

	return nil
}

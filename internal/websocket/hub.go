package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/princekumarofficial/stories-client/internal/types"
)

// Hub maintains the set of connected UI clients and fans events out to them
type Hub struct {
	// Registered clients mapped by user ID
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client
	broadcast  chan *BroadcastMessage
	done       chan struct{}

	keepalive Keepalive

	// Mutex to protect clients map
	mu sync.RWMutex
}

// BroadcastMessage is an event addressed to some users, or to everyone when
// UserIDs is nil
type BroadcastMessage struct {
	UserIDs []string     `json:"user_ids"`
	Event   *types.Event `json:"event"`
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *BroadcastMessage, 256),
		done:       make(chan struct{}),
		keepalive:  DefaultKeepalive,
	}
}

// WithKeepalive sets the settings of clients created afterwards. Zero fields
// keep their defaults.
func (h *Hub) WithKeepalive(k Keepalive) *Hub {
	h.keepalive = k.withDefaults()
	return h
}

// Run processes registrations and broadcasts until ctx is done
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			close(h.done)
			return

		case client := <-h.register:
			h.mu.Lock()
			// A user has one live connection; the newer one wins
			if existing, exists := h.clients[client.userID]; exists {
				close(existing.send)
				slog.Info("Replaced existing WebSocket connection", slog.String("user_id", client.userID))
			}
			h.clients[client.userID] = client
			h.mu.Unlock()
			slog.Info("WebSocket client connected", slog.String("user_id", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
				slog.Info("WebSocket client disconnected", slog.String("user_id", client.userID))
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.deliver(message)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for userID, client := range h.clients {
		close(client.send)
		delete(h.clients, userID)
	}
}

// RegisterClient registers a new client. It reports false once the hub has
// stopped.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// UnregisterClient unregisters a client
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) enqueue(message *BroadcastMessage) {
	select {
	case h.broadcast <- message:
	default:
		slog.Warn("Broadcast channel is full, dropping message", slog.String("event", string(message.Event.Type)))
	}
}

// BroadcastToUsers sends an event to specific users
func (h *Hub) BroadcastToUsers(userIDs []string, event *types.Event) {
	if len(userIDs) == 0 {
		return
	}
	h.enqueue(&BroadcastMessage{UserIDs: userIDs, Event: event})
}

// BroadcastToUser sends an event to a specific user
func (h *Hub) BroadcastToUser(userID string, event *types.Event) {
	h.BroadcastToUsers([]string{userID}, event)
}

// BroadcastAll sends an event to every connected client
func (h *Hub) BroadcastAll(event *types.Event) {
	h.enqueue(&BroadcastMessage{Event: event})
}

func (h *Hub) deliver(message *BroadcastMessage) {
	h.mu.RLock()
	var targets []*Client
	if message.UserIDs == nil {
		targets = make([]*Client, 0, len(h.clients))
		for _, client := range h.clients {
			targets = append(targets, client)
		}
	} else {
		for _, userID := range message.UserIDs {
			if client, ok := h.clients[userID]; ok {
				targets = append(targets, client)
			}
		}
	}

	var slow []*Client
	for _, client := range targets {
		if err := client.SendEvent(message.Event); err != nil {
			slog.Error("Failed to send event to client",
				slog.String("user_id", client.userID),
				slog.String("error", err.Error()))
			slow = append(slow, client)
		}
	}
	h.mu.RUnlock()

	// Drop clients that cannot keep up. deliver runs on the Run goroutine,
	// so unregister directly instead of through the channel.
	if len(slow) > 0 {
		h.mu.Lock()
		for _, client := range slow {
			if current, ok := h.clients[client.userID]; ok && current == client {
				delete(h.clients, client.userID)
				close(client.send)
			}
		}
		h.mu.Unlock()
	}
}

// GetConnectedUsers returns a list of currently connected user IDs
func (h *Hub) GetConnectedUsers() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()

	users := make([]string, 0, len(h.clients))
	for userID := range h.clients {
		users = append(users, userID)
	}
	return users
}

// IsUserConnected checks if a user is currently connected
func (h *Hub) IsUserConnected(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	_, exists := h.clients[userID]
	return exists
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients)
}

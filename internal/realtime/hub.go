package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Srimanrao123/CollegeDost-sub000/internal/logger"
	"github.com/Srimanrao123/CollegeDost-sub000/internal/metrics"
	"go.uber.org/zap"
)

// Hub maintains the set of active clients and fans change events out to them.
// It subscribes to the Bus for broad scopes ("posts") at startup; per-record
// scopes are subscribed lazily when the first client watches them.
type Hub struct {
	// Registered clients by user ID for targeted messaging
	clients map[string]map[*Client]struct{}

	// All clients for broadcasting
	allClients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message

	// Send message to specific user
	unicast chan *unicastMessage

	mu sync.RWMutex

	bus *Bus

	// Connection statistics
	stats Stats

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Stats tracks WebSocket connection statistics
type Stats struct {
	TotalConnections   atomic.Int64
	ActiveConnections  atomic.Int64
	MessagesReceived   atomic.Int64
	MessagesSent       atomic.Int64
	Errors             atomic.Int64
	ConnectionsDropped atomic.Int64
}

type unicastMessage struct {
	userID  string
	message *Message
}

// NewHub creates a hub wired to the given event bus
func NewHub(bus *Bus) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		clients:    make(map[string]map[*Client]struct{}),
		allClients: make(map[*Client]struct{}),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan *Message, 256),
		unicast:    make(chan *unicastMessage, 256),
		bus:        bus,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's main event loop and bridges the bus to clients.
// Blocks until Shutdown is called.
func (h *Hub) Run() {
	logger.Log.Info("WebSocket hub starting")

	// All clients see post changes; targeted notifications arrive via SendToUser
	unsub := h.bus.Subscribe("posts", func(e Event) {
		h.Broadcast(NewMessage(MessageTypeRecordChange, e))
	})
	defer unsub()

	for {
		select {
		case <-h.ctx.Done():
			logger.Log.Info("WebSocket hub shutting down")
			h.closeAll()
			return

		case client := <-h.register:
			h.registerClient(client)

		case client := <-h.unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastMessage(message)

		case u := <-h.unicast:
			h.sendToUser(u.userID, u.message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[client.UserID] == nil {
		h.clients[client.UserID] = make(map[*Client]struct{})
	}
	h.clients[client.UserID][client] = struct{}{}
	h.allClients[client] = struct{}{}

	h.stats.TotalConnections.Add(1)
	h.stats.ActiveConnections.Add(1)
	metrics.Get().WSConnectionsActive.Inc()

	logger.Log.Info("WebSocket client connected",
		zap.String("user_id", client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.allClients[client]; !ok {
		return
	}
	delete(h.allClients, client)

	if clients, ok := h.clients[client.UserID]; ok {
		delete(clients, client)
		if len(clients) == 0 {
			delete(h.clients, client.UserID)
		}
	}

	close(client.send)

	h.stats.ActiveConnections.Add(-1)
	metrics.Get().WSConnectionsActive.Dec()

	logger.Log.Info("WebSocket client disconnected",
		zap.String("user_id", client.UserID),
		zap.Int64("active", h.stats.ActiveConnections.Load()))
}

func (h *Hub) broadcastMessage(message *Message) {
	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Error("Failed to marshal broadcast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.allClients {
		select {
		case client.send <- data:
			h.stats.MessagesSent.Add(1)
			metrics.Get().WSMessagesSentTotal.WithLabelValues(message.Type).Inc()
		default:
			// Client's buffer is full, drop the connection
			h.stats.ConnectionsDropped.Add(1)
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

func (h *Hub) sendToUser(userID string, message *Message) {
	h.mu.RLock()
	clients, ok := h.clients[userID]
	h.mu.RUnlock()

	if !ok || len(clients) == 0 {
		return
	}

	data, err := json.Marshal(message)
	if err != nil {
		logger.Log.Error("Failed to marshal unicast message", zap.Error(err))
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range clients {
		select {
		case client.send <- data:
			h.stats.MessagesSent.Add(1)
			metrics.Get().WSMessagesSentTotal.WithLabelValues(message.Type).Inc()
		default:
			h.stats.ConnectionsDropped.Add(1)
			go func(c *Client) {
				h.unregister <- c
			}(client)
		}
	}
}

// Broadcast sends a message to all connected clients
func (h *Hub) Broadcast(message *Message) {
	select {
	case h.broadcast <- message:
	case <-h.ctx.Done():
	}
}

// SendToUser sends a message to all connections of a specific user
func (h *Hub) SendToUser(userID string, message *Message) {
	select {
	case h.unicast <- &unicastMessage{userID: userID, message: message}:
	case <-h.ctx.Done():
	}
}

// Register adds a client to the hub
func (h *Hub) Register(client *Client) {
	select {
	case h.register <- client:
	case <-h.ctx.Done():
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.ctx.Done():
	}
}

// IsUserOnline checks if a user has any active connections
func (h *Hub) IsUserOnline(userID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	clients, ok := h.clients[userID]
	return ok && len(clients) > 0
}

// ActiveConnections returns the current connection count
func (h *Hub) ActiveConnections() int64 {
	return h.stats.ActiveConnections.Load()
}

// GetStats returns a snapshot of the hub counters
func (h *Hub) GetStats() map[string]int64 {
	return map[string]int64{
		"total_connections":   h.stats.TotalConnections.Load(),
		"active_connections":  h.stats.ActiveConnections.Load(),
		"messages_received":   h.stats.MessagesReceived.Load(),
		"messages_sent":       h.stats.MessagesSent.Load(),
		"errors":              h.stats.Errors.Load(),
		"connections_dropped": h.stats.ConnectionsDropped.Load(),
	}
}

// Shutdown gracefully shuts down the hub
func (h *Hub) Shutdown(ctx context.Context) error {
	h.cancel()

	done := make(chan struct{})
	go func() {
		h.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("hub shutdown timeout: %w", ctx.Err())
	}
}

// closeAll closes all client connections during shutdown
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	shutdownMsg := NewMessage(MessageTypeSystem, map[string]interface{}{"event": "server_shutdown"})
	data, _ := json.Marshal(shutdownMsg)

	for client := range h.allClients {
		select {
		case client.send <- data:
		default:
		}
		close(client.send)
	}

	h.clients = make(map[string]map[*Client]struct{})
	h.allClients = make(map[*Client]struct{})

	logger.Log.Info("Closed all WebSocket connections",
		zap.Int64("count", h.stats.ActiveConnections.Load()),
		zap.Time("at", time.Now().UTC()))
}

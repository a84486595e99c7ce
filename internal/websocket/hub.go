// Package websocket provides the live conflict feed: a hub fanning
// registry mutations out to connected operator clients.
package websocket

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"railwatch/internal/logging"
)

// Feed event types. Clients may subscribe to a subset; an empty
// subscription receives everything.
const (
	EventConnection              = "connection"
	EventHeartbeat               = "heartbeat"
	EventPong                    = "pong"
	EventConflictsReplaced       = "conflicts_replaced"
	EventConflictRegistered      = "conflict_registered"
	EventConflictConfirmed       = "conflict_confirmed"
	EventRecommendationsReplaced = "recommendations_replaced"
	EventRecommendationAccepted  = "recommendation_accepted"
)

const defaultSendBuffer = 256

// FeedEvent is one message on the conflict feed
type FeedEvent struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data,omitempty"`
}

// NewFeedEvent creates a feed event stamped with the current time
func NewFeedEvent(eventType, sessionID string, data interface{}) FeedEvent {
	return FeedEvent{
		Type:      eventType,
		SessionID: sessionID,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// Client represents one connected feed consumer
type Client struct {
	ID         string
	Connection *websocket.Conn
	Send       chan FeedEvent
	Hub        *Hub

	mu        sync.Mutex
	sessionID string          // filter events by session
	events    map[string]bool // filter events by type; empty means all
	closed    bool
}

// NewClient creates a feed client for an upgraded connection
func NewClient(id string, conn *websocket.Conn, hub *Hub, sessionID string) *Client {
	return &Client{
		ID:         id,
		Connection: conn,
		Send:       make(chan FeedEvent, hub.sendBuffer),
		Hub:        hub,
		sessionID:  sessionID,
		events:     make(map[string]bool),
	}
}

// SafeClose safely closes the client's send channel
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed && c.Send != nil {
		close(c.Send)
		c.closed = true
	}
}

// wants reports whether the client's filters admit the event
func (c *Client) wants(event *FeedEvent) bool {
	// Connection plumbing always goes through
	if event.Type == EventConnection || event.Type == EventHeartbeat || event.Type == EventPong {
		return true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.sessionID != "" && event.SessionID != "" && c.sessionID != event.SessionID {
		return false
	}
	if len(c.events) > 0 && !c.events[event.Type] {
		return false
	}
	return true
}

// Hub manages feed connections and broadcasts
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan FeedEvent
	mutex      sync.RWMutex
	sendBuffer int
	logger     *logging.ComponentLogger
}

// NewHub creates a feed hub. sendBuffer sizes each client's outbound
// queue; values below one fall back to the default.
func NewHub(sendBuffer int) *Hub {
	if sendBuffer < 1 {
		sendBuffer = defaultSendBuffer
	}
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan FeedEvent, 256),
		sendBuffer: sendBuffer,
		logger:     logging.ForComponent("feed"),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		// Close all client connections when shutting down
		h.mutex.Lock()
		for client := range h.clients {
			client.SafeClose()
			if err := client.Connection.Close(); err != nil {
				h.logger.Debug("Error closing client connection", "error", err.Error())
			}
		}
		h.mutex.Unlock()
	}()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			total := len(h.clients)
			h.mutex.Unlock()

			h.logger.Info("Feed client registered", "client_id", client.ID, "total", total)

			welcome := NewFeedEvent(EventConnection, "", map[string]interface{}{
				"server":    "railwatch",
				"client_id": client.ID,
				"message":   "Connected to conflict feed",
			})

			select {
			case client.Send <- welcome:
			default:
				h.removeClient(client)
			}

		case client := <-h.unregister:
			h.removeClient(client)

		case event := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if !client.wants(&event) {
					continue
				}
				select {
				case client.Send <- event:
				default:
					// Client's send queue is full; drop the client,
					// never block the feed
					h.removeClientUnsafe(client)
				}
			}
			h.mutex.RUnlock()

		case <-ctx.Done():
			h.logger.Info("Feed hub shutting down")
			return
		}
	}
}

// removeClient safely removes a client from the hub
func (h *Hub) removeClient(client *Client) {
	h.mutex.Lock()
	defer h.mutex.Unlock()
	h.removeClientUnsafe(client)
}

// removeClientUnsafe removes a client without locking (assumes lock is held)
func (h *Hub) removeClientUnsafe(client *Client) {
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		client.SafeClose()
		if err := client.Connection.Close(); err != nil {
			h.logger.Debug("Error closing client connection", "error", err.Error())
		}
		h.logger.Info("Feed client disconnected", "client_id", client.ID, "total", len(h.clients))
	}
}

// RegisterClient registers a new client with the hub
func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

// UnregisterClient unregisters a client from the hub
func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// Broadcast queues an event for every matching client. The feed is
// fire-and-forget: when the queue is full the event is dropped.
func (h *Hub) Broadcast(event FeedEvent) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("Broadcast channel full, dropping event", "type", event.Type)
	}
}

// GetClientCount returns the number of connected clients
func (h *Hub) GetClientCount() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WritePump pumps events from the hub to the websocket connection
func (c *Client) WritePump(ctx context.Context) {
	ticker := time.NewTicker(54 * time.Second)
	defer func() {
		ticker.Stop()
		if err := c.Connection.Close(); err != nil {
			c.Hub.logger.Debug("Error closing connection in WritePump", "error", err.Error())
		}
	}()

	for {
		select {
		case event, ok := <-c.Send:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.Hub.logger.Debug("Error setting write deadline", "error", err.Error())
			}
			if !ok {
				// The hub closed the channel
				_ = c.Connection.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.Connection.WriteJSON(event); err != nil {
				c.Hub.logger.Debug("Error writing feed event", "error", err.Error())
				return
			}

		case <-ticker.C:
			if err := c.Connection.SetWriteDeadline(time.Now().Add(10 * time.Second)); err != nil {
				c.Hub.logger.Debug("Error setting write deadline for heartbeat", "error", err.Error())
			}
			if err := c.Connection.WriteJSON(NewFeedEvent(EventHeartbeat, "", nil)); err != nil {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// ReadPump pumps messages from the websocket connection to the hub
func (c *Client) ReadPump(ctx context.Context) {
	defer func() {
		c.Hub.unregister <- c
		if err := c.Connection.Close(); err != nil {
			c.Hub.logger.Debug("Error closing connection in ReadPump", "error", err.Error())
		}
	}()

	c.Connection.SetReadLimit(512)
	if err := c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.Hub.logger.Debug("Error setting read deadline", "error", err.Error())
	}
	c.Connection.SetPongHandler(func(string) error {
		return c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg map[string]interface{}
			err := c.Connection.ReadJSON(&msg)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.Hub.logger.Debug("Feed read error", "error", err.Error())
				}
				return
			}
			// Reading client traffic counts as liveness
			_ = c.Connection.SetReadDeadline(time.Now().Add(60 * time.Second))

			c.handleClientMessage(msg)
		}
	}
}

// handleClientMessage processes subscription and ping messages
func (c *Client) handleClientMessage(msg map[string]interface{}) {
	msgType, ok := msg["type"].(string)
	if !ok {
		return
	}

	switch msgType {
	case "subscribe":
		c.mu.Lock()
		if session, ok := msg["session_id"].(string); ok {
			c.sessionID = session
		}
		if raw, ok := msg["events"].([]interface{}); ok {
			for _, item := range raw {
				if name, ok := item.(string); ok && name != "" {
					c.events[name] = true
				}
			}
		}
		c.mu.Unlock()

	case "unsubscribe":
		c.mu.Lock()
		if _, ok := msg["session_id"]; ok {
			c.sessionID = ""
		}
		if _, ok := msg["events"]; ok {
			c.events = make(map[string]bool)
		}
		c.mu.Unlock()

	case "ping":
		select {
		case c.Send <- NewFeedEvent(EventPong, "", nil):
		default:
			// Queue full, client is on the way out anyway
		}
	}
}

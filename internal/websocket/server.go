package websocket

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/yegors/skyplanner/pkg/logger"
)

// Message types pushed to connected map/spreadsheet views
const (
	MessageTypePlanUpdated = "plan_updated"
	MessageTypePlanDeleted = "plan_deleted"
	MessageTypeSubscribe   = "subscribe" // Client selects which plans it wants
)

// Message represents a WebSocket message
type Message struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Client represents one connected view
type Client struct {
	conn      *websocket.Conn
	send      chan *Message
	server    *Server
	mu        sync.Mutex
	closed    bool
	closeChan chan struct{}
	planIDs   map[string]bool // Subscribed plan IDs; empty means all plans
}

// Server is the hub fanning plan updates out to connected clients
type Server struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan *Message
	upgrader   websocket.Upgrader
	logger     *logger.Logger
	mu         sync.RWMutex
}

// NewServer creates a new WebSocket server
func NewServer(log *logger.Logger) *Server {
	return &Server{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *Message),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins
			},
		},
		logger: log.Named("web-socket"),
	}
}

// Run starts the hub loop
func (s *Server) Run() {
	s.logger.Info("Starting WebSocket server")

	for {
		select {
		case client := <-s.register:
			s.mu.Lock()
			s.clients[client] = true
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client registered", logger.Int("client_count", clientCount))

		case client := <-s.unregister:
			s.mu.Lock()
			if _, ok := s.clients[client]; ok {
				delete(s.clients, client)
				client.mu.Lock()
				client.closed = true
				client.mu.Unlock()
				close(client.send)
			}
			clientCount := len(s.clients)
			s.mu.Unlock()
			s.logger.Debug("Client unregistered", logger.Int("client_count", clientCount))

		case message := <-s.broadcast:
			s.mu.RLock()
			var stale []*Client
			for client := range s.clients {
				client.mu.Lock()
				closed := client.closed
				client.mu.Unlock()
				if closed {
					stale = append(stale, client)
					continue
				}

				if !client.wantsMessage(message) {
					continue
				}

				select {
				case client.send <- message:
				default:
					// Send buffer full, drop the client
					stale = append(stale, client)
				}
			}
			s.mu.RUnlock()

			if len(stale) > 0 {
				s.mu.Lock()
				for _, client := range stale {
					if _, ok := s.clients[client]; ok {
						delete(s.clients, client)
						client.mu.Lock()
						if !client.closed {
							client.closed = true
							close(client.send)
						}
						client.mu.Unlock()
					}
				}
				s.mu.Unlock()
			}
		}
	}
}

// HandleConnection upgrades an HTTP request and runs the client pumps
func (s *Server) HandleConnection(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("Failed to upgrade connection",
			logger.Error(err),
			logger.String("remote_addr", r.RemoteAddr))
		return
	}

	s.logger.Debug("WebSocket connection established",
		logger.String("remote_addr", r.RemoteAddr))

	client := &Client{
		conn:      conn,
		send:      make(chan *Message, 64),
		server:    s,
		closeChan: make(chan struct{}),
	}

	s.register <- client

	go client.readPump()
	go client.writePump()
}

// Broadcast sends a message to all subscribed clients
func (s *Server) Broadcast(message *Message) {
	s.broadcast <- message
}

// BroadcastPlanUpdate pushes a recomputed plan to subscribed clients
func (s *Server) BroadcastPlanUpdate(planID string, payload map[string]any) {
	data := map[string]any{"plan_id": planID}
	for k, v := range payload {
		data[k] = v
	}
	s.Broadcast(&Message{Type: MessageTypePlanUpdated, Data: data})
}

// BroadcastPlanDeleted notifies subscribed clients that a plan is gone
func (s *Server) BroadcastPlanDeleted(planID string) {
	s.Broadcast(&Message{Type: MessageTypePlanDeleted, Data: map[string]any{"plan_id": planID}})
}

// Close disconnects every client. The hub loop keeps running so late
// unregisters drain cleanly during shutdown.
func (s *Server) Close() {
	s.mu.RLock()
	clients := make([]*Client, 0, len(s.clients))
	for client := range s.clients {
		clients = append(clients, client)
	}
	s.mu.RUnlock()

	for _, client := range clients {
		client.Close()
	}
	s.logger.Info("Closed all WebSocket connections", logger.Int("client_count", len(clients)))
}

// wantsMessage checks a message against the client's plan subscriptions.
// A client with no explicit subscription receives everything.
func (c *Client) wantsMessage(message *Message) bool {
	if message.Type != MessageTypePlanUpdated && message.Type != MessageTypePlanDeleted {
		return true
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.planIDs) == 0 {
		return true
	}
	planID, _ := message.Data["plan_id"].(string)
	return c.planIDs[planID]
}

// readPump consumes client messages (subscriptions) until the connection dies
func (c *Client) readPump() {
	defer func() {
		c.mu.Lock()
		if !c.closed {
			c.closed = true
		}
		c.mu.Unlock()

		c.server.unregister <- c
		c.conn.Close()
	}()

	for {
		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			break
		}
		c.mu.Unlock()

		_, messageBytes, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.server.logger.Error("WebSocket read error", logger.Error(err))
			}
			break
		}

		var message Message
		if err := json.Unmarshal(messageBytes, &message); err != nil {
			c.server.logger.Error("Failed to parse WebSocket message", logger.Error(err))
			continue
		}

		if message.Type == MessageTypeSubscribe {
			c.updateSubscriptions(message.Data)
		}
	}
}

// updateSubscriptions replaces the client's plan subscription set
func (c *Client) updateSubscriptions(data map[string]any) {
	ids := make(map[string]bool)
	if raw, ok := data["plan_ids"].([]any); ok {
		for _, v := range raw {
			if id, ok := v.(string); ok && id != "" {
				ids[id] = true
			}
		}
	}
	c.mu.Lock()
	c.planIDs = ids
	c.mu.Unlock()
	c.server.logger.Debug("Client subscriptions updated", logger.Int("plan_count", len(ids)))
}

// writePump pushes hub messages to the connection
func (c *Client) writePump() {
	defer func() {
		c.mu.Lock()
		if !c.closed {
			c.closed = true
		}
		c.mu.Unlock()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			data, err := json.Marshal(message)
			if err != nil {
				c.server.logger.Error("Failed to marshal message", logger.Error(err))
				continue
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-c.closeChan:
			return
		}
	}
}

// Close closes the client connection
func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	c.closed = true
	close(c.closeChan)
	c.conn.Close()
}

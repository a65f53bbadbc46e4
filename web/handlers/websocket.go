package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"nhooyr.io/websocket"

	"github.com/scrypster/ashley/internal/assistant"
)

// WSMessage is the envelope for every websocket frame, in both directions.
type WSMessage struct {
	Type       string            `json:"type"`
	Text       string            `json:"text,omitempty"`
	SessionID  string            `json:"session_id,omitempty"`
	UseContext bool              `json:"use_context,omitempty"`
	Data       *assistant.Result `json:"data,omitempty"`
	Error      string            `json:"error,omitempty"`
	Timestamp  int64             `json:"timestamp,omitempty"`
}

// WebSocketHub manages websocket connections, routes inbound commands to the
// pipeline, and broadcasts server-side events (fired alarms) to every client.
type WebSocketHub struct {
	pipeline   CommandPipeline
	clients    map[clientInterface]bool
	broadcast  chan interface{}
	register   chan clientInterface
	unregister chan clientInterface
	origins    map[string]bool
	mu         sync.RWMutex
	ctx        context.Context
	cancel     context.CancelFunc
}

// clientInterface allows for both real clients and mock clients.
type clientInterface interface {
	getSendChannel() chan []byte
	close()
}

// Client represents a websocket connection.
type Client struct {
	hub  *WebSocketHub
	conn *websocket.Conn
	send chan []byte
}

func (c *Client) getSendChannel() chan []byte {
	return c.send
}

func (c *Client) close() {
	if c.conn != nil {
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}
}

// NewWebSocketHub creates a hub. allowedOrigins lists the Origin header
// values accepted on upgrade; requests without an Origin header are allowed
// (non-browser clients).
func NewWebSocketHub(pipeline CommandPipeline, allowedOrigins []string) *WebSocketHub {
	ctx, cancel := context.WithCancel(context.Background())
	origins := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &WebSocketHub{
		pipeline:   pipeline,
		clients:    make(map[clientInterface]bool),
		broadcast:  make(chan interface{}, 256),
		register:   make(chan clientInterface),
		unregister: make(chan clientInterface),
		origins:    origins,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Run starts the hub's message processing loop.
func (h *WebSocketHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("websocket client connected (total: %d)", len(h.clients))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.getSendChannel())
			}
			count := len(h.clients)
			h.mu.Unlock()
			log.Printf("websocket client disconnected (total: %d)", count)

		case message := <-h.broadcast:
			// Full Lock because the default branch may delete from the map.
			h.mu.Lock()
			data, err := json.Marshal(message)
			if err != nil {
				log.Printf("ERROR: failed to marshal websocket message: %v", err)
				h.mu.Unlock()
				continue
			}

			for client := range h.clients {
				sendChan := client.getSendChannel()
				select {
				case sendChan <- data:
				default:
					// Client's send channel is full, disconnect them
					close(sendChan)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()

		case <-h.ctx.Done():
			log.Println("websocket hub stopping...")
			return
		}
	}
}

// Stop gracefully shuts down the hub.
func (h *WebSocketHub) Stop() {
	h.cancel()

	h.mu.Lock()
	for client := range h.clients {
		close(client.getSendChannel())
		client.close()
	}
	h.clients = make(map[clientInterface]bool)
	h.mu.Unlock()
}

// Broadcast sends a message to all connected clients.
func (h *WebSocketHub) Broadcast(message interface{}) {
	select {
	case h.broadcast <- message:
	default:
		log.Println("WARNING: websocket broadcast channel full, dropping message")
	}
}

// BroadcastAlarm pushes a fired-alarm event to every client.
func (h *WebSocketHub) BroadcastAlarm(label string, firedAt time.Time) {
	h.Broadcast(map[string]interface{}{
		"type":      "alarm",
		"label":     label,
		"fired_at":  firedAt.UTC().Format(time.RFC3339),
		"timestamp": time.Now().Unix(),
	})
}

// Register adds a client to the hub.
func (h *WebSocketHub) Register(client clientInterface) {
	h.register <- client
}

// Unregister removes a client from the hub.
func (h *WebSocketHub) Unregister(client clientInterface) {
	h.unregister <- client
}

// ServeHTTP handles websocket upgrade requests.
func (h *WebSocketHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := r.Header.Get("Origin")
	if origin != "" && !h.origins[origin] {
		http.Error(w, "Forbidden: invalid origin", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // origin already validated above
	})
	if err != nil {
		log.Printf("ERROR: websocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 256),
	}

	h.Register(client)

	go client.writePump()
	go client.readPump()
}

// writePump sends messages to the websocket connection.
func (c *Client) writePump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for message := range c.send {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		err := c.conn.Write(ctx, websocket.MessageText, message)
		cancel()

		if err != nil {
			log.Printf("ERROR: websocket write failed: %v", err)
			return
		}
	}
}

// readPump reads inbound frames and dispatches commands to the pipeline.
func (c *Client) readPump() {
	defer func() {
		// The send channel may already be closed by slow-client eviction.
		if r := recover(); r != nil {
			log.Printf("websocket client evicted mid-reply: %v", r)
		}
		c.hub.Unregister(c)
		_ = c.conn.Close(websocket.StatusNormalClosure, "")
	}()

	for {
		_, data, err := c.conn.Read(context.Background())
		if err != nil {
			// Connection closed
			return
		}
		c.send <- c.hub.handleMessage(context.Background(), data)
	}
}

// handleMessage processes one inbound frame and returns the reply frame.
// Exported behavior is covered through HandleRaw in tests.
func (h *WebSocketHub) handleMessage(ctx context.Context, data []byte) []byte {
	reply := func(msg WSMessage) []byte {
		out, err := json.Marshal(msg)
		if err != nil {
			log.Printf("ERROR: failed to marshal websocket reply: %v", err)
			return []byte(`{"type":"error","error":"internal error"}`)
		}
		return out
	}

	var msg WSMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return reply(WSMessage{Type: "error", Error: "invalid message"})
	}

	switch msg.Type {
	case "command":
		result, err := h.pipeline.HandleCommand(ctx, assistant.Command{
			SessionID:  msg.SessionID,
			Text:       msg.Text,
			UseContext: msg.UseContext,
		})
		if err != nil {
			return reply(WSMessage{Type: "error", Error: err.Error()})
		}
		return reply(WSMessage{Type: "response", Data: result})

	case "ping":
		return reply(WSMessage{Type: "pong", Timestamp: time.Now().Unix()})

	default:
		return reply(WSMessage{Type: "error", Error: "unknown message type"})
	}
}

// HandleRaw processes one raw frame through the hub's message handler.
// Exposed for tests and non-websocket transports.
func (h *WebSocketHub) HandleRaw(ctx context.Context, data []byte) []byte {
	return h.handleMessage(ctx, data)
}

// MockClient is a mock client for testing.
type MockClient struct {
	SendChan chan []byte
}

func (m *MockClient) getSendChannel() chan []byte {
	return m.SendChan
}

func (m *MockClient) close() {
	// No-op for mock client
}

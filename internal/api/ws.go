package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
	"nhooyr.io/websocket"

	"github.com/playok/resmon/internal/model"
)

const (
	pingInterval = 30 * time.Second
	readTimeout  = 60 * time.Second
)

// Message types pushed to clients.
const (
	topicSnapshot = "snapshot"
	topicAlerts   = "alerts"
)

// Hub manages WebSocket connections and broadcasts.
type Hub struct {
	mu      sync.RWMutex
	clients map[*wsClient]struct{}
	reg     chan *wsClient
	unreg   chan *wsClient
	done    chan struct{} // closed when Run returns
	logger  *zap.Logger

	// greeting, when set, supplies the snapshot sent to new clients.
	greeting func(ctx context.Context) *model.Snapshot
}

type wsClient struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	subs map[string]bool // subscribed topics
	mu   sync.Mutex
}

// NewHub creates a new WebSocket hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[*wsClient]struct{}),
		reg:     make(chan *wsClient),
		unreg:   make(chan *wsClient),
		done:    make(chan struct{}),
		logger:  logger,
	}
}

// Run processes register/unregister events until ctx is cancelled. On
// return every client is dropped and later connections are refused.
func (h *Hub) Run(ctx context.Context) error {
	defer h.shutdown()
	for {
		select {
		case <-ctx.Done():
			return nil
		case c := <-h.reg:
			h.mu.Lock()
			h.clients[c] = struct{}{}
			h.mu.Unlock()
		case c := <-h.unreg:
			h.mu.Lock()
			delete(h.clients, c)
			h.mu.Unlock()
			close(c.send)
		}
	}
}

func (h *Hub) shutdown() {
	h.mu.Lock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
	close(h.done)
}

// SetGreeting sets the function supplying the snapshot sent on connect.
func (h *Hub) SetGreeting(fn func(ctx context.Context) *model.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.greeting = fn
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastSnapshot sends a snapshot to all subscribed clients.
func (h *Hub) BroadcastSnapshot(snap *model.Snapshot) {
	h.broadcast(topicSnapshot, snapshotMessage(snap))
}

// BroadcastAlerts sends newly recorded alerts to all subscribed clients.
func (h *Hub) BroadcastAlerts(alerts []model.AlertRecord) {
	h.broadcast(topicAlerts, map[string]interface{}{
		"type":   topicAlerts,
		"alerts": alerts,
	})
}

func snapshotMessage(snap *model.Snapshot) map[string]interface{} {
	return map[string]interface{}{
		"type":     topicSnapshot,
		"snapshot": snap,
	}
}

func (h *Hub) broadcast(topic string, payload interface{}) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if len(h.clients) == 0 {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("broadcast encode failed", zap.String("topic", topic), zap.Error(err))
		return
	}

	for c := range h.clients {
		if !c.subscribed(topic) {
			continue
		}
		select {
		case c.send <- data:
		default:
			// client too slow, skip
		}
	}
}

func (c *wsClient) subscribed(topic string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) == 0 {
		return true // no filter = receive all
	}
	return c.subs[topic]
}

func (c *wsClient) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := c.conn.Ping(ctx); err != nil {
				return
			}
		}
	}
}

// HandleWS handles WebSocket upgrade and manages the connection.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true, // allow any origin for local tool
	})
	if err != nil {
		h.logger.Warn("accept error", zap.Error(err))
		return
	}

	client := &wsClient{
		hub:  h,
		conn: conn,
		send: make(chan []byte, 64),
		subs: make(map[string]bool),
	}

	ctx := r.Context()

	h.mu.RLock()
	greeting := h.greeting
	h.mu.RUnlock()
	if greeting != nil {
		if data, err := json.Marshal(snapshotMessage(greeting(ctx))); err == nil {
			client.send <- data
		}
	}

	select {
	case h.reg <- client:
	case <-h.done:
		conn.Close(websocket.StatusGoingAway, "shutting down")
		return
	}

	go client.pingLoop(ctx)
	go client.writePump(ctx)
	client.readPump(ctx)
}

func (c *wsClient) readPump(ctx context.Context) {
	defer func() {
		select {
		case c.hub.unreg <- c:
		case <-c.hub.done:
		}
		c.conn.Close(websocket.StatusNormalClosure, "bye")
	}()

	for {
		readCtx, cancel := context.WithTimeout(ctx, readTimeout)
		_, data, err := c.conn.Read(readCtx)
		cancel()
		if err != nil {
			return
		}
		// Parse subscription messages
		var msg struct {
			Type   string   `json:"type"`
			Topics []string `json:"topics"`
		}
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		switch msg.Type {
		case "subscribe":
			c.mu.Lock()
			for _, t := range msg.Topics {
				c.subs[t] = true
			}
			c.mu.Unlock()
		case "unsubscribe":
			c.mu.Lock()
			for _, t := range msg.Topics {
				delete(c.subs, t)
			}
			c.mu.Unlock()
		}
	}
}

func (c *wsClient) writePump(ctx context.Context) {
	for data := range c.send {
		if err := c.conn.Write(ctx, websocket.MessageText, data); err != nil {
			return
		}
	}
	c.conn.Close(websocket.StatusGoingAway, "shutting down")
}

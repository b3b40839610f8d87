package handlers

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"scribbly/internal/metrics"
	"scribbly/internal/protocol"
	"scribbly/internal/store"
)

const (
	sendBuffer   = 64
	writeTimeout = 10 * time.Second
	pingInterval = 30 * time.Second
)

// Client is one websocket connection
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Send     chan []byte
	limiter  *rate.Limiter
	replaced atomic.Bool
}

// NewClient creates a client with a buffered outbound queue
func NewClient(id string, conn *websocket.Conn, limiter *rate.Limiter) *Client {
	return &Client{
		ID:      id,
		Conn:    conn,
		Send:    make(chan []byte, sendBuffer),
		limiter: limiter,
	}
}

// WritePump reads from the Send channel and writes to the WebSocket connection.
// It also pings the peer periodically.
func (c *Client) WritePump(ctx context.Context) {
	ping := time.NewTicker(pingInterval)
	defer ping.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-c.Send:
			if !ok {
				if c.replaced.Load() {
					c.Conn.Close(websocket.StatusPolicyViolation, "replaced by a newer connection")
				}
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Conn.Write(wctx, websocket.MessageText, msg)
			cancel()
			if err != nil {
				return
			}
		case <-ping.C:
			pctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := c.Conn.Ping(pctx)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

// Hub tracks live connections by id and delivers game events to them. It
// implements game.Broadcaster; sends never block and are dropped when a
// client's queue is full.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	conns   *store.ConnectionTracker
	metrics *metrics.Collector
	log     *zap.Logger
}

// NewHub creates a new Hub. Room fan-out uses the attachments in conns.
func NewHub(conns *store.ConnectionTracker, m *metrics.Collector, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients: make(map[string]*Client),
		conns:   conns,
		metrics: m,
		log:     logger.Named("hub"),
	}
}

// Register adds a client. A client already registered under the same id is
// replaced and its queue closed, which makes its write pump hang up.
func (h *Hub) Register(c *Client) (replaced bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.clients[c.ID]; ok && old != c {
		old.replaced.Store(true)
		close(old.Send)
		replaced = true
	}
	h.clients[c.ID] = c
	return replaced
}

// Unregister removes c if it is still the current client for its id. It
// reports false when c was already replaced by a newer connection.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.ID] != c {
		return false
	}
	close(c.Send)
	delete(h.clients, c.ID)
	return true
}

// Count returns the number of registered clients
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Emit sends an event to a single connection
func (h *Hub) Emit(connID, event string, payload any) {
	h.EmitWithID(connID, event, "", payload)
}

// EmitWithID sends an event that answers the request with the given id
func (h *Hub) EmitWithID(connID, event, requestID string, payload any) {
	msg, ok := h.encode(event, requestID, payload)
	if !ok {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		h.deliver(c, event, msg)
	}
}

// EmitRoom sends an event to every connection attached to the room
func (h *Hub) EmitRoom(roomID, event string, payload any) {
	msg, ok := h.encode(event, "", payload)
	if !ok {
		return
	}
	members := h.conns.Members(roomID)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, id := range members {
		if c, ok := h.clients[id]; ok {
			h.deliver(c, event, msg)
		}
	}
}

func (h *Hub) encode(event, requestID string, payload any) ([]byte, bool) {
	msg, err := json.Marshal(protocol.Outbound{Event: event, ID: requestID, Data: payload})
	if err != nil {
		h.log.Error("failed to encode event", zap.String("event", event), zap.Error(err))
		return nil, false
	}
	return msg, true
}

// deliver must be called with h.mu held
func (h *Hub) deliver(c *Client, event string, msg []byte) {
	select {
	case c.Send <- msg:
	default:
		h.metrics.MessageDropped()
		h.log.Warn("client queue full, dropping event", zap.String("conn", c.ID), zap.String("event", event))
	}
}

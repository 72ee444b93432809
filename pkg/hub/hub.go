// Package hub streams published dashboard snapshots to WebSocket clients.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/nicktill/insights/pkg/config"
	"github.com/nicktill/insights/pkg/controller"
	"github.com/nicktill/insights/pkg/records"
	"github.com/nicktill/insights/pkg/telemetry"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		// No Origin header = non-browser client (curl, tests)
		return origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host
	},
	ReadBufferSize:  config.WSReadBufferSize,
	WriteBufferSize: config.WSWriteBufferSize,
}

// Update is the message pushed to clients.
type Update struct {
	Type     string              `json:"type"`
	Snapshot controller.Snapshot `json:"snapshot"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub manages WebSocket connections for dashboard updates.
type Hub struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte

	done chan struct{}

	mu              sync.RWMutex
	latest          []byte
	lastFingerprint string
	lastRange       records.DateRange

	log zerolog.Logger
}

// New creates a new WebSocket hub
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*client]bool),
		register:   make(chan *client, config.WSChannelBuffer),
		unregister: make(chan *client, config.WSChannelBuffer),
		broadcast:  make(chan []byte, config.WSBroadcastBuffer),
		done:       make(chan struct{}),
		log:        logger,
	}
}

// Run starts the hub's main loop
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.mu.Unlock()
			telemetry.SetClients(0)
			return
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			count := len(h.clients)
			latest := h.latest
			h.mu.Unlock()
			// New clients start from the current state.
			if latest != nil {
				h.offer(c, latest)
			}
			telemetry.SetClients(count)
			h.log.Info().Int("clients", count).Msg("websocket client connected")
		case c := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			count := len(h.clients)
			h.mu.Unlock()
			telemetry.SetClients(count)
			h.log.Info().Int("clients", count).Msg("websocket client disconnected")
		case message := <-h.broadcast:
			h.mu.RLock()
			for c := range h.clients {
				h.offer(c, message)
			}
			h.mu.RUnlock()
		}
	}
}

// offer queues a message for one client, dropping it if the client is behind.
func (h *Hub) offer(c *client, message []byte) {
	select {
	case c.send <- message:
	default:
		h.log.Warn().Msg("websocket client send buffer full, dropping update")
	}
}

// Publish implements controller.Publisher. A snapshot with the same range and
// views as the previous one is remembered but not re-sent.
func (h *Hub) Publish(s controller.Snapshot) {
	message, err := json.Marshal(Update{Type: "dashboard_update", Snapshot: s})
	if err != nil {
		h.log.Error().Err(err).Msg("failed to encode dashboard update")
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.latest = message
	if s.Fingerprint == h.lastFingerprint && s.Range.Equal(h.lastRange) {
		return
	}

	// The dedupe state only advances once the update is queued, so a
	// dropped update is retried by the next identical snapshot.
	select {
	case h.broadcast <- message:
		h.lastFingerprint = s.Fingerprint
		h.lastRange = s.Range
	default:
		h.log.Warn().Msg("broadcast channel full, dropping update")
	}
}

// HasClients returns true if there are any connected WebSocket clients
func (h *Hub) HasClients() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients) > 0
}

// HandleWebSocket handles WebSocket upgrade requests
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &client{conn: conn, send: make(chan []byte, config.WSChannelBuffer)}
	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// writePump is the only goroutine writing to the connection.
func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(config.WSPingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				h.log.Debug().Err(err).Msg("websocket write error")
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(config.WSWriteDeadline))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump handles pongs and detects connection close.
func (h *Hub) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
	}()

	c.conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.WSReadDeadline))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn().Err(err).Msg("websocket error")
			}
			return
		}
	}
}

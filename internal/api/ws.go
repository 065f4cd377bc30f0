package api

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"lp-arena-agent/internal/engine"
)

// HubConfig tunes the snapshot push behavior.
type HubConfig struct {
	// PollInterval is how often the hub checks the engine for a new cycle.
	PollInterval time.Duration
	// PingInterval is interval for sending ping frames.
	PingInterval time.Duration
	// WriteTimeout is timeout for writing messages.
	WriteTimeout time.Duration
	// PongTimeout is how long a client may stay silent before it is dropped.
	PongTimeout time.Duration
	// SendBuffer is the per-client outbound queue; a client that falls this
	// far behind is disconnected.
	SendBuffer int
}

// DefaultHubConfig returns default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{
		PollInterval: 1 * time.Second,
		PingInterval: 30 * time.Second,
		WriteTimeout: 10 * time.Second,
		PongTimeout:  60 * time.Second,
		SendBuffer:   8,
	}
}

// Hub pushes each completed cycle's snapshot to websocket subscribers.
// It only reads from the engine; subscribers cannot influence it.
type Hub struct {
	engine   *engine.Engine
	config   HubConfig
	log      *zap.SugaredLogger
	upgrader websocket.Upgrader

	mu        sync.Mutex
	clients   map[*wsClient]struct{}
	lastCycle uint64
	lastMsg   []byte
}

// NewHub creates a hub over the engine.
func NewHub(eng *engine.Engine, config *HubConfig, log *zap.SugaredLogger) *Hub {
	cfg := DefaultHubConfig()
	if config != nil {
		cfg = *config
	}

	return &Hub{
		engine: eng,
		config: cfg,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[*wsClient]struct{}),
	}
}

// Run polls the engine and broadcasts every new cycle until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	ticker := time.NewTicker(h.config.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case <-ticker.C:
			h.push()
		}
	}
}

// push broadcasts the latest snapshot if a new cycle has completed.
func (h *Hub) push() {
	snap := h.engine.Snapshot()
	if snap.Cycle == 0 {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if snap.Cycle == h.lastCycle {
		return
	}

	msg, err := marshalSnapshot(snap)
	if err != nil {
		h.log.Errorw("marshal snapshot", "err", err)
		return
	}
	h.lastCycle = snap.Cycle
	h.lastMsg = msg

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// Client is not draining its queue; cut it loose.
			h.log.Warnw("dropping slow websocket client", "remote", c.conn.RemoteAddr())
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// ServeWS upgrades the request and registers the client for snapshot pushes.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warnw("websocket upgrade failed", "err", err)
		return
	}

	c := &wsClient{
		conn: conn,
		send: make(chan []byte, h.config.SendBuffer),
	}

	h.mu.Lock()
	h.clients[c] = struct{}{}
	// New subscribers get the last snapshot right away instead of waiting a
	// full cycle.
	if h.lastMsg != nil {
		c.send <- h.lastMsg
	}
	h.mu.Unlock()

	go c.writePump(h)
	go c.readPump(h)
}

// remove unregisters a client. Safe to call twice.
func (h *Hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// clientCount reports current subscribers.
func (h *Hub) clientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// wsClient is one subscriber connection.
type wsClient struct {
	conn *websocket.Conn
	send chan []byte
}

// writePump writes queued snapshots and pings until the send channel closes.
func (c *wsClient) writePump(h *Hub) {
	ticker := time.NewTicker(h.config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				h.remove(c)
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(h.config.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.remove(c)
				return
			}
		}
	}
}

// readPump consumes client frames so pongs and close messages are processed.
// Subscribers have nothing to say; any payload is discarded.
func (c *wsClient) readPump(h *Hub) {
	defer h.remove(c)

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(h.config.PongTimeout))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

package events

import (
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openclaw/desktopd/internal/logging"
	"github.com/openclaw/desktopd/internal/monitoring"
)

// sendBuffer is the per-client outbound queue length. A client that
// falls this far behind starts losing events rather than stalling the
// session that produced them.
const sendBuffer = 256

// writeWait bounds a single frame write to a client.
const writeWait = 10 * time.Second

// maxInboundBytes caps inbound frames. Clients are not expected to send
// anything; the limit just keeps misbehaving ones cheap.
const maxInboundBytes = 512

// client is one connected WebSocket consumer.
type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// Hub fans session events out to every connected WebSocket client. It
// implements Emitter: each event is encoded once and delivered to each
// client's buffered queue with a non-blocking send, so a slow consumer
// can never back-pressure a PTY reader loop.
type Hub struct {
	log     *logging.Logger
	metrics *monitoring.Metrics

	mu      sync.RWMutex
	clients map[string]*client
	closed  bool
}

// NewHub creates an empty hub.
func NewHub(log *logging.Logger, metrics *monitoring.Metrics) *Hub {
	return &Hub{
		log:     log,
		metrics: metrics,
		clients: make(map[string]*client),
	}
}

// Register adopts an upgraded WebSocket connection. The hub owns the
// connection from here on: it starts the read and write pumps and closes
// the connection when the client disconnects or the hub shuts down.
func (h *Hub) Register(conn *websocket.Conn) {
	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan []byte, sendBuffer),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c.id] = c
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.IncWSConnections()
	h.log.Info("websocket client connected",
		zap.String("client_id", c.id),
		zap.Int("total", total))

	go h.writePump(c)
	go h.readPump(c)
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// EmitData publishes a terminal output chunk.
func (h *Hub) EmitData(sessionID uint64, data string) {
	payload, err := sonic.Marshal(DataEvent{
		Type:      TypeData,
		SessionID: sessionID,
		Data:      data,
	})
	if err != nil {
		h.log.Error("failed to encode data event", zap.Error(err))
		return
	}
	h.broadcast(TypeData, payload)
}

// EmitStatus publishes a session's terminal status transition.
func (h *Hub) EmitStatus(sessionID uint64, status, errorMessage string) {
	payload, err := sonic.Marshal(StatusEvent{
		Type:         TypeStatus,
		SessionID:    sessionID,
		Status:       status,
		ErrorMessage: errorMessage,
	})
	if err != nil {
		h.log.Error("failed to encode status event", zap.Error(err))
		return
	}
	h.broadcast(TypeStatus, payload)
}

// Close disconnects every client. Safe to call more than once.
func (h *Hub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*client, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.clients = make(map[string]*client)
	h.mu.Unlock()

	for _, c := range clients {
		close(c.send)
		h.metrics.DecWSConnections()
	}
}

// broadcast delivers an encoded event to every client queue without
// blocking; full queues drop the event for that client only.
func (h *Hub) broadcast(eventType string, payload []byte) {
	h.metrics.RecordWSEvent(eventType)

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		select {
		case c.send <- payload:
		default:
			h.metrics.IncWSDropped()
			h.log.Debug("websocket client buffer full, dropping event",
				zap.String("client_id", c.id))
		}
	}
}

// unregister removes a client and closes its queue exactly once.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	_, ok := h.clients[c.id]
	if ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	total := len(h.clients)
	h.mu.Unlock()

	if ok {
		h.metrics.DecWSConnections()
		h.log.Info("websocket client disconnected",
			zap.String("client_id", c.id),
			zap.Int("total", total))
	}
}

// writePump drains the client queue onto the connection. It exits when
// the queue is closed (clean shutdown, says goodbye with a close frame)
// or when a write fails.
func (h *Hub) writePump(c *client) {
	defer c.conn.Close()

	for payload := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			h.unregister(c)
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// readPump discards inbound frames until the connection drops. The
// protocol is push-only; reading is just how we notice a disconnect.
func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxInboundBytes)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

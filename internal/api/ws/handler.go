package ws

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/openclaw/desktopd/internal/events"
	"github.com/openclaw/desktopd/internal/logging"
)

// The daemon binds to loopback and desktop shells send file://, app://,
// or no Origin at all, so origin checking adds nothing here.
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades stream requests and hands connections to the hub.
type Handler struct {
	hub *events.Hub
	log *logging.Logger
}

// NewHandler creates a new WebSocket handler.
func NewHandler(hub *events.Hub, log *logging.Logger) *Handler {
	return &Handler{
		hub: hub,
		log: log,
	}
}

// HandleConnection handles the WebSocket upgrade. The hub owns the
// connection from registration onward, including closing it.
func (h *Handler) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	h.hub.Register(conn)
}

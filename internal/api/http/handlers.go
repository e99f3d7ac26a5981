package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/openclaw/desktopd/internal/events"
	"github.com/openclaw/desktopd/internal/launch"
	"github.com/openclaw/desktopd/internal/settings"
	"github.com/openclaw/desktopd/internal/shared/errs"
	"github.com/openclaw/desktopd/internal/terminal"
	"github.com/openclaw/desktopd/internal/tracing"
)

const (
	serviceName    = "openclaw-desktopd"
	serviceVersion = "0.1.0"

	// maxWriteBytes caps the data field of a single write request.
	// Large pastes arrive from the client in chunks well under this;
	// anything bigger is a bug or abuse.
	maxWriteBytes = 1 << 20
)

// Handlers contains all HTTP handlers.
type Handlers struct {
	registry  *terminal.Registry
	builder   *launch.Builder
	settings  *settings.Store
	hub       *events.Hub
	startedAt time.Time
}

// NewHandlers creates a new handler set.
func NewHandlers(
	registry *terminal.Registry,
	builder *launch.Builder,
	store *settings.Store,
	hub *events.Hub,
) *Handlers {
	return &Handlers{
		registry:  registry,
		builder:   builder,
		settings:  store,
		hub:       hub,
		startedAt: time.Now(),
	}
}

// Root handles the service banner.
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": serviceName,
		"version": serviceVersion,
	})
}

// Health handles detailed health check.
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":         "healthy",
		"sessions":       h.registry.Count(),
		"stream_clients": h.hub.ClientCount(),
		"configured":     launch.Configured(),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}

// spawnRequest carries everything needed to start a session. Settings
// are optional; when present they replace the daemon's current set
// before the environment is built, so a client can onboard and spawn
// in one call.
type spawnRequest struct {
	Settings *settings.Settings `json:"settings"`
	Args     []string           `json:"args"`
	Cols     uint16             `json:"cols" binding:"required"`
	Rows     uint16             `json:"rows" binding:"required"`
}

// SpawnSession starts a new terminal session.
func (h *Handlers) SpawnSession(c *gin.Context) {
	var req spawnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	// Arguments are checked before any resource resolution so a bad
	// request never touches the filesystem.
	if err := launch.ValidateArgs(req.Args); err != nil {
		respondError(c, err)
		return
	}

	if req.Settings != nil {
		h.settings.Set(*req.Settings)
	}

	spec, err := h.builder.Build(h.settings.Get(), req.Args)
	if err != nil {
		respondError(c, err)
		return
	}

	sessionID, err := h.registry.Spawn(spec, req.Cols, req.Rows)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"session_id": sessionID})
}

// WriteSession feeds input bytes to a session's terminal.
func (h *Handlers) WriteSession(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req struct {
		Data string `json:"data"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if len(req.Data) > maxWriteBytes {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("write of %d bytes exceeds the %d byte limit", len(req.Data), maxWriteBytes),
		})
		return
	}

	if err := h.registry.Write(sessionID, []byte(req.Data)); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ResizeSession updates a session's terminal dimensions.
func (h *Handlers) ResizeSession(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	var req struct {
		Cols uint16 `json:"cols" binding:"required"`
		Rows uint16 `json:"rows" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := h.registry.Resize(sessionID, req.Cols, req.Rows); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// KillSession terminates a session. Session id 0 terminates every live
// session. Killing an already-gone session succeeds.
func (h *Handlers) KillSession(c *gin.Context) {
	sessionID, ok := h.sessionID(c)
	if !ok {
		return
	}

	h.registry.Kill(sessionID)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListSessions lists all registered sessions.
func (h *Handlers) ListSessions(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"sessions": h.registry.List()})
}

// GetSettings returns the daemon's current settings.
func (h *Handlers) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.settings.Get())
}

// UpdateSettings persists new settings and makes them current. The
// disk write happens first so a failed save leaves the running
// settings untouched.
func (h *Handlers) UpdateSettings(c *gin.Context) {
	var s settings.Settings
	if err := c.ShouldBindJSON(&s); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request: " + err.Error()})
		return
	}

	if err := settings.Save(s); err != nil {
		respondError(c, err)
		return
	}

	h.settings.Set(s)

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// LauncherConfigured reports whether the managed CLI has completed
// first-run setup.
func (h *Handlers) LauncherConfigured(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"configured": launch.Configured()})
}

// sessionID parses the :id route parameter. Replies 400 and returns
// false when it is not a decimal uint64.
func (h *Handlers) sessionID(c *gin.Context) (uint64, bool) {
	raw := c.Param("id")

	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid session id: " + raw})
		return 0, false
	}

	return id, true
}

// respondError maps the error taxonomy onto HTTP statuses. Internal
// failures carry the trace id so a bug report can cite the matching
// daemon log line.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, errs.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, errs.ErrNotFound):
		status = http.StatusNotFound
	}

	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		if traceID := tracing.GetTraceID(c.Request.Context()); traceID != "" {
			body["trace_id"] = string(traceID)
		}
	}

	_ = c.Error(err)
	c.JSON(status, body)
}

package server

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/openclaw/desktopd/internal/api/http"
	"github.com/openclaw/desktopd/internal/api/middleware"
	"github.com/openclaw/desktopd/internal/api/ws"
	"github.com/openclaw/desktopd/internal/config"
	"github.com/openclaw/desktopd/internal/events"
	"github.com/openclaw/desktopd/internal/launch"
	"github.com/openclaw/desktopd/internal/logging"
	"github.com/openclaw/desktopd/internal/monitoring"
	"github.com/openclaw/desktopd/internal/settings"
	"github.com/openclaw/desktopd/internal/terminal"
	"github.com/openclaw/desktopd/internal/tracing"
)

// Server wraps the HTTP server and dependencies.
type Server struct {
	router   *gin.Engine
	registry *terminal.Registry
	hub      *events.Hub
	logger   *logging.Logger
	config   *config.Config
	metrics  *monitoring.Metrics
}

// NewServer creates a new server instance.
func NewServer(cfg *config.Config) (*Server, error) {
	logger, err := logging.New(logging.Config{
		Level:       cfg.Logging.Level,
		Development: cfg.Logging.Development,
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}

	logger.Info("Initializing OpenClaw desktop daemon",
		zap.String("host", cfg.Server.Host),
		zap.String("port", cfg.Server.Port),
		zap.String("resource_dir", cfg.Launch.ResourceDir),
		zap.Bool("development", cfg.Launch.Development),
	)

	metrics := monitoring.NewMetrics()
	tracer := tracing.New(logger)

	hub := events.NewHub(logger, metrics)
	registry := terminal.NewRegistry(logger, hub, metrics)
	builder := launch.NewBuilder(cfg.Launch)

	// Settings hydrate from disk once; the store is the live copy from
	// here on and every save writes through it.
	store := settings.NewStore(settings.Load())

	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(tracing.HTTPMiddleware(tracer))
	router.Use(monitoring.Middleware(metrics))
	router.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	if cfg.RateLimit.Enabled {
		logger.Info("Rate limiting enabled",
			zap.Int("rps", cfg.RateLimit.RequestsPerSecond),
			zap.Int("burst", cfg.RateLimit.Burst),
		)
		router.Use(middleware.RateLimit(middleware.RateLimitConfig{
			RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
			Burst:             cfg.RateLimit.Burst,
		}))
	}

	handlers := http.NewHandlers(registry, builder, store, hub)
	wsHandler := ws.NewHandler(hub, logger)

	router.GET("/", handlers.Root)
	router.GET("/health", handlers.Health)

	// Session lifecycle
	router.POST("/sessions", handlers.SpawnSession)
	router.GET("/sessions", handlers.ListSessions)
	router.POST("/sessions/:id/write", handlers.WriteSession)
	router.POST("/sessions/:id/resize", handlers.ResizeSession)
	router.DELETE("/sessions/:id", handlers.KillSession)

	// Settings
	router.GET("/settings", handlers.GetSettings)
	router.PUT("/settings", handlers.UpdateSettings)

	// Launcher
	router.GET("/launcher/configured", handlers.LauncherConfigured)

	// WebSocket event stream
	router.GET("/stream", wsHandler.HandleConnection)

	// Prometheus metrics
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Info("Server initialized successfully")

	return &Server{
		router:   router,
		registry: registry,
		hub:      hub,
		logger:   logger,
		config:   cfg,
		metrics:  metrics,
	}, nil
}

// Router exposes the routing tree, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := s.config.Server.Host + ":" + s.config.Server.Port
	s.logger.Info("Starting HTTP server", zap.String("addr", addr))
	return s.router.Run(addr)
}

// Close gracefully shuts down the server. Sessions go down first so
// their terminal status events still reach connected stream clients,
// then the clients are disconnected.
func (s *Server) Close() error {
	s.logger.Info("Shutting down server...")

	s.registry.Close()
	s.hub.Close()

	_ = s.logger.Sync()

	return nil
}

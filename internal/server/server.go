// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/proctorwatch/proctorwatch/internal/config"
	"github.com/proctorwatch/proctorwatch/internal/events"
	"github.com/proctorwatch/proctorwatch/internal/health"
	"github.com/proctorwatch/proctorwatch/internal/logging"
	"github.com/proctorwatch/proctorwatch/internal/metrics"
	"github.com/proctorwatch/proctorwatch/internal/realtime"
	"github.com/proctorwatch/proctorwatch/internal/risk"
	"github.com/proctorwatch/proctorwatch/internal/security"
	"github.com/proctorwatch/proctorwatch/internal/validation"
)

// Version of the service, reported by / and /health.
const Version = "1.0.0"

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg          *config.Config
	store        events.Store
	ingest       *events.Service
	summary      *risk.SummaryService
	hub          *realtime.Hub
	healthReg    *health.Registry
	router       *gin.Engine
	httpSrv      *http.Server
	logger       *slog.Logger
	cancelRunCtx context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithStore sets a custom event store (for testing)
func WithStore(store events.Store) Option {
	return func(s *Server) {
		s.store = store
	}
}

// New creates a new server instance. The event store is opened here and
// closed by Shutdown; services receive it explicitly, nothing holds it
// as ambient state.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set store/logger)
	for _, opt := range opts {
		opt(s)
	}

	// Initialize storage (SQLite if DATABASE_PATH set, otherwise in-memory)
	if s.store == nil {
		if cfg.DatabasePath != "" {
			store, err := events.NewSQLiteStore(cfg.DatabasePath)
			if err != nil {
				return nil, fmt.Errorf("failed to open event store: %w", err)
			}
			s.store = store
			s.logger.Info("using SQLite storage", "path", cfg.DatabasePath)
		} else {
			s.store = events.NewMemoryStore()
			s.logger.Info("using in-memory storage (data will not persist)")
		}
	}

	s.ingest = events.NewService(s.store, cfg.SessionID)
	s.summary = risk.NewSummaryService(s.store)

	s.healthReg = health.NewRegistry()
	s.healthReg.Register("database", health.PingChecker("database", s.store.Ping))

	s.hub = realtime.NewHub(s.logger)

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (origins from config; wildcard covers the extension in dev)
	s.router.Use(security.CORSMiddleware(s.cfg.CORSOrigins))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Honor an existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}

		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/", s.rootHandler)
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// Debug dashboard (read-only consumer of the query endpoints)
	s.router.GET("/debug", s.debugPageHandler)

	// WebSocket live event feed for the dashboard
	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})

	// Interactive endpoint documentation, disabled in production by default
	if s.cfg.EnableDocs {
		s.router.GET("/docs", s.docsHandler)
	}

	// API group
	api := s.router.Group("/api")

	eventsHandler := events.NewHandler(s.ingest, s.store).
		WithEvents(s.hub).
		WithClientIP(s.cfg.IncludeClientIP).
		WithRemainingCount(s.cfg.IncludeRemainingCount)
	eventsHandler.RegisterRoutes(api)

	riskHandler := risk.NewHandler(s.summary)
	riskHandler.RegisterRoutes(api)
}

// -----------------------------------------------------------------------------
// Handlers
// -----------------------------------------------------------------------------

// rootHandler returns service metadata and the endpoint map
func (s *Server) rootHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"message":     "Interview behavior monitor is running",
		"version":     Version,
		"environment": s.cfg.Env,
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"endpoints": gin.H{
			"root":             "/",
			"submit_event":     "POST /api/events",
			"get_risk_summary": "GET /api/risk-summary",
			"get_all_events":   "GET /api/events",
			"clear_events":     "GET /api/clear",
			"debug_dashboard":  "GET /debug",
			"health_check":     "GET /health",
			"live_feed":        "GET /ws",
			"metrics":          "GET /metrics",
		},
	})
}

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.healthReg.CheckAll(ctx)

	database := "connected"
	for _, st := range statuses {
		if st.Name == "database" && !st.Healthy {
			database = "disconnected"
		}
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"database":  database,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	})
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

// docsHandler documents the API surface for development use.
func (s *Server) docsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "interview behavior monitor",
		"version": Version,
		"endpoints": []gin.H{
			{"method": "POST", "path": "/api/events", "body": gin.H{"type": "string (required)", "timestamp": "int ms (optional)", "data": "object (optional)"}, "description": "Submit a behavioral event; returns the assigned id and per-event risk score"},
			{"method": "GET", "path": "/api/events", "query": gin.H{"limit": "int, default 50"}, "description": "List recent events, newest first"},
			{"method": "GET", "path": "/api/risk-summary", "description": "Aggregate risk over all stored events"},
			{"method": "GET", "path": "/api/clear", "description": "Delete every stored event (irreversible)"},
			{"method": "GET", "path": "/health", "description": "Health check including database connectivity"},
			{"method": "GET", "path": "/debug", "description": "HTML debug dashboard"},
			{"method": "GET", "path": "/ws", "description": "WebSocket live event feed"},
		},
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              s.cfg.Host + ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)

	go func() {
		s.logger.Info("starting server",
			"host", s.cfg.Host,
			"port", s.cfg.Port,
			"env", s.cfg.Env,
		)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.hub.Run(runCtx)

	// Sample DB stats into metrics when backed by SQLite
	if sqliteStore, ok := s.store.(*events.SQLiteStore); ok {
		go metrics.StartDBStatsCollector(runCtx, sqliteStore.DB(), 15*time.Second)
	}

	// Mark as ready after brief delay for startup
	go func() {
		time.Sleep(100 * time.Millisecond)
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for background goroutines (hub, stats collector)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	// Close the event store
	if err := s.store.Close(); err != nil {
		s.logger.Error("store close error", "error", err)
	} else {
		s.logger.Info("event store closed")
	}

	s.logger.Info("server stopped")
	return nil
}

// Router returns the gin router for testing
func (s *Server) Router() *gin.Engine {
	return s.router
}

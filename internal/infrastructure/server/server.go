package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/lourivaldantas/whatsapp-shell/internal/domain/permission"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/logging"
	"github.com/lourivaldantas/whatsapp-shell/internal/infrastructure/monitoring"
)

const shutdownTimeout = 5 * time.Second

// Status is the shell state reported on /status.
type Status struct {
	RunID           string                  `json:"run_id"`
	StartedAt       time.Time               `json:"started_at"`
	ProfileDir      string                  `json:"profile_dir"`
	URL             string                  `json:"url"`
	UserAgent       string                  `json:"user_agent"`
	UserAgentSource string                  `json:"user_agent_source"`
	PermissionMode  string                  `json:"permission_mode"`
	PendingReloads  int                     `json:"pending_reloads"`
	Permissions     []permission.AuditEntry `json:"permissions"`
}

// Config holds server settings
type Config struct {
	Addr        string
	Development bool
	// RequestsPerSecond bounds all requests together; zero disables limiting.
	RequestsPerSecond float64
	Burst             int
	// AllowOrigins enables CORS for these origins when not empty.
	AllowOrigins []string
}

// Deps are the shell hooks the server reports on and acts through.
type Deps struct {
	Status  func() Status
	Reload  func() error
	Metrics *monitoring.Metrics
	Logger  *logging.Logger
}

// Server is the local diagnostics endpoint
type Server struct {
	cfg    Config
	router *gin.Engine
	logger *logging.Logger
}

// New creates a diagnostics server
func New(cfg Config, deps Deps) *Server {
	if !cfg.Development {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(requestID(deps.Logger))
	if len(cfg.AllowOrigins) > 0 {
		router.Use(allowOrigins(cfg.AllowOrigins))
	}
	router.Use(monitoring.Middleware(deps.Metrics))
	if cfg.RequestsPerSecond > 0 {
		router.Use(rateLimit(cfg.RequestsPerSecond, cfg.Burst))
	}

	h := &handlers{deps: deps}
	router.GET("/healthz", h.health)
	router.GET("/status", h.status)
	router.POST("/reload", h.reload)
	router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Metrics.Registry, promhttp.HandlerOpts{})))

	return &Server{cfg: cfg, router: router, logger: deps.Logger}
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		s.logger.Info("Starting diagnostics server", zap.String("addr", s.cfg.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("diagnostics server: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down diagnostics server: %w", err)
		}
		s.logger.Info("Diagnostics server stopped")
		return nil
	}
}

type handlers struct {
	deps Deps
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *handlers) status(c *gin.Context) {
	c.JSON(http.StatusOK, h.deps.Status())
}

func (h *handlers) reload(c *gin.Context) {
	if err := h.deps.Reload(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{"status": "reloading"})
}

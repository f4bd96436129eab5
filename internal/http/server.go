package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/ohmymkt/internal/hooks"
	"github.com/fyrsmithlabs/ohmymkt/internal/logging"
	"github.com/fyrsmithlabs/ohmymkt/internal/store"
	"github.com/fyrsmithlabs/ohmymkt/internal/telemetry"
)

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// ReportWindow is the growth report window when a request omits one.
	ReportWindow string
}

// DefaultConfig returns the loopback defaults.
func DefaultConfig() *Config {
	return &Config{Host: "127.0.0.1", Port: 9191, ReportWindow: "7d"}
}

// Addr returns host:port.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BlockedError is returned when a before_tool hook refuses an operation.
type BlockedError struct {
	Operation string
	Message   string
}

func (e *BlockedError) Error() string {
	return e.Message
}

// Server provides the HTTP API over one project store.
type Server struct {
	echo      *echo.Echo
	store     *store.Store
	hooks     *hooks.HookManager
	logger    *logging.Logger
	telemetry *telemetry.Telemetry
	config    *Config
	gauges    *Gauges
}

// NewServer creates a server. A nil hook manager runs no hooks; a nil
// telemetry instance uses the global OTel providers.
func NewServer(cfg *Config, s *store.Store, h *hooks.HookManager, logger *logging.Logger, tel *telemetry.Telemetry) (*Server, error) {
	if s == nil {
		return nil, fmt.Errorf("store is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ReportWindow == "" {
		cfg.ReportWindow = "7d"
	}
	if h == nil {
		h = hooks.NewHookManager(nil)
	}

	logger = logger.Named("http")
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:      e,
		store:     s,
		hooks:     h,
		logger:    logger,
		telemetry: tel,
		config:    cfg,
		gauges:    NewGauges(),
	}
	e.HTTPErrorHandler = srv.handleError

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(NewHTTPMetrics(tel.Meter(instrumentationName), logger).Middleware())
	e.Use(srv.requestContext)

	srv.registerRoutes()
	return srv, nil
}

// requestContext attaches the request id, project and logger to the request
// context and logs each request once it completes.
func (s *Server) requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		req := c.Request()
		ctx := logging.WithRequestID(req.Context(), c.Response().Header().Get(echo.HeaderXRequestID))
		ctx = logging.WithProject(ctx, s.store.Root())
		ctx = logging.WithLogger(ctx, s.logger)
		c.SetRequest(req.WithContext(ctx))

		err := next(c)
		if err != nil {
			// Commit the error response so the logged status is final.
			c.Error(err)
		}

		s.logger.Info(ctx, "http request",
			zap.String("method", req.Method),
			zap.String("uri", req.RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
		)
		return nil
	}
}

func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.gauges.Registry(), promhttp.HandlerOpts{})))

	v1 := s.echo.Group("/api/v1")
	v1.GET("/gates", s.handleGetGates)
	v1.PUT("/gates/:gate/:field", s.handleUpdateGate)
	v1.PUT("/metrics/:track/:metric", s.handleUpdateMetric)
	v1.POST("/incidents", s.handleCreateIncident)
	v1.GET("/incidents", s.handleListIncidents)
	v1.POST("/cycles/:cadence", s.handleRunCycle)
	v1.GET("/cycles", s.handleCycleLog)
	v1.POST("/reports/growth", s.handleReportGrowth)
	v1.GET("/reports/*", s.handleGetReport)
	v1.GET("/state/:file", s.handleGetState)
}

// handleError maps engine errors onto status codes.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status := http.StatusInternalServerError
	body := ErrorResponse{Error: "internal server error"}

	var (
		ve *store.ValidationError
		be *BlockedError
		he *echo.HTTPError
	)
	switch {
	case errors.As(err, &ve):
		status = http.StatusBadRequest
		body = ErrorResponse{Error: ve.Message, Field: ve.Field}
	case errors.As(err, &be):
		status = http.StatusConflict
		body = ErrorResponse{Error: be.Message}
	case errors.As(err, &he):
		status = he.Code
		body = ErrorResponse{Error: fmt.Sprint(he.Message)}
	default:
		s.logger.Error(c.Request().Context(), "request failed", zap.Error(err))
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(status)
	} else {
		err = c.JSON(status, body)
	}
	if err != nil {
		s.logger.Warn(c.Request().Context(), "failed to write error response", zap.Error(err))
	}
}

// Echo returns the underlying Echo instance.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}

// Start emits the startup event and listens on the configured address.
func (s *Server) Start(ctx context.Context) error {
	ctx = logging.WithProject(ctx, s.store.Root())
	if err := s.hooks.Emit(ctx, "startup"); err != nil {
		s.logger.Warn(ctx, "startup hooks failed", zap.Error(err))
	}
	s.gauges.Refresh(s.store)
	s.logger.Info(ctx, "starting http server", zap.String("addr", s.config.Addr()))
	return s.echo.Start(s.config.Addr())
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

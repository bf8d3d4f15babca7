// Package http provides the HTTP API for mepd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/fyrsmithlabs/mepd/internal/services"
	apiv1 "github.com/fyrsmithlabs/mepd/pkg/api/v1"
)

// Server provides HTTP endpoints for mepd.
type Server struct {
	echo    *echo.Echo
	svc     services.Registry
	coord   *services.Coordinator
	logger  *zap.Logger
	config  *Config
	limiter *rate.Limiter
	metrics *HTTPMetrics
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int

	// Coordination endpoints recompute geometry; requests beyond the burst
	// are rejected with 429.
	CoordinationRPS   float64
	CoordinationBurst int

	// Version is reported by GET /api/v1/status.
	Version string
}

// NewServer creates a new HTTP server over the engine registry.
func NewServer(svc services.Registry, logger *zap.Logger, cfg *Config) (*Server, error) {
	if svc == nil {
		return nil, fmt.Errorf("service registry cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "localhost",
			Port: 9090,
		}
	}
	if cfg.CoordinationRPS <= 0 {
		cfg.CoordinationRPS = 20
	}
	if cfg.CoordinationBurst < 1 {
		cfg.CoordinationBurst = 40
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	m := NewHTTPMetrics(logger)
	e.Use(m.MetricsMiddleware())

	s := &Server{
		echo:    e,
		svc:     svc,
		coord:   services.NewCoordinator(svc, logger),
		logger:  logger,
		config:  cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.CoordinationRPS), cfg.CoordinationBurst),
		metrics: m,
	}

	// Register routes
	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	// Health check and Prometheus scrape target
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// API v1 routes
	v1 := s.echo.Group("/api/v1")
	v1.GET("/status", s.handleStatus)
	v1.POST("/semantics/validate-connection", s.handleValidateConnection)

	// Coordination endpoints recompute geometry and share one limiter.
	coordination := v1.Group("", s.coordinationRateLimit)
	coordination.POST("/route", s.handleRoute)
	coordination.POST("/collisions/detect", s.handleDetectCollisions)
	coordination.POST("/collisions/resolve", s.handleResolveCollisions)
	coordination.POST("/hangers", s.handleHangers)
	coordination.POST("/hangers/integrated", s.handleIntegratedHangers)
}

// coordinationRateLimit rejects coordination requests beyond the configured
// rate.
func (s *Server) coordinationRateLimit(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !s.limiter.Allow() {
			return echo.NewHTTPError(http.StatusTooManyRequests, "coordination rate limit exceeded")
		}
		return next(c)
	}
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStatus reports daemon status with model-graph counts.
func (s *Server) handleStatus(c echo.Context) error {
	elements, hangers := CountFromStore(c.Request().Context(), s.svc.Store())
	return c.JSON(http.StatusOK, StatusResponse{
		Status:  "ok",
		Version: s.config.Version,
		Counts: StatusCounts{
			Elements: elements,
			Hangers:  hangers,
		},
	})
}

// handleRoute plans a constraint-compliant path for one element.
func (s *Server) handleRoute(c echo.Context) error {
	var req apiv1.RouteRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid route request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.coord.Route(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleDetectCollisions scans a level for classified collision pairs.
func (s *Server) handleDetectCollisions(c echo.Context) error {
	var req apiv1.DetectRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid detect request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.coord.DetectCollisions(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleResolveCollisions detects and resolves collisions at a level.
func (s *Server) handleResolveCollisions(c echo.Context) error {
	var req apiv1.CoordinateRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid resolve request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.coord.ResolveCollisions(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleHangers places supports along one element.
func (s *Server) handleHangers(c echo.Context) error {
	var req apiv1.HangersRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid hangers request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.coord.PlaceHangers(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleIntegratedHangers places shared supports across parallel elements.
func (s *Server) handleIntegratedHangers(c echo.Context) error {
	var req apiv1.IntegratedHangersRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid integrated hangers request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.coord.PlaceIntegratedHangers(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// handleValidateConnection answers a semantic connection check.
func (s *Server) handleValidateConnection(c echo.Context) error {
	var req apiv1.ConnectionCheckRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid connection check request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	res, err := s.coord.ValidateConnection(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, res)
}

// httpError maps engine errors onto HTTP status codes. Unmatched errors fall
// through to echo's 500 handling.
func httpError(err error) error {
	switch {
	case errors.Is(err, apiv1.ErrInvalidRequest), errors.Is(err, apiv1.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, apiv1.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, apiv1.ErrTimeout):
		return echo.NewHTTPError(http.StatusGatewayTimeout, err.Error())
	default:
		return err
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}

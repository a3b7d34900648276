// Package http serves the journal over HTTP: the reflections API, the
// journal pages, PWA assets, health and metrics.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/fyrsmithlabs/journald/internal/logging"
	"github.com/fyrsmithlabs/journald/internal/reflection"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Server provides HTTP endpoints for journald.
type Server struct {
	echo     *echo.Echo
	store    reflection.Store
	logger   *logging.Logger
	config   *Config
	metrics  *HTTPMetrics
	registry *prometheus.Registry
	gauge    prometheus.Gauge
}

// Config holds HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration

	// RateLimit is the sustained create rate per client IP in requests/second.
	// Zero disables rate limiting.
	RateLimit float64
	RateBurst int

	ServiceName string
}

// DefaultConfig returns the configuration used when NewServer gets nil.
func DefaultConfig() *Config {
	return &Config{
		Host:            "localhost",
		Port:            5000,
		ShutdownTimeout: 10 * time.Second,
		RateBurst:       10,
		ServiceName:     "journald",
	}
}

// bodyLimit caps request bodies. Reflections are short free text.
const bodyLimit = "64K"

// NewServer creates a new HTTP server backed by store.
func NewServer(store reflection.Store, logger *logging.Logger, cfg *Config) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.ServiceName == "" {
		cfg.ServiceName = "journald"
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	renderer, err := newRenderer()
	if err != nil {
		return nil, fmt.Errorf("loading page templates: %w", err)
	}
	e.Renderer = renderer

	s := &Server{
		echo:    e,
		store:   store,
		logger:  logger.Named("http"),
		config:  cfg,
		metrics: NewHTTPMetrics(logger.Underlying()),
	}
	e.HTTPErrorHandler = s.handleError

	s.registry, s.gauge = newRegistry()

	// Middleware
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(requestContext)
	e.Use(s.metrics.MetricsMiddleware())
	e.Use(s.accessLog)
	e.Use(middleware.BodyLimit(bodyLimit))

	s.registerRoutes()

	return s, nil
}

// requestContext carries the request id into the request context so store
// and handler logs correlate with the access log.
func requestContext(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Response().Header().Get(echo.HeaderXRequestID)
		if id != "" {
			req := c.Request()
			c.SetRequest(req.WithContext(logging.WithRequestID(req.Context(), id)))
		}
		return next(c)
	}
}

// accessLog logs each request after the error handler has committed the
// response, so the logged status is the one the client saw.
func (s *Server) accessLog(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		if err := next(c); err != nil {
			c.Error(err)
		}

		s.logger.Info(c.Request().Context(), "http request",
			zap.String("method", c.Request().Method),
			zap.String("uri", c.Request().RequestURI),
			zap.Int("status", c.Response().Status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
		)
		return nil
	}
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", s.metricsHandler())

	api := s.echo.Group("/api")
	api.GET("/reflections", s.handleList)
	api.POST("/reflections", s.handleCreate, s.createLimiter()...)
	api.DELETE("/reflections/:id", s.handleDelete)

	s.registerPages()
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok", Service: s.config.ServiceName})
}

// Start serves until ctx is cancelled, then shuts down gracefully.
// Returns http.ErrServerClosed after a clean shutdown.
func (s *Server) Start(ctx context.Context) error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)

	s.RefreshGauge(ctx)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting http server", zap.String("addr", addr))
		if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server start: %w", err)
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		if err := s.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown: %w", err)
		}
		return http.ErrServerClosed
	}
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "shutting down http server")
	return s.echo.Shutdown(ctx)
}

// ServeHTTP lets the server be mounted or exercised directly.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

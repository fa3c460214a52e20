// Package server exposes the forecasting service over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Alias1177/Forecaster/internal/metrics"
)

// Server wraps the Echo HTTP server.
type Server struct {
	echo    *echo.Echo
	addr    string
	logger  zerolog.Logger
	metrics *metrics.Recorder
}

// Options holds server construction options.
type Options struct {
	Port        int
	CORSOrigins []string
	Metrics     *metrics.Recorder
}

// New creates the HTTP server and registers the handler's routes plus the
// Prometheus exposition endpoint.
func New(handler *Handler, opts Options) *Server {
	if opts.Port == 0 {
		opts.Port = 8000
	}
	if len(opts.CORSOrigins) == 0 {
		opts.CORSOrigins = []string{"*"}
	}

	s := &Server{
		addr:    fmt.Sprintf(":%d", opts.Port),
		logger:  log.With().Str("component", "http_server").Logger(),
		metrics: opts.Metrics,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(s.requestLogging())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     opts.CORSOrigins,
		AllowCredentials: true,
		AllowMethods:     []string{http.MethodGet, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
		},
	}))

	handler.RegisterRoutes(e)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	s.echo = e
	return s
}

// Start runs the server until Shutdown or a listener failure.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.addr).Msg("http server listening")
	if err := s.echo.Start(s.addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	s.logger.Info().Msg("http server stopped")
	return nil
}

// requestLogging emits one structured log line per request and feeds the
// request counter. The templated route path keeps metric cardinality low.
func (s *Server) requestLogging() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			if err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			route := c.Path()
			s.metrics.RecordRequest(route, c.Request().Method, strconv.Itoa(status))

			event := s.logger.Info()
			if status >= http.StatusInternalServerError {
				event = s.logger.Error()
			}
			event.
				Str("method", c.Request().Method).
				Str("path", c.Request().URL.Path).
				Int("status", status).
				Dur("duration", time.Since(start)).
				Msg("request")

			return nil
		}
	}
}

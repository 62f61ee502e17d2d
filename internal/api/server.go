// Copyright (c) 2026 John Dewey

// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to
// deal in the Software without restriction, including without limitation the
// rights to use, copy, modify, merge, publish, distribute, sublicense, and/or
// sell copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:

// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.

// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING
// FROM, OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER
// DEALINGS IN THE SOFTWARE.

package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/oaguard/oaguard/internal/config"
)

// New initialize a new Server and configure an Echo server.
func New(
	appConfig config.Config,
	logger *slog.Logger,
	opts ...Option,
) *Server {
	e := echo.New()
	e.HideBanner = true

	// Initialize CORS configuration
	corsConfig := middleware.CORSConfig{}

	allowOrigins := appConfig.Server.Security.CORS.AllowOrigins
	if len(allowOrigins) > 0 {
		corsConfig.AllowOrigins = allowOrigins
	}

	e.Use(otelecho.Middleware("oaguard"))
	e.Use(slogecho.New(logger))
	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(middleware.CORSWithConfig(corsConfig))

	s := &Server{
		Echo:      e,
		logger:    logger,
		appConfig: appConfig,
	}

	for _, opt := range opts {
		opt(s)
	}

	meter := otel.Meter("github.com/oaguard/oaguard")
	decisions, err := meter.Int64Counter(
		"oaguard.decisions",
		metric.WithDescription("Authorization decisions by result."),
	)
	if err == nil {
		s.decisions = decisions
	}

	// Register audit middleware if an audit store is configured.
	if s.auditStore != nil {
		e.Use(auditMiddleware(s.auditStore, logger, s.metricsPath))
	}

	return s
}

// RegisterRoutes wires the health endpoint, the optional metrics endpoint,
// and the authorizing reverse proxy to the upstream service.
func (s *Server) RegisterRoutes() error {
	s.Echo.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	if s.metricsHandler != nil {
		s.Echo.GET(s.metricsPath, echo.WrapHandler(s.metricsHandler))
	}

	upstream, err := url.Parse(s.appConfig.Server.Upstream)
	if err != nil {
		return fmt.Errorf("failed to parse upstream url: %w", err)
	}

	g := s.Echo.Group("")
	g.Use(s.authorizationMiddleware())
	g.Use(middleware.ProxyWithConfig(middleware.ProxyConfig{
		Balancer: middleware.NewRoundRobinBalancer([]*middleware.ProxyTarget{
			{URL: upstream},
		}),
	}))

	return nil
}

// Start starts the Echo server with the configured port.
func (s *Server) Start() {
	go func() {
		s.logger.Info("starting server")
		listenAddr := fmt.Sprintf(":%d", s.appConfig.Server.Port)
		if err := s.Echo.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			s.logger.Error(
				"failed to start server",
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Stop gracefully shuts down the Echo server.
func (s *Server) Stop(
	ctx context.Context,
) {
	s.logger.Info("stopping server")

	if err := s.Echo.Shutdown(ctx); err != nil {
		s.logger.Error(
			"server shutdown failed",
			slog.String("error", err.Error()),
		)
	} else {
		s.logger.Info("server stopped gracefully")
	}
}

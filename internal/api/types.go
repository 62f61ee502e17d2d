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

// Package api implements the authorizing gateway in front of the upstream
// service.
package api

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/metric"

	"github.com/oaguard/oaguard/internal/audit"
	"github.com/oaguard/oaguard/internal/authz"
	"github.com/oaguard/oaguard/internal/config"
	"github.com/oaguard/oaguard/internal/spec"
)

// Server wraps an Echo instance with the authorization pipeline.
type Server struct {
	Echo *echo.Echo

	logger         *slog.Logger
	appConfig      config.Config
	document       *spec.Document
	coordinator    *authz.Coordinator
	auditStore     audit.Store
	metricsHandler http.Handler
	metricsPath    string
	decisions      metric.Int64Counter
}

// Option is a functional option for Server.
type Option func(*Server)

// WithDocument sets the loaded API description used to resolve operations.
func WithDocument(
	document *spec.Document,
) Option {
	return func(s *Server) {
		s.document = document
	}
}

// WithCoordinator sets the authorization coordinator.
func WithCoordinator(
	coordinator *authz.Coordinator,
) Option {
	return func(s *Server) {
		s.coordinator = coordinator
	}
}

// WithAuditStore enables audit logging to the given store.
func WithAuditStore(
	store audit.Store,
) Option {
	return func(s *Server) {
		s.auditStore = store
	}
}

// WithMetricsHandler exposes the given handler on the metrics path.
func WithMetricsHandler(
	handler http.Handler,
	path string,
) Option {
	return func(s *Server) {
		s.metricsHandler = handler
		s.metricsPath = path
	}
}

// ErrorResponse is the JSON body returned on denied requests.
type ErrorResponse struct {
	Error string `json:"error"`
	// Outcome carries per-scheme authorization detail on forbidden
	// responses.
	Outcome authz.Outcome `json:"outcome,omitempty"`
}

// Context key constants for passing decision data to audit middleware.
const (
	ContextKeyDecision = "authz.decision"
	ContextKeyOutcome  = "authz.outcome"
)

// Decision labels recorded on audit entries and metrics.
const (
	DecisionAllowed      = "allowed"
	DecisionUnauthorized = "unauthorized"
	DecisionForbidden    = "forbidden"
	DecisionNotFound     = "not_found"
	DecisionBadRequest   = "bad_request"
)

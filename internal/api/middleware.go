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
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/oaguard/oaguard/internal/authz"
)

// authorizationMiddleware resolves each request to an operation in the API
// description and enforces its security requirements before the request is
// proxied upstream.
func (s *Server) authorizationMiddleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			path := req.URL.Path

			for _, prefix := range s.appConfig.Server.Security.ExemptPaths {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			op, err := s.document.Resolve(req.Method, path)
			if err != nil {
				return s.deny(
					c,
					http.StatusNotFound,
					DecisionNotFound,
					"operation not found",
					nil,
				)
			}

			contentType := req.Header.Get(echo.HeaderContentType)
			if err := s.document.ValidateHeaders(op, contentType); err != nil {
				return s.deny(
					c,
					http.StatusBadRequest,
					DecisionBadRequest,
					err.Error(),
					nil,
				)
			}

			bodySchema := s.document.BodySchema(op, contentType)

			var body map[string]any
			if bodySchema != nil && req.Body != nil && req.Body != http.NoBody {
				data, readErr := io.ReadAll(req.Body)
				if readErr != nil {
					return s.deny(
						c,
						http.StatusBadRequest,
						DecisionBadRequest,
						"failed to read request body",
						nil,
					)
				}
				_ = req.Body.Close()

				// Restore the body so the proxy can replay it upstream.
				req.Body = io.NopCloser(bytes.NewReader(data))

				if len(data) > 0 {
					// Non-JSON bodies skip property presence checks.
					_ = json.Unmarshal(data, &body)
				}
			}

			outcome, err := s.coordinator.Check(
				req.Context(),
				op,
				bodySchema,
				body,
				req,
			)

			var forbidden *authz.ForbiddenError
			switch {
			case err == nil:
				c.Set(ContextKeyDecision, DecisionAllowed)
				if outcome != nil {
					c.Set(ContextKeyOutcome, outcome)
				}
				s.record(req.Context(), DecisionAllowed)
				return next(c)
			case errors.Is(err, authz.ErrUnauthorized):
				c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				return s.deny(
					c,
					http.StatusUnauthorized,
					DecisionUnauthorized,
					err.Error(),
					nil,
				)
			case errors.As(err, &forbidden):
				return s.deny(
					c,
					http.StatusForbidden,
					DecisionForbidden,
					forbidden.Error(),
					forbidden.Outcome,
				)
			default:
				return s.deny(
					c,
					http.StatusInternalServerError,
					DecisionBadRequest,
					"authorization check failed",
					nil,
				)
			}
		}
	}
}

// deny records the decision and renders the error response.
func (s *Server) deny(
	c echo.Context,
	status int,
	decision string,
	msg string,
	outcome authz.Outcome,
) error {
	c.Set(ContextKeyDecision, decision)
	if outcome != nil {
		c.Set(ContextKeyOutcome, outcome)
	}
	s.record(c.Request().Context(), decision)

	return c.JSON(status, ErrorResponse{
		Error:   msg,
		Outcome: outcome,
	})
}

// record increments the decisions counter with the decision label.
func (s *Server) record(
	ctx context.Context,
	decision string,
) {
	if s.decisions == nil {
		return
	}
	s.decisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("decision", decision),
	))
}

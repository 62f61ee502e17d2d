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
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/oaguard/oaguard/internal/audit"
	"github.com/oaguard/oaguard/internal/authz"
)

// excludedAuditPaths lists path prefixes that should not generate audit
// entries.
var excludedAuditPaths = []string{
	"/healthz",
}

// auditMiddleware returns Echo middleware that records audit entries for
// requests that reached the authorization pipeline. Writes are asynchronous
// to avoid adding latency.
func auditMiddleware(
	store audit.Store,
	logger *slog.Logger,
	metricsPath string,
) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			path := c.Request().URL.Path

			if metricsPath != "" && strings.HasPrefix(path, metricsPath) {
				return next(c)
			}
			for _, prefix := range excludedAuditPaths {
				if strings.HasPrefix(path, prefix) {
					return next(c)
				}
			}

			start := time.Now()

			err := next(c)

			// Only audit requests that produced a decision. Exempt paths
			// bypass the pipeline and leave no decision behind.
			decision, _ := c.Get(ContextKeyDecision).(string)
			if decision == "" {
				return err
			}

			outcome, _ := c.Get(ContextKeyOutcome).(authz.Outcome)

			entry := audit.Entry{
				ID:           uuid.New().String(),
				Timestamp:    start,
				Method:       c.Request().Method,
				Path:         path,
				SourceIP:     c.RealIP(),
				Decision:     decision,
				Outcome:      outcome,
				ResponseCode: c.Response().Status,
				DurationMs:   time.Since(start).Milliseconds(),
			}

			go func() {
				if writeErr := store.Write(context.Background(), entry); writeErr != nil {
					logger.Warn(
						"failed to write audit entry",
						slog.String("error", writeErr.Error()),
						slog.String("entry_id", entry.ID),
					)
				}
			}()

			return err
		}
	}
}

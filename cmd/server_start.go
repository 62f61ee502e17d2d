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

package cmd

import (
	"context"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/oaguard/oaguard/internal/api"
	"github.com/oaguard/oaguard/internal/audit"
	"github.com/oaguard/oaguard/internal/authz"
	"github.com/oaguard/oaguard/internal/authz/guard"
	"github.com/oaguard/oaguard/internal/cli"
	"github.com/oaguard/oaguard/internal/spec"
	"github.com/oaguard/oaguard/internal/telemetry"
)

// serverStartCmd represents the serverStart command.
var serverStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the gateway server",
	Long: `Start the authorizing gateway.

The gateway loads the configured OpenAPI document, builds a credential guard
for every security scheme it declares, and proxies authorized requests to the
upstream service. Startup fails when the document declares a scheme type no
guard supports.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		shutdownTracer, err := telemetry.InitTracer(
			ctx,
			"oaguard",
			appConfig.Telemetry.Tracing,
		)
		if err != nil {
			cli.LogFatal(logger, "failed to initialize tracer", err)
		}

		metricsHandler, metricsPath, shutdownMeter, err := telemetry.InitMeter(
			appConfig.Telemetry.Metrics,
		)
		if err != nil {
			cli.LogFatal(logger, "failed to initialize meter", err)
		}

		document, err := spec.Load(appFs, appConfig.Spec.Path)
		if err != nil {
			cli.LogFatal(logger, "failed to load api description", err,
				"path", appConfig.Spec.Path)
		}

		registry, err := guard.NewRegistry(
			ctx,
			logger.With("component", "guard"),
			document.SecuritySchemes(),
		)
		if err != nil {
			cli.LogFatal(logger, "failed to build guard registry", err)
		}

		logger.Info(
			"guards registered",
			slog.Any("schemes", registry.Names()),
		)

		coordinator := authz.New(logger.With("component", "authz"), registry)
		auditStore := audit.NewMemoryStore(audit.DefaultCapacity)

		server := api.New(
			appConfig,
			logger.With("component", "api"),
			api.WithDocument(document),
			api.WithCoordinator(coordinator),
			api.WithAuditStore(auditStore),
			api.WithMetricsHandler(metricsHandler, metricsPath),
		)
		if err := server.RegisterRoutes(); err != nil {
			cli.LogFatal(logger, "failed to register routes", err)
		}

		cli.Serve(ctx, server, func() {
			_ = shutdownMeter(context.Background())
			_ = shutdownTracer(context.Background())
		})
	},
}

func init() {
	serverCmd.AddCommand(serverStartCmd)
}

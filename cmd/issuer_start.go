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
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	slogecho "github.com/samber/slog-echo"
	"github.com/spf13/cobra"

	"github.com/oaguard/oaguard/internal/cli"
)

// issuerService adapts an Echo instance serving the issuer endpoints to
// the cli.Service interface.
type issuerService struct {
	echo   *echo.Echo
	logger *slog.Logger
	port   int
}

func (l *issuerService) Start() {
	go func() {
		l.logger.Info("starting issuer")
		listenAddr := fmt.Sprintf(":%d", l.port)
		if err := l.echo.Start(listenAddr); err != nil && err != http.ErrServerClosed {
			l.logger.Error(
				"failed to start issuer",
				slog.String("error", err.Error()),
			)
		}
	}()
}

func (l *issuerService) Stop(
	ctx context.Context,
) {
	l.logger.Info("stopping issuer")

	if err := l.echo.Shutdown(ctx); err != nil {
		l.logger.Error(
			"issuer shutdown failed",
			slog.String("error", err.Error()),
		)
	}
}

// issuerStartCmd represents the issuerStart command.
var issuerStartCmd = &cobra.Command{
	Use:   "start",
	Short: "Start the development token issuer",
	Long: `Start a self-contained OpenID Connect issuer for development.

The issuer serves a discovery document and a JWKS endpoint backed by a local
RSA key, generating the key on first start. Tokens minted with "token
generate" verify against it.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		ctx := cmd.Context()

		issuer, err := newIssuer()
		if err != nil {
			cli.LogFatal(logger, "failed to initialize issuer", err,
				"keyFile", appConfig.Issuer.KeyFile)
		}

		e := echo.New()
		e.HideBanner = true
		e.Use(slogecho.New(logger))
		e.Use(middleware.Recover())

		issuer.Register(e)

		logger.Info(
			"issuer ready",
			slog.String("discovery", issuer.DiscoveryURL()),
		)

		svc := &issuerService{
			echo:   e,
			logger: logger.With("component", "issuer"),
			port:   appConfig.Issuer.Port,
		}

		cli.Serve(ctx, svc)
	},
}

func init() {
	issuerCmd.AddCommand(issuerStartCmd)
}

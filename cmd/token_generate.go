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
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oaguard/oaguard/internal/cli"
)

// defaultTokenTTL is used when no TTL is configured or passed.
const defaultTokenTTL = time.Hour

// tokenGenerateCmd represents the tokenGenerate command.
var tokenGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new token",
	Long: `Generate a development token signed by the local issuer key.

The token carries the subject and a flat permissions claim, and verifies
against the issuer started with "issuer start".
`,
	Run: func(cmd *cobra.Command, _ []string) {
		subject, _ := cmd.Flags().GetString("subject")
		permissions, _ := cmd.Flags().GetStringSlice("permissions")
		ttlFlag, _ := cmd.Flags().GetString("ttl")

		ttl := defaultTokenTTL
		ttlStr := ttlFlag
		if ttlStr == "" {
			ttlStr = appConfig.Issuer.TTL
		}
		if ttlStr != "" {
			parsed, err := time.ParseDuration(ttlStr)
			if err != nil {
				cli.LogFatal(logger, "invalid ttl", err, "ttl", ttlStr)
			}
			ttl = parsed
		}

		issuer, err := newIssuer()
		if err != nil {
			cli.LogFatal(logger, "failed to initialize issuer", err,
				"keyFile", appConfig.Issuer.KeyFile)
		}

		token, err := issuer.Mint(subject, permissions, ttl)
		if err != nil {
			cli.LogFatal(logger, "failed to generate token", err)
		}

		logger.Info(
			"generated token",
			slog.String("token", token),
			slog.String("subject", subject),
		)
		if len(permissions) > 0 {
			logger.Info(
				"token permissions",
				slog.String("permissions", strings.Join(permissions, ",")),
			)
		}
	},
}

func init() {
	tokenCmd.AddCommand(tokenGenerateCmd)

	tokenGenerateCmd.PersistentFlags().
		StringP("subject", "u", "", "Subject for the token (e.g., user ID or unique identifier)")
	tokenGenerateCmd.PersistentFlags().
		StringSliceP("permissions", "p", []string{}, "Permissions granted to the token")
	tokenGenerateCmd.PersistentFlags().
		StringP("ttl", "t", "", "Token lifetime (e.g. 1h, 30m); overrides the configured TTL")

	_ = tokenGenerateCmd.MarkPersistentFlagRequired("subject")
}

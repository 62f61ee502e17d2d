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
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/oaguard/oaguard/internal/cli"
)

// tokenValidateCmd represents the tokenValidate command.
var tokenValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a token for authenticity and claims",
	Long: `Validate a development token by checking its signature and expiration
against the local issuer key, then print its claims.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		tokenString, _ := cmd.Flags().GetString("token")

		issuer, err := newIssuer()
		if err != nil {
			cli.LogFatal(logger, "failed to initialize issuer", err,
				"keyFile", appConfig.Issuer.KeyFile)
		}

		claims, err := issuer.Validate(tokenString)
		if err != nil {
			cli.LogFatal(logger, "failed to validate token", err)
		}

		subject, _ := claims["sub"].(string)

		var permissions []string
		if raw, ok := claims["permissions"].([]any); ok {
			for _, p := range raw {
				if s, ok := p.(string); ok {
					permissions = append(permissions, s)
				}
			}
		}

		fmt.Println()
		cli.PrintKV("Subject", subject, "Permissions", strings.Join(permissions, ", "))
		cli.PrintKV(
			"Issued", claimTime(claims["iat"]),
			"Expires", claimTime(claims["exp"]),
		)
	},
}

// claimTime renders a numeric JWT timestamp claim as RFC 3339.
func claimTime(
	claim any,
) string {
	seconds, ok := claim.(float64)
	if !ok {
		return ""
	}
	return time.Unix(int64(seconds), 0).UTC().Format(time.RFC3339)
}

func init() {
	tokenCmd.AddCommand(tokenValidateCmd)

	tokenValidateCmd.PersistentFlags().StringP("token", "t", "", "The Token string")

	_ = tokenValidateCmd.MarkPersistentFlagRequired("token")
}

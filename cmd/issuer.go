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

	"github.com/spf13/cobra"

	"github.com/oaguard/oaguard/internal/devissuer"
)

// issuerCmd represents the issuer command.
var issuerCmd = &cobra.Command{
	Use:   "issuer",
	Short: "The development token issuer",
}

func init() {
	rootCmd.AddCommand(issuerCmd)
}

// issuerURL returns the configured issuer URL, defaulting to localhost with
// the configured port.
func issuerURL() string {
	if appConfig.Issuer.URL != "" {
		return appConfig.Issuer.URL
	}
	return fmt.Sprintf("http://localhost:%d", appConfig.Issuer.Port)
}

// newIssuer loads or creates the signing key and builds the issuer.
func newIssuer() (*devissuer.Issuer, error) {
	key, err := devissuer.LoadOrCreateKey(appFs, appConfig.Issuer.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load signing key: %w", err)
	}

	return devissuer.New(
		logger.With("component", "issuer"),
		issuerURL(),
		key,
	), nil
}

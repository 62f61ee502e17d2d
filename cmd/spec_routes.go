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
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oaguard/oaguard/internal/cli"
	"github.com/oaguard/oaguard/internal/spec"
)

// specRoutesCmd represents the specRoutes command.
var specRoutesCmd = &cobra.Command{
	Use:   "routes",
	Short: "List operations declared in the OpenAPI document",
	Long: `List every operation the gateway resolves requests against, in matching
order, with the security schemes each one references.
`,
	Run: func(cmd *cobra.Command, _ []string) {
		document, err := spec.Load(appFs, appConfig.Spec.Path)
		if err != nil {
			cli.LogFatal(logger, "failed to load api description", err,
				"path", appConfig.Spec.Path)
		}

		routes := document.Routes()

		if jsonOutput {
			data, err := json.MarshalIndent(routes, "", "  ")
			if err != nil {
				cli.LogFatal(logger, "failed to marshal routes", err)
			}
			fmt.Println(string(data))
			return
		}

		rows := make([][]string, 0, len(routes))
		for _, route := range routes {
			rows = append(rows, []string{
				route.Method,
				route.Path,
				cli.FormatList(route.Schemes),
			})
		}

		cli.PrintCompactTable([]cli.Section{
			{
				Title:   "Routes",
				Headers: []string{"METHOD", "PATH", "SCHEMES"},
				Rows:    rows,
			},
		})

		fmt.Printf("\n  %s\n", cli.DimStyle.Render(fmt.Sprintf("%d operations", len(routes))))
	},
}

func init() {
	specCmd.AddCommand(specRoutesCmd)
}

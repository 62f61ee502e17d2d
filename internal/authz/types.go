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

// Package authz derives permission requirements from OpenAPI operations and
// renders per-request authorization decisions.
package authz

// Outcome maps scheme names to their per-request evaluation results. Built
// fresh per request; consumed by the host pipeline for the response and the
// audit trail.
type Outcome map[string]SchemeResult

// SchemeResult is the evaluation result for one security scheme.
// Authorized means a credential was verified under the scheme; Authenticated
// means the credential also carries every required permission.
type SchemeResult struct {
	Authorized    bool             `json:"authorized"`
	Authenticated bool             `json:"authenticated"`
	Permissions   PermissionReport `json:"permissions"`
}

// PermissionReport details granted versus required permissions for one scheme.
type PermissionReport struct {
	Granted  []string      `json:"granted"`
	Required PermissionSet `json:"required"`
	Missing  PermissionSet `json:"missing"`
}

// PermissionSet groups permissions required at the operation level and at
// the level of individual request-body properties.
type PermissionSet struct {
	ForOperation []string             `json:"for_operation"`
	ForProperty  []PropertyPermission `json:"for_property"`
}

// PropertyPermission binds a dotted request-body property path to the
// permissions it requires.
type PropertyPermission struct {
	Path        string   `json:"path"`
	Permissions []string `json:"permissions"`
}

// Authorized reports whether any scheme in the outcome verified a credential.
func (o Outcome) Authorized() bool {
	for _, res := range o {
		if res.Authorized {
			return true
		}
	}

	return false
}

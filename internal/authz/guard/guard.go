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

// Package guard implements pluggable credential verification strategies,
// one per named security scheme.
package guard

import (
	"context"
	"net/http"
)

// Result is an opaque, guard-specific verification result. Results are never
// shared across guards and never persisted beyond the request.
type Result any

// Guard authenticates requests against one named security scheme.
// Implementations are safe for concurrent use after construction.
type Guard interface {
	// CanHandle is a cheap, side-effect-free check for whether the request
	// carries a credential this guard can evaluate.
	CanHandle(r *http.Request) bool

	// Authenticate verifies every credential the request carries for this
	// scheme. Verification failures are logged and surface as a missing
	// result, never as an error, so one unusable credential cannot abort
	// evaluation of other guards.
	Authenticate(ctx context.Context, r *http.Request) []Result

	// Permissions flattens granted permissions across verified results.
	Permissions(results []Result) []string
}

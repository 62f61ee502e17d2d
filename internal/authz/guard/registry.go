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

package guard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
)

// ErrUnsupportedSchemeType indicates a declared security scheme uses an
// authentication type no guard implementation supports. Raised at load time,
// never per request.
var ErrUnsupportedSchemeType = errors.New("unsupported security scheme type")

// schemeTypeOpenIDConnect is the only security scheme type currently
// supported.
const schemeTypeOpenIDConnect = "openIdConnect"

// Registry holds one guard per declared security scheme. Read-only after
// construction; safe to share across concurrent requests.
type Registry struct {
	guards map[string]Guard
}

// NewRegistry constructs and initializes a guard for every declared scheme.
// Unknown scheme types fail fast.
func NewRegistry(
	ctx context.Context,
	logger *slog.Logger,
	schemes map[string]*openapi3.SecurityScheme,
) (*Registry, error) {
	guards := make(map[string]Guard, len(schemes))

	for name, scheme := range schemes {
		switch scheme.Type {
		case schemeTypeOpenIDConnect:
			g, err := NewOIDC(ctx, logger, name, scheme)
			if err != nil {
				return nil, fmt.Errorf("initializing guard for scheme %q: %w", name, err)
			}

			guards[name] = g
		default:
			return nil, fmt.Errorf("%w: %q (scheme %q)", ErrUnsupportedSchemeType, scheme.Type, name)
		}
	}

	return &Registry{guards: guards}, nil
}

// NewStaticRegistry wraps pre-built guards, bypassing scheme construction.
func NewStaticRegistry(
	guards map[string]Guard,
) *Registry {
	return &Registry{guards: guards}
}

// Get returns the guard registered for the scheme name.
func (r *Registry) Get(
	name string,
) (Guard, bool) {
	g, ok := r.guards[name]

	return g, ok
}

// Names returns the registered scheme names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.guards))
	for name := range r.guards {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

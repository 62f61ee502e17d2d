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

// Package spec indexes a resolved OpenAPI document for request-time
// operation lookup.
package spec

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/spf13/afero"
)

// Document wraps a fully dereferenced OpenAPI document with a precomputed,
// ordered path index. Immutable after construction.
type Document struct {
	doc       *openapi3.T
	basePaths []string
	index     []pathEntry
}

// Load reads and parses the OpenAPI document at path.
func Load(
	appFs afero.Fs,
	path string,
) (*Document, error) {
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return nil, fmt.Errorf("reading spec file: %w", err)
	}

	loader := openapi3.NewLoader()

	doc, err := loader.LoadFromData(data)
	if err != nil {
		return nil, fmt.Errorf("parsing spec file: %w", err)
	}

	return New(doc)
}

// New indexes an already-loaded document. The document must be fully
// dereferenced; kin-openapi resolves internal references during load.
func New(
	doc *openapi3.T,
) (*Document, error) {
	d := &Document{
		doc:       doc,
		basePaths: basePaths(doc),
	}

	if err := d.buildIndex(); err != nil {
		return nil, err
	}

	return d, nil
}

// BasePaths returns the distinct base path prefixes derived from the
// document's server URLs.
func (d *Document) BasePaths() []string {
	return d.basePaths
}

// SecuritySchemes returns the declared security schemes by name.
func (d *Document) SecuritySchemes() map[string]*openapi3.SecurityScheme {
	schemes := map[string]*openapi3.SecurityScheme{}

	if d.doc.Components == nil {
		return schemes
	}

	for name, ref := range d.doc.Components.SecuritySchemes {
		if ref != nil && ref.Value != nil {
			schemes[name] = ref.Value
		}
	}

	return schemes
}

// basePaths derives the unique server URL path prefixes. A document without
// servers gets the root prefix.
func basePaths(
	doc *openapi3.T,
) []string {
	seen := map[string]bool{}
	paths := []string{}

	for _, srv := range doc.Servers {
		u, err := url.Parse(srv.URL)
		if err != nil {
			continue
		}

		p := u.Path
		if p == "" {
			p = "/"
		}

		if !seen[p] {
			seen[p] = true
			paths = append(paths, p)
		}
	}

	if len(paths) == 0 {
		paths = append(paths, "/")
	}

	return paths
}

// joinPath combines a base path prefix and a path template.
func joinPath(
	basePath string,
	template string,
) string {
	return strings.TrimRight(basePath, "/") + "/" + strings.TrimLeft(template, "/")
}

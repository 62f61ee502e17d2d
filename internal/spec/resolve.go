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

package spec

import (
	"fmt"
	"mime"
	"regexp"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// pathEntry pairs a compiled path matcher with its path item. The index is
// an ordered slice so resolution stays deterministic.
type pathEntry struct {
	template string
	pattern  *regexp.Regexp
	item     *openapi3.PathItem
}

// paramSegment matches a {name} template parameter.
var paramSegment = regexp.MustCompile(`\{([^/{}]+)\}`)

// buildIndex compiles one matcher per (base path, path template) pair.
// Templates are ordered concrete-first via InMatchingOrder, so overlapping
// templates resolve deterministically.
func (d *Document) buildIndex() error {
	if d.doc.Paths == nil {
		return nil
	}

	for _, template := range d.doc.Paths.InMatchingOrder() {
		item := d.doc.Paths.Find(template)
		if item == nil {
			continue
		}

		for _, basePath := range d.basePaths {
			full := joinPath(basePath, template)

			pattern, err := compileTemplate(full)
			if err != nil {
				return fmt.Errorf("compiling path template %q: %w", full, err)
			}

			d.index = append(d.index, pathEntry{
				template: full,
				pattern:  pattern,
				item:     item,
			})
		}
	}

	return nil
}

// compileTemplate translates an OpenAPI path template into a case-insensitive
// anchored regexp. Parameters capture a single path segment.
func compileTemplate(
	template string,
) (*regexp.Regexp, error) {
	var b strings.Builder
	b.WriteString("(?i)^")

	last := 0
	for _, loc := range paramSegment.FindAllStringSubmatchIndex(template, -1) {
		b.WriteString(regexp.QuoteMeta(template[last:loc[0]]))

		name := template[loc[2]:loc[3]]
		fmt.Fprintf(&b, "(?P<%s>[^/]+)", name)

		last = loc[1]
	}

	b.WriteString(regexp.QuoteMeta(template[last:]))
	b.WriteString("$")

	return regexp.Compile(b.String())
}

// Resolve finds the operation declared for the given method and request path.
// Matchers are consulted in index order; a path match that lacks the method
// falls through to later entries. Returns ErrOperationNotFound when nothing
// matches.
func (d *Document) Resolve(
	method string,
	path string,
) (*openapi3.Operation, error) {
	for _, entry := range d.index {
		if !entry.pattern.MatchString(path) {
			continue
		}

		if op := entry.item.GetOperation(strings.ToUpper(method)); op != nil {
			return op, nil
		}
	}

	return nil, fmt.Errorf("%w: %s %s", ErrOperationNotFound, method, path)
}

// PathParams extracts named template parameters from a request path using
// the first matching index entry.
func (d *Document) PathParams(
	path string,
) map[string]string {
	for _, entry := range d.index {
		m := entry.pattern.FindStringSubmatch(path)
		if m == nil {
			continue
		}

		params := map[string]string{}
		for i, name := range entry.pattern.SubexpNames() {
			if i > 0 && name != "" {
				params[name] = m[i]
			}
		}

		return params
	}

	return nil
}

// ValidateHeaders checks the request content-type against the operation's
// declared request body. A content-type on a body-less operation returns
// ErrBadHeader; an undeclared media type returns ErrBadContentType.
func (d *Document) ValidateHeaders(
	op *openapi3.Operation,
	contentType string,
) error {
	mediaType := normalizeMediaType(contentType)

	if op.RequestBody == nil || op.RequestBody.Value == nil {
		if mediaType != "" {
			return fmt.Errorf("%w: %s", ErrBadHeader, mediaType)
		}

		return nil
	}

	if op.RequestBody.Value.Content[mediaType] == nil {
		return fmt.Errorf("%w: %s", ErrBadContentType, mediaType)
	}

	return nil
}

// BodySchema returns the request body schema registered for the content
// type, or nil when the operation declares no matching body.
func (d *Document) BodySchema(
	op *openapi3.Operation,
	contentType string,
) *openapi3.Schema {
	if op.RequestBody == nil || op.RequestBody.Value == nil {
		return nil
	}

	media := op.RequestBody.Value.Content[normalizeMediaType(contentType)]
	if media == nil || media.Schema == nil {
		return nil
	}

	return media.Schema.Value
}

// normalizeMediaType strips parameters such as charset from a content-type
// header value.
func normalizeMediaType(
	contentType string,
) string {
	if contentType == "" {
		return ""
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}

	return mediaType
}

// Route describes one declared operation for listing purposes.
type Route struct {
	Method   string
	Path     string
	Schemes  []string
	Security openapi3.SecurityRequirements
}

// Routes lists every declared operation in index order.
func (d *Document) Routes() []Route {
	routes := []Route{}

	for _, entry := range d.index {
		for method, op := range entry.item.Operations() {
			route := Route{
				Method: method,
				Path:   entry.template,
			}

			if op.Security != nil {
				route.Security = *op.Security

				seen := map[string]bool{}
				for _, req := range *op.Security {
					for name := range req {
						if !seen[name] {
							seen[name] = true
							route.Schemes = append(route.Schemes, name)
						}
					}
				}
				sort.Strings(route.Schemes)
			}

			routes = append(routes, route)
		}
	}

	return routes
}

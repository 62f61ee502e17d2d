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

package authz

import (
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"
)

// SecurityExtension is the schema extension keyword carrying property-level
// security requirements.
const SecurityExtension = "x-security"

// Requirement is one security requirement object: scheme name to the
// permissions that scheme must grant. Every scheme in one requirement must
// be satisfied together; separate requirements are alternatives.
type Requirement map[string][]string

// SchemeNames returns the requirement's scheme names in sorted order.
func (r Requirement) SchemeNames() []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

// OperationRequirements returns the operation's security requirement objects
// in declaration order. An operation without security yields an empty slice,
// meaning the operation is publicly accessible.
func OperationRequirements(
	op *openapi3.Operation,
) []Requirement {
	if op == nil || op.Security == nil {
		return nil
	}

	reqs := make([]Requirement, 0, len(*op.Security))
	for _, sec := range *op.Security {
		req := Requirement{}
		for name, perms := range sec {
			req[name] = perms
		}

		reqs = append(reqs, req)
	}

	return reqs
}

// PropertyPermissions walks a request-body schema collecting x-security
// annotations at arbitrary nesting depth. The result maps scheme names to
// dotted property paths and their required permissions. Object nesting joins
// property names with dots; array element properties keep the parent path.
func PropertyPermissions(
	schema *openapi3.Schema,
) map[string][]PropertyPermission {
	found := map[string][]PropertyPermission{}
	if schema == nil {
		return found
	}

	onStack := map[*openapi3.Schema]bool{}
	walkSchema(schema, nil, onStack, found)

	return found
}

// walkSchema recurses through properties, array items, and composition
// keywords. The schema tree is treated as immutable. Dereferenced documents
// alias shared schemas: a schema referenced from two properties must be
// walked once per dotted path, so cycles are detected against the current
// recursion stack only — marked on entry, unmarked on exit.
func walkSchema(
	schema *openapi3.Schema,
	path []string,
	onStack map[*openapi3.Schema]bool,
	found map[string][]PropertyPermission,
) {
	if schema == nil || onStack[schema] {
		return
	}
	onStack[schema] = true
	defer delete(onStack, schema)

	if ext, ok := schema.Extensions[SecurityExtension]; ok && len(path) > 0 {
		for name, perms := range parseSecurityExtension(ext) {
			found[name] = append(found[name], PropertyPermission{
				Path:        strings.Join(path, "."),
				Permissions: perms,
			})
		}
	}

	names := make([]string, 0, len(schema.Properties))
	for name := range schema.Properties {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if ref := schema.Properties[name]; ref != nil {
			childPath := make([]string, len(path), len(path)+1)
			copy(childPath, path)

			walkSchema(ref.Value, append(childPath, name), onStack, found)
		}
	}

	if schema.Items != nil {
		walkSchema(schema.Items.Value, path, onStack, found)
	}

	for _, refs := range [][]*openapi3.SchemaRef{schema.AllOf, schema.AnyOf, schema.OneOf} {
		for _, ref := range refs {
			if ref != nil {
				walkSchema(ref.Value, path, onStack, found)
			}
		}
	}
}

// parseSecurityExtension decodes the extension value: a list of security
// requirement objects, each mapping a scheme name to permission strings.
// Malformed entries are skipped.
func parseSecurityExtension(
	ext any,
) map[string][]string {
	parsed := map[string][]string{}

	list, ok := ext.([]any)
	if !ok {
		return parsed
	}

	for _, item := range list {
		req, ok := item.(map[string]any)
		if !ok {
			continue
		}

		for name, raw := range req {
			values, ok := raw.([]any)
			if !ok {
				continue
			}

			for _, v := range values {
				if s, ok := v.(string); ok {
					parsed[name] = append(parsed[name], s)
				}
			}

			if _, ok := parsed[name]; !ok {
				parsed[name] = []string{}
			}
		}
	}

	return parsed
}

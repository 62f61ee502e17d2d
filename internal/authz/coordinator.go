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
	"context"
	"log/slog"
	"net/http"
	"sort"
	"strings"

	"github.com/getkin/kin-openapi/openapi3"

	"github.com/oaguard/oaguard/internal/authz/guard"
)

// GuardRegistry looks up the guard registered for a scheme name.
type GuardRegistry interface {
	Get(name string) (guard.Guard, bool)
}

// Coordinator renders authorization decisions for resolved operations.
// Stateless per call; safe for concurrent reuse.
type Coordinator struct {
	logger   *slog.Logger
	registry GuardRegistry
}

// New factory to create a new instance.
func New(
	logger *slog.Logger,
	registry GuardRegistry,
) *Coordinator {
	return &Coordinator{
		logger:   logger,
		registry: registry,
	}
}

// Check evaluates the request against the operation's security requirements
// and the body schema's property-level annotations.
//
// Requirement objects are alternatives: the first one whose schemes are all
// authenticated short-circuits evaluation and permits the request. Within a
// single requirement object every scheme must be satisfied. Schemes
// referenced only by property annotations act as singleton alternatives.
//
// A nil outcome with a nil error means the operation is public. A non-nil
// error is ErrUnauthorized when no credential verified at all, or a
// *ForbiddenError carrying the full outcome map when credentials verified
// but no alternative was satisfied.
func (c *Coordinator) Check(
	ctx context.Context,
	op *openapi3.Operation,
	bodySchema *openapi3.Schema,
	body map[string]any,
	r *http.Request,
) (Outcome, error) {
	propPerms := PropertyPermissions(bodySchema)
	alternatives := OperationRequirements(op)

	declared := map[string]bool{}
	for _, alt := range alternatives {
		for name := range alt {
			declared[name] = true
		}
	}

	// Schemes referenced only by property annotations become their own
	// alternatives, in sorted order for determinism.
	propOnly := []string{}
	for name := range propPerms {
		if !declared[name] {
			propOnly = append(propOnly, name)
		}
	}
	sort.Strings(propOnly)

	for _, name := range propOnly {
		alternatives = append(alternatives, Requirement{name: nil})
	}

	if len(alternatives) == 0 {
		return nil, nil
	}

	outcome := Outcome{}
	evals := map[string]*schemeEvaluation{}

	for _, alt := range alternatives {
		// An empty requirement object means authentication is optional for
		// this alternative.
		if len(alt) == 0 {
			return outcome, nil
		}

		satisfied := true
		for _, name := range alt.SchemeNames() {
			// Required permissions come from this requirement object: the
			// same scheme may demand different permissions per alternative.
			res, handled := c.evaluateScheme(
				ctx,
				name,
				alt[name],
				propPerms[name],
				body,
				r,
				evals,
			)
			if !handled {
				satisfied = false

				continue
			}

			outcome[name] = res
			if !res.Authenticated {
				satisfied = false
			}
		}

		if satisfied {
			return outcome, nil
		}
	}

	if !outcome.Authorized() {
		return outcome, ErrUnauthorized
	}

	return outcome, &ForbiddenError{Outcome: outcome}
}

// schemeEvaluation memoizes the guard-side work for one scheme: whether the
// guard could evaluate the request, whether any credential verified, and the
// granted permissions. Requirement-specific permission checks are recomputed
// per alternative on top of it.
type schemeEvaluation struct {
	handled    bool
	authorized bool
	granted    []string
}

// evaluateScheme judges one scheme against one requirement object's
// permissions. The guard itself runs at most once per request; the returned
// bool is false when the scheme's guard is missing or cannot handle the
// request, in which case the scheme is excluded from the outcome entirely:
// it neither authorizes nor blocks.
func (c *Coordinator) evaluateScheme(
	ctx context.Context,
	name string,
	opPerms []string,
	propPerms []PropertyPermission,
	body map[string]any,
	r *http.Request,
	evals map[string]*schemeEvaluation,
) (SchemeResult, bool) {
	eval, ok := evals[name]
	if !ok {
		eval = c.runGuard(ctx, name, r)
		evals[name] = eval
	}

	if !eval.handled {
		return SchemeResult{}, false
	}

	required := PermissionSet{
		ForOperation: opPerms,
		ForProperty:  presentProperties(propPerms, body),
	}

	if !eval.authorized {
		return SchemeResult{
			Authorized:    false,
			Authenticated: false,
			Permissions: PermissionReport{
				Granted:  []string{},
				Required: required,
				Missing:  required,
			},
		}, true
	}

	missing := PermissionSet{
		ForOperation: difference(required.ForOperation, eval.granted),
	}

	for _, prop := range required.ForProperty {
		if m := difference(prop.Permissions, eval.granted); len(m) > 0 {
			missing.ForProperty = append(missing.ForProperty, PropertyPermission{
				Path:        prop.Path,
				Permissions: m,
			})
		}
	}

	return SchemeResult{
		Authorized:    true,
		Authenticated: len(missing.ForOperation) == 0 && len(missing.ForProperty) == 0,
		Permissions: PermissionReport{
			Granted:  eval.granted,
			Required: required,
			Missing:  missing,
		},
	}, true
}

// runGuard performs the per-request guard work for one scheme.
func (c *Coordinator) runGuard(
	ctx context.Context,
	name string,
	r *http.Request,
) *schemeEvaluation {
	g, ok := c.registry.Get(name)
	if !ok {
		c.logger.Warn(
			"no guard registered for scheme",
			slog.String("scheme", name),
		)

		return &schemeEvaluation{}
	}

	if !g.CanHandle(r) {
		return &schemeEvaluation{}
	}

	results := g.Authenticate(ctx, r)
	if len(results) == 0 {
		return &schemeEvaluation{handled: true}
	}

	return &schemeEvaluation{
		handled:    true,
		authorized: true,
		granted:    g.Permissions(results),
	}
}

// presentProperties keeps only the property requirements whose paths exist
// in the submitted body. Permissions declared on absent properties are
// irrelevant for the request.
func presentProperties(
	props []PropertyPermission,
	body map[string]any,
) []PropertyPermission {
	if len(props) == 0 || body == nil {
		return nil
	}

	present := []PropertyPermission{}
	for _, prop := range props {
		if hasBodyPath(body, strings.Split(prop.Path, ".")) {
			present = append(present, prop)
		}
	}

	return present
}

// hasBodyPath walks dotted path segments through nested maps. Arrays match
// when any element satisfies the remaining segments.
func hasBodyPath(
	node any,
	segments []string,
) bool {
	if len(segments) == 0 {
		return true
	}

	switch v := node.(type) {
	case map[string]any:
		child, ok := v[segments[0]]
		if !ok {
			return false
		}

		return hasBodyPath(child, segments[1:])
	case []any:
		for _, item := range v {
			if hasBodyPath(item, segments) {
				return true
			}
		}

		return false
	default:
		return false
	}
}

// difference returns the elements of required not present in granted,
// preserving the order of required.
func difference(
	required []string,
	granted []string,
) []string {
	grantedSet := make(map[string]bool, len(granted))
	for _, g := range granted {
		grantedSet[g] = true
	}

	missing := []string{}
	for _, req := range required {
		if !grantedSet[req] {
			missing = append(missing, req)
		}
	}

	return missing
}

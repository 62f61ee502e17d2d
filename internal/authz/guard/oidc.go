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
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/getkin/kin-openapi/openapi3"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	// discoverySuffix is the well-known discovery document path; OpenAPI
	// openIdConnectUrl values include it, go-oidc issuer URLs must not.
	discoverySuffix = "/.well-known/openid-configuration"

	// cacheSize bounds the verification cache; least-recently-used entries
	// are evicted beyond it.
	cacheSize = 100

	// cacheTTL is how long a verification result, positive or negative,
	// stays valid.
	cacheTTL = 5 * time.Minute

	bearerPrefix = "bearer"
)

// Claims are the token claims the authorization model consumes.
type Claims struct {
	// Subject is the verified credential's subject identifier.
	Subject string `json:"sub"`
	// Permissions is the flat permission claim on the token payload.
	Permissions []string `json:"permissions"`
}

// verification is a cache entry; nil claims marks a definitive failure so
// repeated requests carrying the same invalid token skip re-verification
// until the entry expires.
type verification struct {
	claims *Claims
}

// OIDC authenticates bearer tokens against an issuer discovered from the
// scheme's openIdConnectUrl, verifying signatures with the issuer's remote
// key set.
type OIDC struct {
	name     string
	logger   *slog.Logger
	verifier *oidc.IDTokenVerifier
	cache    *expirable.LRU[string, verification]
}

// NewOIDC discovers the issuer and prepares the verifier and verification
// cache. Discovery is the only outbound call at construction time; key-set
// fetches happen lazily on first verification.
func NewOIDC(
	ctx context.Context,
	logger *slog.Logger,
	name string,
	scheme *openapi3.SecurityScheme,
) (*OIDC, error) {
	if scheme.OpenIdConnectUrl == "" {
		return nil, fmt.Errorf("scheme %q: openIdConnectUrl is required", name)
	}

	issuer := strings.TrimSuffix(scheme.OpenIdConnectUrl, "/")
	issuer = strings.TrimSuffix(issuer, discoverySuffix)
	issuer = strings.TrimSuffix(issuer, "/")

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return nil, fmt.Errorf("discovering issuer %q: %w", issuer, err)
	}

	// Tokens are authorized by the permissions claim, not by audience.
	verifier := provider.Verifier(&oidc.Config{SkipClientIDCheck: true})

	return &OIDC{
		name:     name,
		logger:   logger,
		verifier: verifier,
		cache:    expirable.NewLRU[string, verification](cacheSize, nil, cacheTTL),
	}, nil
}

// CanHandle reports whether the request carries at least one bearer
// credential in its authorization header.
func (g *OIDC) CanHandle(
	r *http.Request,
) bool {
	return len(g.bearerTokens(r)) > 0
}

// Authenticate verifies each bearer token independently. Results are cached
// per raw token with a fixed TTL; failures are cached as definitive
// negatives and surface as missing results.
func (g *OIDC) Authenticate(
	ctx context.Context,
	r *http.Request,
) []Result {
	results := []Result{}

	for _, raw := range g.bearerTokens(r) {
		if cached, ok := g.cache.Get(raw); ok {
			if cached.claims != nil {
				results = append(results, cached.claims)
			}

			continue
		}

		claims, err := g.verify(ctx, raw)
		if err != nil {
			g.logger.Debug(
				"token verification failed",
				slog.String("scheme", g.name),
				slog.String("error", err.Error()),
			)
			g.cache.Add(raw, verification{})

			continue
		}

		g.cache.Add(raw, verification{claims: claims})
		results = append(results, claims)
	}

	return results
}

// Permissions returns the union of permission claims across verified tokens.
// Duplicates are left as-is; comparisons downstream are set differences.
func (g *OIDC) Permissions(
	results []Result,
) []string {
	perms := []string{}

	for _, res := range results {
		if claims, ok := res.(*Claims); ok {
			perms = append(perms, claims.Permissions...)
		}
	}

	return perms
}

// verify checks one raw token against the issuer's key set and extracts
// its claims.
func (g *OIDC) verify(
	ctx context.Context,
	raw string,
) (*Claims, error) {
	idToken, err := g.verifier.Verify(ctx, raw)
	if err != nil {
		return nil, err
	}

	var claims Claims
	if err := idToken.Claims(&claims); err != nil {
		return nil, fmt.Errorf("extracting claims: %w", err)
	}

	return &claims, nil
}

// bearerTokens splits the authorization header on commas and returns every
// bearer-prefixed credential. A single header may carry multiple tokens.
func (g *OIDC) bearerTokens(
	r *http.Request,
) []string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil
	}

	var tokens []string
	for _, part := range strings.Split(header, ",") {
		part = strings.TrimSpace(part)
		if len(part) <= len(bearerPrefix) {
			continue
		}

		if !strings.EqualFold(part[:len(bearerPrefix)], bearerPrefix) {
			continue
		}

		if token := strings.TrimSpace(part[len(bearerPrefix):]); token != "" {
			tokens = append(tokens, token)
		}
	}

	return tokens
}

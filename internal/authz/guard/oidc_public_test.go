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

package guard_test

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/oaguard/oaguard/internal/authz/guard"
	"github.com/oaguard/oaguard/internal/devissuer"
)

// issuerFixture runs a local OIDC issuer over httptest for guard tests.
// rotate swaps in a second issuer with a different signing key behind the
// same URL, so cached verdicts can be told apart from fresh verifications.
type issuerFixture struct {
	issuer *devissuer.Issuer
	next   *devissuer.Issuer
	scheme *openapi3.SecurityScheme
	rotate func()
}

func newIssuerFixture(
	t *testing.T,
) *issuerFixture {
	t.Helper()

	var (
		mu      sync.Mutex
		current http.Handler
	)

	server := httptest.NewServer(http.HandlerFunc(func(
		w http.ResponseWriter,
		r *http.Request,
	) {
		mu.Lock()
		h := current
		mu.Unlock()

		h.ServeHTTP(w, r)
	}))
	t.Cleanup(server.Close)

	newIssuer := func() (*devissuer.Issuer, http.Handler) {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		assert.NoError(t, err)

		e := echo.New()
		e.HideBanner = true

		issuer := devissuer.New(slog.Default(), server.URL, key)
		issuer.Register(e)

		return issuer, e
	}

	issuer, handler := newIssuer()
	next, nextHandler := newIssuer()
	current = handler

	return &issuerFixture{
		issuer: issuer,
		next:   next,
		scheme: &openapi3.SecurityScheme{
			Type:             "openIdConnect",
			OpenIdConnectUrl: issuer.DiscoveryURL(),
		},
		rotate: func() {
			mu.Lock()
			current = nextHandler
			mu.Unlock()
		},
	}
}

// request builds a request carrying the given authorization header.
func request(
	authorization string,
) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/pets", nil)
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}

	return req
}

type OIDCTestSuite struct {
	suite.Suite

	fixture *issuerFixture
	guard   *guard.OIDC
}

func TestOIDCTestSuite(t *testing.T) {
	suite.Run(t, new(OIDCTestSuite))
}

func (suite *OIDCTestSuite) SetupTest() {
	suite.fixture = newIssuerFixture(suite.T())

	g, err := guard.NewOIDC(
		context.Background(),
		slog.Default(),
		"oidc",
		suite.fixture.scheme,
	)
	suite.Require().NoError(err)

	suite.guard = g
}

func (suite *OIDCTestSuite) TestNewOIDC() {
	tests := []struct {
		name    string
		scheme  *openapi3.SecurityScheme
		wantErr bool
	}{
		{
			name:   "when the discovery url is reachable",
			scheme: suite.fixture.scheme,
		},
		{
			name: "when openIdConnectUrl is empty",
			scheme: &openapi3.SecurityScheme{
				Type: "openIdConnect",
			},
			wantErr: true,
		},
		{
			name: "when the issuer is unreachable",
			scheme: &openapi3.SecurityScheme{
				Type:             "openIdConnect",
				OpenIdConnectUrl: "http://127.0.0.1:1/.well-known/openid-configuration",
			},
			wantErr: true,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			g, err := guard.NewOIDC(
				context.Background(),
				slog.Default(),
				"oidc",
				tc.scheme,
			)

			if tc.wantErr {
				suite.Error(err)
				suite.Nil(g)
				return
			}

			suite.NoError(err)
			suite.NotNil(g)
		})
	}
}

func (suite *OIDCTestSuite) TestCanHandle() {
	tests := []struct {
		name          string
		authorization string
		want          bool
	}{
		{
			name:          "when no authorization header is present",
			authorization: "",
			want:          false,
		},
		{
			name:          "when a bearer credential is present",
			authorization: "Bearer abc",
			want:          true,
		},
		{
			name:          "when the prefix match is case insensitive",
			authorization: "bearer abc",
			want:          true,
		},
		{
			name:          "when the credential is not a bearer token",
			authorization: "Basic dXNlcjpwYXNz",
			want:          false,
		},
		{
			name:          "when the bearer credential is empty",
			authorization: "Bearer ",
			want:          false,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			suite.Equal(tc.want, suite.guard.CanHandle(request(tc.authorization)))
		})
	}
}

func (suite *OIDCTestSuite) TestAuthenticate() {
	valid, err := suite.fixture.issuer.Mint(
		"user@example.com",
		[]string{"pets.read", "pets.write"},
		time.Hour,
	)
	suite.Require().NoError(err)

	expired, err := suite.fixture.issuer.Mint(
		"late@example.com",
		nil,
		-time.Hour,
	)
	suite.Require().NoError(err)

	tests := []struct {
		name          string
		authorization string
		wantResults   int
		wantPerms     []string
	}{
		{
			name:          "when the token verifies",
			authorization: "Bearer " + valid,
			wantResults:   1,
			wantPerms:     []string{"pets.read", "pets.write"},
		},
		{
			name:          "when the token is garbage",
			authorization: "Bearer not-a-token",
			wantResults:   0,
			wantPerms:     []string{},
		},
		{
			name:          "when the token is expired",
			authorization: "Bearer " + expired,
			wantResults:   0,
			wantPerms:     []string{},
		},
		{
			name:          "when one of several tokens verifies",
			authorization: "Bearer not-a-token, Bearer " + valid,
			wantResults:   1,
			wantPerms:     []string{"pets.read", "pets.write"},
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			results := suite.guard.Authenticate(
				context.Background(),
				request(tc.authorization),
			)

			suite.Len(results, tc.wantResults)
			suite.Equal(tc.wantPerms, suite.guard.Permissions(results))
		})
	}
}

// freshGuard builds a guard with an empty verification cache against the
// currently served issuer.
func (suite *OIDCTestSuite) freshGuard() *guard.OIDC {
	g, err := guard.NewOIDC(
		context.Background(),
		slog.Default(),
		"oidc",
		suite.fixture.scheme,
	)
	suite.Require().NoError(err)

	return g
}

func (suite *OIDCTestSuite) TestAuthenticateCachesVerification() {
	token, err := suite.fixture.issuer.Mint(
		"user@example.com",
		[]string{"pets.read"},
		time.Hour,
	)
	suite.Require().NoError(err)

	results := suite.guard.Authenticate(context.Background(), request("Bearer "+token))
	suite.Len(results, 1)

	// After rotating the signing key a re-verification of the token would
	// fail, so continued acceptance proves the cached verdict is served.
	suite.fixture.rotate()

	results = suite.guard.Authenticate(context.Background(), request("Bearer "+token))
	suite.Len(results, 1)

	suite.Empty(suite.freshGuard().Authenticate(context.Background(), request("Bearer "+token)))
}

func (suite *OIDCTestSuite) TestAuthenticateCachesFailures() {
	// Signed by the key that is not served yet, so the first attempt fails
	// verification and the failure is cached.
	token, err := suite.fixture.next.Mint(
		"user@example.com",
		[]string{"pets.read"},
		time.Hour,
	)
	suite.Require().NoError(err)

	suite.Empty(suite.guard.Authenticate(context.Background(), request("Bearer "+token)))

	// Once the rotated key is served the token verifies, but the guard that
	// already saw it keeps answering from the negative cache entry.
	suite.fixture.rotate()

	suite.Len(suite.freshGuard().Authenticate(context.Background(), request("Bearer "+token)), 1)
	suite.Empty(suite.guard.Authenticate(context.Background(), request("Bearer "+token)))
}

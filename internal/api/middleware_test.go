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

package api

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/oaguard/oaguard/internal/audit"
	"github.com/oaguard/oaguard/internal/authz"
	"github.com/oaguard/oaguard/internal/authz/guard"
	"github.com/oaguard/oaguard/internal/config"
	"github.com/oaguard/oaguard/internal/spec"
)

// gatewayDoc is the API description the middleware tests resolve against.
const gatewayDoc = `
openapi: 3.0.3
info:
  title: Gateway Fixture
  version: 1.0.0
paths:
  /pets:
    get:
      responses:
        "200":
          description: ok
    post:
      security:
        - oidc: ["pets.write"]
      requestBody:
        content:
          application/json:
            schema:
              type: object
              properties:
                name:
                  type: string
      responses:
        "201":
          description: created
`

// staticGuard returns scripted verification results.
type staticGuard struct {
	canHandle bool
	results   []guard.Result
	perms     []string
}

func (g *staticGuard) CanHandle(
	_ *http.Request,
) bool {
	return g.canHandle
}

func (g *staticGuard) Authenticate(
	_ context.Context,
	_ *http.Request,
) []guard.Result {
	return g.results
}

func (g *staticGuard) Permissions(
	_ []guard.Result,
) []string {
	return g.perms
}

// recordingStore collects audit entries synchronously for assertions.
type recordingStore struct {
	mu      sync.Mutex
	entries []audit.Entry
	wrote   chan struct{}
}

func newRecordingStore() *recordingStore {
	return &recordingStore{wrote: make(chan struct{}, 16)}
}

func (s *recordingStore) Write(
	_ context.Context,
	entry audit.Entry,
) error {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()

	s.wrote <- struct{}{}
	return nil
}

func (s *recordingStore) List(
	_ context.Context,
) ([]audit.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]audit.Entry, len(s.entries))
	copy(out, s.entries)
	return out, nil
}

type MiddlewareTestSuite struct {
	suite.Suite

	upstream     *httptest.Server
	upstreamBody string
	bodyMu       sync.Mutex
}

func TestMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(MiddlewareTestSuite))
}

func (s *MiddlewareTestSuite) SetupTest() {
	s.upstreamBody = ""
	s.upstream = httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			data, _ := io.ReadAll(r.Body)

			s.bodyMu.Lock()
			s.upstreamBody = string(data)
			s.bodyMu.Unlock()

			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("upstream-ok"))
		}),
	)
}

func (s *MiddlewareTestSuite) TearDownTest() {
	s.upstream.Close()
}

func (s *MiddlewareTestSuite) lastUpstreamBody() string {
	s.bodyMu.Lock()
	defer s.bodyMu.Unlock()

	return s.upstreamBody
}

// newGatewayServer builds a fully wired gateway around the fixture document.
func newGatewayServer(
	upstreamURL string,
	guards map[string]guard.Guard,
	store audit.Store,
	exemptPaths []string,
) (*Server, error) {
	appFs := afero.NewMemMapFs()
	if err := afero.WriteFile(appFs, "/openapi.yaml", []byte(gatewayDoc), 0o644); err != nil {
		return nil, err
	}

	document, err := spec.Load(appFs, "/openapi.yaml")
	if err != nil {
		return nil, err
	}

	appConfig := config.Config{
		Server: config.Server{
			Upstream: upstreamURL,
			Security: config.ServerSecurity{
				ExemptPaths: exemptPaths,
			},
		},
	}

	logger := slog.Default()
	coordinator := authz.New(logger, guard.NewStaticRegistry(guards))

	opts := []Option{
		WithDocument(document),
		WithCoordinator(coordinator),
	}
	if store != nil {
		opts = append(opts, WithAuditStore(store))
	}

	server := New(appConfig, logger, opts...)
	if err := server.RegisterRoutes(); err != nil {
		return nil, err
	}

	return server, nil
}

func (s *MiddlewareTestSuite) TestAuthorizationMiddleware() {
	verified := &staticGuard{
		canHandle: true,
		results:   []guard.Result{"credential"},
		perms:     []string{"pets.write"},
	}
	underPrivileged := &staticGuard{
		canHandle: true,
		results:   []guard.Result{"credential"},
		perms:     []string{"pets.read"},
	}
	rejecting := &staticGuard{
		canHandle: true,
		results:   []guard.Result{},
	}

	tests := []struct {
		name         string
		guards       map[string]guard.Guard
		method       string
		path         string
		contentType  string
		body         string
		wantCode     int
		wantProxied  bool
		validateFunc func(rec *httptest.ResponseRecorder)
	}{
		{
			name:        "when the operation is public",
			guards:      map[string]guard.Guard{},
			method:      http.MethodGet,
			path:        "/pets",
			wantCode:    http.StatusOK,
			wantProxied: true,
		},
		{
			name:     "when no operation matches",
			guards:   map[string]guard.Guard{},
			method:   http.MethodGet,
			path:     "/stores",
			wantCode: http.StatusNotFound,
			validateFunc: func(rec *httptest.ResponseRecorder) {
				var resp ErrorResponse
				s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
				s.Equal("operation not found", resp.Error)
			},
		},
		{
			name:        "when a body-less operation gets a content type",
			guards:      map[string]guard.Guard{},
			method:      http.MethodGet,
			path:        "/pets",
			contentType: "application/json",
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "when the media type is not declared",
			guards:      map[string]guard.Guard{"oidc": verified},
			method:      http.MethodPost,
			path:        "/pets",
			contentType: "text/plain",
			body:        "name=rex",
			wantCode:    http.StatusBadRequest,
		},
		{
			name:        "when no credential verifies",
			guards:      map[string]guard.Guard{"oidc": rejecting},
			method:      http.MethodPost,
			path:        "/pets",
			contentType: "application/json",
			body:        `{"name":"rex"}`,
			wantCode:    http.StatusUnauthorized,
			validateFunc: func(rec *httptest.ResponseRecorder) {
				s.Equal("Bearer", rec.Header().Get("WWW-Authenticate"))
			},
		},
		{
			name:        "when the credential lacks permissions",
			guards:      map[string]guard.Guard{"oidc": underPrivileged},
			method:      http.MethodPost,
			path:        "/pets",
			contentType: "application/json",
			body:        `{"name":"rex"}`,
			wantCode:    http.StatusForbidden,
			validateFunc: func(rec *httptest.ResponseRecorder) {
				var resp ErrorResponse
				s.NoError(json.Unmarshal(rec.Body.Bytes(), &resp))
				s.Contains(resp.Outcome, "oidc")
				s.Equal(
					[]string{"pets.write"},
					resp.Outcome["oidc"].Permissions.Missing.ForOperation,
				)
			},
		},
		{
			name:        "when the credential is authenticated",
			guards:      map[string]guard.Guard{"oidc": verified},
			method:      http.MethodPost,
			path:        "/pets",
			contentType: "application/json",
			body:        `{"name":"rex"}`,
			wantCode:    http.StatusOK,
			wantProxied: true,
			validateFunc: func(_ *httptest.ResponseRecorder) {
				// The proxy must replay the body it inspected.
				s.Equal(`{"name":"rex"}`, s.lastUpstreamBody())
			},
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			server, err := newGatewayServer(s.upstream.URL, tc.guards, nil, nil)
			s.Require().NoError(err)

			var body io.Reader
			if tc.body != "" {
				body = strings.NewReader(tc.body)
			}

			req := httptest.NewRequest(tc.method, tc.path, body)
			if tc.contentType != "" {
				req.Header.Set("Content-Type", tc.contentType)
			}

			rec := httptest.NewRecorder()
			server.Echo.ServeHTTP(rec, req)

			s.Equal(tc.wantCode, rec.Code)
			if tc.wantProxied {
				s.Equal("upstream-ok", rec.Body.String())
			}
			if tc.validateFunc != nil {
				tc.validateFunc(rec)
			}
		})
	}
}

func (s *MiddlewareTestSuite) TestExemptPathsBypassAuthorization() {
	server, err := newGatewayServer(
		s.upstream.URL,
		map[string]guard.Guard{},
		nil,
		[]string{"/internal"},
	)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/internal/debug", nil)
	rec := httptest.NewRecorder()
	server.Echo.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Equal("upstream-ok", rec.Body.String())
}

func (s *MiddlewareTestSuite) TestHealthEndpoint() {
	server, err := newGatewayServer(s.upstream.URL, map[string]guard.Guard{}, nil, nil)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Echo.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), "ok")
}

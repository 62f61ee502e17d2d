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
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/oaguard/oaguard/internal/authz/guard"
)

type AuditMiddlewareTestSuite struct {
	suite.Suite

	upstream *httptest.Server
}

func TestAuditMiddlewareTestSuite(t *testing.T) {
	suite.Run(t, new(AuditMiddlewareTestSuite))
}

func (s *AuditMiddlewareTestSuite) SetupTest() {
	s.upstream = httptest.NewServer(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}),
	)
}

func (s *AuditMiddlewareTestSuite) TearDownTest() {
	s.upstream.Close()
}

func (s *AuditMiddlewareTestSuite) TestAuditRecordsDecisions() {
	rejecting := &staticGuard{canHandle: true}

	tests := []struct {
		name         string
		guards       map[string]guard.Guard
		method       string
		path         string
		contentType  string
		body         string
		wantDecision string
		wantCode     int
	}{
		{
			name:         "when the request is allowed",
			guards:       map[string]guard.Guard{},
			method:       http.MethodGet,
			path:         "/pets",
			wantDecision: DecisionAllowed,
			wantCode:     http.StatusOK,
		},
		{
			name:         "when the operation is unknown",
			guards:       map[string]guard.Guard{},
			method:       http.MethodGet,
			path:         "/stores",
			wantDecision: DecisionNotFound,
			wantCode:     http.StatusNotFound,
		},
		{
			name:         "when authentication fails",
			guards:       map[string]guard.Guard{"oidc": rejecting},
			method:       http.MethodPost,
			path:         "/pets",
			contentType:  "application/json",
			body:         `{"name":"rex"}`,
			wantDecision: DecisionUnauthorized,
			wantCode:     http.StatusUnauthorized,
		},
	}

	for _, tc := range tests {
		s.Run(tc.name, func() {
			store := newRecordingStore()

			server, err := newGatewayServer(s.upstream.URL, tc.guards, store, nil)
			s.Require().NoError(err)

			var req *http.Request
			if tc.body != "" {
				req = httptest.NewRequest(tc.method, tc.path, strings.NewReader(tc.body))
				req.Header.Set("Content-Type", tc.contentType)
			} else {
				req = httptest.NewRequest(tc.method, tc.path, nil)
			}

			rec := httptest.NewRecorder()
			server.Echo.ServeHTTP(rec, req)

			s.Equal(tc.wantCode, rec.Code)

			// Audit writes happen asynchronously.
			time.Sleep(50 * time.Millisecond)

			entries, err := store.List(context.Background())
			s.NoError(err)
			s.Require().Len(entries, 1)

			entry := entries[0]
			s.NotEmpty(entry.ID)
			s.Equal(tc.method, entry.Method)
			s.Equal(tc.path, entry.Path)
			s.Equal(tc.wantDecision, entry.Decision)
			s.Equal(tc.wantCode, entry.ResponseCode)
		})
	}
}

func (s *AuditMiddlewareTestSuite) TestAuditSkipsHealthEndpoint() {
	store := newRecordingStore()

	server, err := newGatewayServer(s.upstream.URL, map[string]guard.Guard{}, store, nil)
	s.Require().NoError(err)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	server.Echo.ServeHTTP(rec, req)

	s.Equal(http.StatusOK, rec.Code)

	time.Sleep(50 * time.Millisecond)

	entries, err := store.List(context.Background())
	s.NoError(err)
	s.Empty(entries)
}

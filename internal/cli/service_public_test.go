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

package cli_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"

	"github.com/oaguard/oaguard/internal/cli"
)

type ServiceTestSuite struct {
	suite.Suite
}

func TestServiceTestSuite(t *testing.T) {
	suite.Run(t, new(ServiceTestSuite))
}

type mockService struct {
	started bool
	stopped bool
}

func (m *mockService) Start() {
	m.started = true
}

func (m *mockService) Stop(_ context.Context) {
	m.stopped = true
}

func (suite *ServiceTestSuite) TestServe() {
	tests := []struct {
		name         string
		cleanupCount int
		wantCleanups int
	}{
		{
			name:         "when context cancelled stops the service",
			cleanupCount: 0,
			wantCleanups: 0,
		},
		{
			name:         "when cleanup functions provided runs all",
			cleanupCount: 2,
			wantCleanups: 2,
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			ctx, cancel := context.WithCancel(context.Background())
			svc := &mockService{}

			cleanupRan := 0
			cleanups := make([]func(), tc.cleanupCount)
			for i := range cleanups {
				cleanups[i] = func() { cleanupRan++ }
			}

			cancel()
			cli.Serve(ctx, svc, cleanups...)

			assert.True(suite.T(), svc.started)
			assert.True(suite.T(), svc.stopped)
			assert.Equal(suite.T(), tc.wantCleanups, cleanupRan)
		})
	}
}

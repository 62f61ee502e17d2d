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

// Package cli provides helpers shared by the command layer.
package cli

import (
	"context"
	"time"
)

// shutdownTimeout bounds how long a stopping service may take to drain
// in-flight requests.
const shutdownTimeout = 10 * time.Second

// Service is a long-running component with a non-blocking start and a
// graceful stop.
type Service interface {
	Start()
	Stop(ctx context.Context)
}

// Serve starts the service and blocks until ctx is cancelled, then stops it
// within the shutdown timeout and runs the cleanups in order.
func Serve(
	ctx context.Context,
	svc Service,
	cleanups ...func(),
) {
	svc.Start()

	<-ctx.Done()

	stopCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()

	svc.Stop(stopCtx)

	for _, fn := range cleanups {
		fn()
	}
}

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

package config

import (
	"errors"

	masker "github.com/ggwhite/go-masker/v2"

	"github.com/oaguard/oaguard/internal/validation"
)

// Validate checks the configuration against its struct tags.
func Validate(
	cfg *Config,
) error {
	if msg, ok := validation.Struct(cfg); !ok {
		return errors.New(msg)
	}

	return nil
}

// Masked returns a copy of the configuration with sensitive fields masked
// according to their `mask` tags, suitable for debug logging.
func Masked(
	cfg Config,
) (any, error) {
	m := masker.NewMaskerMarshaler()

	masked, err := m.Struct(cfg)
	if err != nil {
		return nil, err
	}

	return masked, nil
}

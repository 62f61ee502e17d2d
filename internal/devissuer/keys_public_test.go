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

package devissuer_test

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/suite"

	"github.com/oaguard/oaguard/internal/devissuer"
)

type KeysTestSuite struct {
	suite.Suite

	appFs afero.Fs
}

func TestKeysTestSuite(t *testing.T) {
	suite.Run(t, new(KeysTestSuite))
}

func (suite *KeysTestSuite) SetupTest() {
	suite.appFs = afero.NewMemMapFs()
}

func (suite *KeysTestSuite) TestLoadOrCreateKey() {
	created, err := devissuer.LoadOrCreateKey(suite.appFs, "/keys/dev.pem")
	suite.NoError(err)
	suite.NotNil(created)

	exists, err := afero.Exists(suite.appFs, "/keys/dev.pem")
	suite.NoError(err)
	suite.True(exists)

	// A second load returns the persisted key, not a new one.
	loaded, err := devissuer.LoadOrCreateKey(suite.appFs, "/keys/dev.pem")
	suite.NoError(err)
	suite.Equal(created.N, loaded.N)
}

func (suite *KeysTestSuite) TestLoadOrCreateKeyRejectsBadFile() {
	tests := []struct {
		name string
		data string
	}{
		{
			name: "when the file is not PEM",
			data: "not a key",
		},
		{
			name: "when the PEM block has the wrong type",
			data: "-----BEGIN CERTIFICATE-----\nQUJD\n-----END CERTIFICATE-----\n",
		},
	}

	for _, tc := range tests {
		suite.Run(tc.name, func() {
			err := afero.WriteFile(suite.appFs, "/keys/dev.pem", []byte(tc.data), 0o600)
			suite.NoError(err)

			key, err := devissuer.LoadOrCreateKey(suite.appFs, "/keys/dev.pem")

			suite.Error(err)
			suite.Nil(key)
		})
	}
}

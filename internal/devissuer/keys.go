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

package devissuer

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"

	"github.com/spf13/afero"
)

const (
	keyBits      = 2048
	keyFileMode  = 0o600
	pemBlockType = "RSA PRIVATE KEY"
)

// LoadOrCreateKey reads the RSA signing key from the PEM file at path,
// generating and persisting a new key when the file does not exist.
func LoadOrCreateKey(
	appFs afero.Fs,
	path string,
) (*rsa.PrivateKey, error) {
	exists, err := afero.Exists(appFs, path)
	if err != nil {
		return nil, fmt.Errorf("checking key file: %w", err)
	}

	if exists {
		return loadKey(appFs, path)
	}

	key, err := rsa.GenerateKey(rand.Reader, keyBits)
	if err != nil {
		return nil, fmt.Errorf("generating key: %w", err)
	}

	block := &pem.Block{
		Type:  pemBlockType,
		Bytes: x509.MarshalPKCS1PrivateKey(key),
	}

	if err := afero.WriteFile(appFs, path, pem.EncodeToMemory(block), keyFileMode); err != nil {
		return nil, fmt.Errorf("writing key file: %w", err)
	}

	return key, nil
}

// loadKey parses a PKCS#1 PEM private key.
func loadKey(
	appFs afero.Fs,
	path string,
) (*rsa.PrivateKey, error) {
	data, err := afero.ReadFile(appFs, path)
	if err != nil {
		return nil, fmt.Errorf("reading key file: %w", err)
	}

	block, _ := pem.Decode(data)
	if block == nil || block.Type != pemBlockType {
		return nil, fmt.Errorf("key file %q is not a PEM-encoded RSA private key", path)
	}

	key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("parsing key file: %w", err)
	}

	return key, nil
}

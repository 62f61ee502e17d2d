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

// Package devissuer is a minimal OpenID Connect issuer for development and
// tests: discovery document, JWKS endpoint, and RS256 token minting.
package devissuer

import (
	"crypto/rsa"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math/big"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	// DiscoveryPath is the well-known OIDC discovery document path.
	DiscoveryPath = "/.well-known/openid-configuration"

	// KeysPath serves the JSON Web Key Set.
	KeysPath = "/keys"

	keyID = "oaguard-dev"
)

// Issuer mints and serves verification material for development tokens.
// Not for production use.
type Issuer struct {
	logger *slog.Logger
	url    string
	key    *rsa.PrivateKey
}

// New factory to create a new instance. url must match the address the
// issuer is reachable at, since discovery validates it.
func New(
	logger *slog.Logger,
	url string,
	key *rsa.PrivateKey,
) *Issuer {
	return &Issuer{
		logger: logger,
		url:    url,
		key:    key,
	}
}

// URL returns the issuer identifier.
func (i *Issuer) URL() string {
	return i.url
}

// DiscoveryURL returns the full discovery document URL, suitable for an
// OpenAPI security scheme's openIdConnectUrl.
func (i *Issuer) DiscoveryURL() string {
	return i.url + DiscoveryPath
}

// Mint signs an RS256 token carrying the subject and a flat permissions
// claim.
func (i *Issuer) Mint(
	subject string,
	permissions []string,
	ttl time.Duration,
) (string, error) {
	now := time.Now()

	claims := jwt.MapClaims{
		"iss":         i.url,
		"sub":         subject,
		"iat":         now.Unix(),
		"exp":         now.Add(ttl).Unix(),
		"permissions": permissions,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = keyID

	signed, err := token.SignedString(i.key)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}

	return signed, nil
}

// Validate parses a token against the issuer's public key and returns its
// claims.
func (i *Issuer) Validate(
	tokenString string,
) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}

	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}

			return &i.key.PublicKey, nil
		},
	)
	if err != nil {
		return nil, err
	}

	return claims, nil
}

// Register adds the discovery and JWKS routes to an Echo instance.
func (i *Issuer) Register(
	e *echo.Echo,
) {
	e.GET(DiscoveryPath, i.handleDiscovery)
	e.GET(KeysPath, i.handleKeys)
}

// discoveryDocument is the subset of OIDC discovery metadata verifiers need.
type discoveryDocument struct {
	Issuer                string   `json:"issuer"`
	JWKSURI               string   `json:"jwks_uri"`
	AuthorizationEndpoint string   `json:"authorization_endpoint"`
	TokenEndpoint         string   `json:"token_endpoint"`
	ResponseTypes         []string `json:"response_types_supported"`
	SubjectTypes          []string `json:"subject_types_supported"`
	SigningAlgs           []string `json:"id_token_signing_alg_values_supported"`
}

func (i *Issuer) handleDiscovery(
	c echo.Context,
) error {
	return c.JSON(http.StatusOK, discoveryDocument{
		Issuer:                i.url,
		JWKSURI:               i.url + KeysPath,
		AuthorizationEndpoint: i.url + "/authorize",
		TokenEndpoint:         i.url + "/token",
		ResponseTypes:         []string{"id_token"},
		SubjectTypes:          []string{"public"},
		SigningAlgs:           []string{"RS256"},
	})
}

// jsonWebKey is the RSA public key in JWK form.
type jsonWebKey struct {
	Kty string `json:"kty"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	Kid string `json:"kid"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jsonWebKeySet struct {
	Keys []jsonWebKey `json:"keys"`
}

func (i *Issuer) handleKeys(
	c echo.Context,
) error {
	pub := &i.key.PublicKey

	return c.JSON(http.StatusOK, jsonWebKeySet{
		Keys: []jsonWebKey{
			{
				Kty: "RSA",
				Use: "sig",
				Alg: "RS256",
				Kid: keyID,
				N:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
				E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
			},
		},
	})
}

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

// Package config holds the YAML configuration schema for the gateway.
package config

// Config represents the root structure of the YAML configuration file.
// This struct is used to unmarshal configuration data from Viper.
type Config struct {
	Spec      Spec      `mapstructure:"spec"`
	Server    Server    `mapstructure:"server"    mask:"struct"`
	Issuer    Issuer    `mapstructure:"issuer"    mask:"struct"`
	Telemetry Telemetry `mapstructure:"telemetry"`
	// Debug enable or disable debug option set from CLI.
	Debug bool `mapstructure:"debug"`
}

// Spec locates the OpenAPI contract the gateway enforces.
type Spec struct {
	// Path to the OpenAPI document (YAML or JSON).
	Path string `mapstructure:"path" validate:"required"`
}

// Server configuration settings for the gateway.
type Server struct {
	// Port the server will bind to.
	Port int `mapstructure:"port"`
	// Upstream is the base URL of the service the gateway fronts.
	Upstream string `mapstructure:"upstream" validate:"required,url"`
	// Security contains security-related configuration for the server.
	Security ServerSecurity `mapstructure:"security" mask:"struct"`
}

// ServerSecurity represents security-related settings for the server.
type ServerSecurity struct {
	// CORS Cross-Origin Resource Sharing (CORS) settings for the server.
	CORS CORS `mapstructure:"cors"`
	// ExemptPaths are path prefixes that bypass authorization entirely.
	ExemptPaths []string `mapstructure:"exempt_paths"`
}

// CORS represents the CORS (Cross-Origin Resource Sharing) settings.
type CORS struct {
	// List of origins allowed to access the server (e.g., "foo").
	AllowOrigins []string `mapstructure:"allow_origins,omitempty"`
}

// Issuer configuration for the bundled development token issuer.
type Issuer struct {
	// Port the issuer will bind to.
	Port int `mapstructure:"port"`
	// URL is the externally visible issuer URL; must match what the
	// contract's security scheme discovers.
	URL string `mapstructure:"url"`
	// KeyFile is the PEM file holding the issuer's RSA signing key.
	// Created on first use when absent.
	KeyFile string `mapstructure:"key_file" mask:"password"`
	// TTL is the lifetime of minted tokens (e.g. "1h", "30m").
	TTL string `mapstructure:"ttl"`
}

// Telemetry configuration settings.
type Telemetry struct {
	Tracing TracingConfig `mapstructure:"tracing,omitempty"`
	Metrics MetricsConfig `mapstructure:"metrics,omitempty"`
}

// MetricsConfig configuration settings for Prometheus metrics.
type MetricsConfig struct {
	// Path is the HTTP path for the Prometheus scrape endpoint.
	// Defaults to "/metrics" when empty.
	Path string `mapstructure:"path"`
}

// TracingConfig configuration settings for distributed tracing.
type TracingConfig struct {
	// Enabled enables or disables tracing.
	Enabled bool `mapstructure:"enabled"`
	// Exporter selects the trace exporter: "stdout" or "otlp".
	Exporter string `mapstructure:"exporter"`
	// OTLPEndpoint is the gRPC endpoint for the OTLP exporter (e.g., "localhost:4317").
	OTLPEndpoint string `mapstructure:"otlp_endpoint"`
}

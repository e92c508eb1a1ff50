// Copyright 2025 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package nftbridge

import (
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/prometheus/client_golang/prometheus"
)

// DefaultProgramIdSeed derives the program identity used when none is
// configured
const DefaultProgramIdSeed = "nftbridge"

type Config struct {
	promRegistry         prometheus.Registerer
	logger               *slog.Logger
	dataDir              string
	blobPlugin           string
	metadataPlugin       string
	gatewayListenAddress string
	programId            address.Address
	maxClockSkew         time.Duration
	shutdownTimeout      time.Duration
	tracing              bool
	tracingStdout        bool
}

// DefaultProgramId returns the program identity used when none is configured
func DefaultProgramId() address.Address {
	return address.Derive(address.Zero, []byte(DefaultProgramIdSeed))
}

func (n *Node) configValidate() error {
	if n.config.maxClockSkew < 0 {
		return errors.New("max clock skew must not be negative")
	}
	if n.config.shutdownTimeout < 0 {
		return errors.New("shutdown timeout must not be negative")
	}
	return nil
}

// ConfigOptionFunc is a type that represents functions that modify the node config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new node config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:    slog.New(slog.NewJSONHandler(io.Discard, nil)),
		programId: DefaultProgramId(),
	}
	// Apply options
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// WithDatabasePath specifies the persistent data directory to use. The default is to store everything in memory
func WithDatabasePath(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithBlobPlugin specifies the blob storage plugin to use.
func WithBlobPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.blobPlugin = plugin
	}
}

// WithMetadataPlugin specifies the metadata storage plugin to use.
func WithMetadataPlugin(plugin string) ConfigOptionFunc {
	return func(c *Config) {
		c.metadataPlugin = plugin
	}
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithProgramId specifies the program identity from which all storage
// locations are derived. The zero address selects DefaultProgramId
func WithProgramId(programId address.Address) ConfigOptionFunc {
	return func(c *Config) {
		if programId.IsZero() {
			programId = DefaultProgramId()
		}
		c.programId = programId
	}
}

// WithGatewayListenAddress enables the HTTP gateway on the given address
func WithGatewayListenAddress(listenAddress string) ConfigOptionFunc {
	return func(c *Config) {
		c.gatewayListenAddress = listenAddress
	}
}

// WithMaxClockSkew bounds the age of signed gateway requests
func WithMaxClockSkew(skew time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.maxClockSkew = skew
	}
}

// WithTracing enables tracing. By default, spans are submitted to a HTTP(s) endpoint using OTLP. This can be configured
// using the OTEL_EXPORTER_OTLP_* env vars documented in the README for [go.opentelemetry.io/otel/exporters/otlp/otlptrace]
func WithTracing(tracing bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracing = tracing
	}
}

// WithTracingStdout enables tracing output to stdout. This also requires tracing to enabled separately. This is mostly useful for debugging
func WithTracingStdout(stdout bool) ConfigOptionFunc {
	return func(c *Config) {
		c.tracingStdout = stdout
	}
}

// WithShutdownTimeout specifies the timeout for graceful shutdown. The default is 30 seconds
func WithShutdownTimeout(timeout time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.shutdownTimeout = timeout
	}
}

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

package node

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/blinklabs-io/nftbridge"
	"github.com/blinklabs-io/nftbridge/internal/config"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Options converts the loaded configuration into node options. The
// gateway is only enabled when withGateway is set.
func Options(
	cfg *config.Config,
	logger *slog.Logger,
	withGateway bool,
) ([]nftbridge.ConfigOptionFunc, error) {
	programId, err := cfg.ParsedProgramId()
	if err != nil {
		return nil, err
	}
	shutdownTimeout, err := time.ParseDuration(cfg.ShutdownTimeout)
	if err != nil {
		return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
	}
	maxClockSkew, err := time.ParseDuration(cfg.MaxClockSkew)
	if err != nil {
		return nil, fmt.Errorf("invalid max clock skew: %w", err)
	}
	opts := []nftbridge.ConfigOptionFunc{
		nftbridge.WithLogger(logger),
		nftbridge.WithDatabasePath(cfg.DatabasePath),
		nftbridge.WithBlobPlugin(cfg.BlobPlugin),
		nftbridge.WithMetadataPlugin(cfg.MetadataPlugin),
		nftbridge.WithProgramId(programId),
		nftbridge.WithShutdownTimeout(shutdownTimeout),
		nftbridge.WithMaxClockSkew(maxClockSkew),
		nftbridge.WithTracing(cfg.TracingEnabled),
		nftbridge.WithTracingStdout(cfg.TracingStdout),
	}
	if withGateway && cfg.GatewayPort > 0 {
		opts = append(
			opts,
			nftbridge.WithGatewayListenAddress(
				fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.GatewayPort),
			),
		)
	}
	return opts, nil
}

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")
	opts, err := Options(cfg, logger, true)
	if err != nil {
		return err
	}
	// Enable metrics with default prometheus registry
	opts = append(opts, nftbridge.WithPrometheusRegistry(prometheus.DefaultRegisterer))
	n, err := nftbridge.New(nftbridge.NewConfig(opts...))
	if err != nil {
		return err
	}
	shutdownTimeout, _ := time.ParseDuration(cfg.ShutdownTimeout)

	// Metrics listener
	var metricsServer *http.Server
	metricsErrChan := make(chan error, 1)
	if cfg.MetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsAddr := fmt.Sprintf("%s:%d", cfg.BindAddr, cfg.MetricsPort)
		logger.Info(
			"serving prometheus metrics on "+metricsAddr,
			"component", "node",
		)
		metricsServer = &http.Server{
			Addr:              metricsAddr,
			Handler:           mux,
			ReadHeaderTimeout: 60 * time.Second,
			WriteTimeout:      30 * time.Second,
			IdleTimeout:       120 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil &&
				!errors.Is(err, http.ErrServerClosed) {
				metricsErrChan <- fmt.Errorf("metrics listener: %w", err)
			}
		}()
	}
	shutdownMetrics := func() {
		if metricsServer == nil {
			return
		}
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			shutdownTimeout,
		)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("metrics server shutdown error", "error", err)
		}
	}

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	// Run node in goroutine
	errChan := make(chan error, 1)
	go func() {
		//nolint:contextcheck
		errChan <- n.Run(signalCtx)
	}()

	// Wait for signal or error
	select {
	case <-signalCtx.Done():
		logger.Info("signal received, initiating graceful shutdown")
		shutdownMetrics()
		if err := n.Stop(); err != nil {
			logger.Error("shutdown errors occurred", "error", err)
			return err
		}
		// Run returns once the node has stopped
		<-errChan
		logger.Info("shutdown complete")
		return nil

	case err := <-metricsErrChan:
		logger.Error("metrics server error", "error", err)
		signalCtxStop()
		shutdownMetrics()
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error", stopErr,
			)
		}
		return err

	case err := <-errChan:
		if err == nil {
			logger.Info("node stopped")
			shutdownMetrics()
			return n.Stop()
		}
		logger.Error("node error", "error", err)
		signalCtxStop()
		// Shutdown node resources
		if stopErr := n.Stop(); stopErr != nil {
			logger.Error(
				"shutdown errors occurred during error cleanup",
				"error", stopErr,
			)
		}
		shutdownMetrics()
		return err
	}
}

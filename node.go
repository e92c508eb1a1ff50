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
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/gateway"
	"github.com/blinklabs-io/nftbridge/stats"
	"go.opentelemetry.io/otel/trace"
)

type Node struct {
	eventBus       *event.EventBus
	db             *database.Database
	bridge         *bridge.Bridge
	stats          *stats.Collector
	gateway        *gateway.Gateway
	tracerProvider trace.TracerProvider
	shutdownFuncs  []func(context.Context) error
	config         Config
	openMu         sync.Mutex
	done           chan struct{}
	shutdownOnce   sync.Once
}

func New(cfg Config) (*Node, error) {
	eventBus := event.NewEventBus(cfg.promRegistry, cfg.logger)
	n := &Node{
		config:   cfg,
		eventBus: eventBus,
		done:     make(chan struct{}),
	}
	if err := n.configValidate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return n, nil
}

// Open loads the database and builds the bridge and statistics collector.
// It is called by Run, and may be called directly for offline use of the
// bridge without the gateway.
func (n *Node) Open() error {
	n.openMu.Lock()
	defer n.openMu.Unlock()
	if n.bridge != nil {
		return nil
	}
	// Configure tracing
	if n.config.tracing && n.tracerProvider == nil {
		if err := n.setupTracing(); err != nil {
			return err
		}
	}
	// Load database
	dbConfig := &database.Config{
		DataDir:        n.config.dataDir,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		BlobPlugin:     n.config.blobPlugin,
		MetadataPlugin: n.config.metadataPlugin,
	}
	db, err := database.New(dbConfig)
	if db == nil {
		if err == nil {
			err = errors.New("empty database returned")
		}
		n.config.logger.Error(
			"failed to create database",
			"error", err,
		)
		return fmt.Errorf("failed to open database: %w", err)
	}
	if err != nil {
		var dbErr database.CommitTimestampError
		if errors.As(err, &dbErr) {
			n.config.logger.Error(
				"database stores are out of sync, restore from backup",
				"ahead", dbErr.Ahead(),
				"error", err,
			)
		}
		_ = db.Close()
		return fmt.Errorf("failed to open database: %w", err)
	}
	n.db = db
	n.shutdownFuncs = append(n.shutdownFuncs, func(context.Context) error {
		return n.db.Close()
	})
	// Load bridge
	b, err := bridge.New(bridge.Config{
		Database:       n.db,
		EventBus:       n.eventBus,
		Logger:         n.config.logger,
		PromRegistry:   n.config.promRegistry,
		TracerProvider: n.tracerProvider,
		ProgramId:      n.config.programId,
	})
	if err != nil {
		return fmt.Errorf("failed to load bridge: %w", err)
	}
	// Seed statistics from stored records before following live events
	collector := stats.NewCollector(n.eventBus)
	tokens, err := b.Tokens(0, 0)
	if err != nil {
		return fmt.Errorf("failed to load tokens: %w", err)
	}
	returns, err := b.OutboundEvents(0, 0)
	if err != nil {
		return fmt.Errorf("failed to load outbound events: %w", err)
	}
	collector.Seed(tokens, returns)
	collector.Start()
	n.stats = collector
	n.bridge = b
	n.config.logger.Info(
		"bridge loaded",
		"component", "node",
		"program_id", b.ProgramId().String(),
		"tokens", len(tokens),
		"returns", len(returns),
	)
	return nil
}

// Bridge returns the bridge state machine. It is nil until Open succeeds
func (n *Node) Bridge() *bridge.Bridge {
	n.openMu.Lock()
	defer n.openMu.Unlock()
	return n.bridge
}

// Stats returns the statistics collector. It is nil until Open succeeds
func (n *Node) Stats() *stats.Collector {
	n.openMu.Lock()
	defer n.openMu.Unlock()
	return n.stats
}

func (n *Node) EventBus() *event.EventBus {
	return n.eventBus
}

// Run opens the node, starts the gateway if one is configured and blocks
// until Stop is called or ctx is canceled
func (n *Node) Run(ctx context.Context) error {
	if err := n.Open(); err != nil {
		return err
	}
	if n.config.gatewayListenAddress != "" {
		n.gateway = gateway.New(
			gateway.GatewayConfig{
				ListenAddress: n.config.gatewayListenAddress,
				MaxClockSkew:  n.config.maxClockSkew,
			},
			n.bridge,
			n.stats,
			n.eventBus,
			n.config.logger,
		)
		if err := n.gateway.Start(ctx); err != nil {
			return fmt.Errorf("failed to start gateway: %w", err)
		}
	}

	// Wait for shutdown signal
	select {
	case <-ctx.Done():
		return n.Stop()
	case <-n.done:
		return nil
	}
}

func (n *Node) Stop() error {
	var err error
	n.shutdownOnce.Do(func() {
		err = n.shutdown()
	})
	return err
}

func (n *Node) shutdown() error {
	// Create shutdown context with timeout (default 30s if not configured)
	shutdownTimeout := 30 * time.Second
	if n.config.shutdownTimeout > 0 {
		shutdownTimeout = n.config.shutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var err error

	n.config.logger.Debug("starting graceful shutdown")

	// Phase 1: Stop accepting new work
	n.config.logger.Debug("shutdown phase 1: stopping gateway")

	if n.gateway != nil {
		if stopErr := n.gateway.Stop(ctx); stopErr != nil {
			err = errors.Join(err, fmt.Errorf("gateway shutdown: %w", stopErr))
		}
	}

	// Phase 2: Stop event delivery
	n.config.logger.Debug("shutdown phase 2: stopping event delivery")

	if n.stats != nil {
		n.stats.Stop()
	}
	if n.eventBus != nil {
		n.eventBus.Stop()
	}

	// Phase 3: Cleanup resources
	n.config.logger.Debug("shutdown phase 3: cleanup resources")

	// Call registered shutdown functions
	for _, fn := range n.shutdownFuncs {
		if fnErr := fn(ctx); fnErr != nil {
			err = errors.Join(err, fmt.Errorf("shutdown function: %w", fnErr))
		}
	}
	n.shutdownFuncs = nil

	n.config.logger.Debug("graceful shutdown complete")
	close(n.done)
	return err
}

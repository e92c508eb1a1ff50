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

package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/blinklabs-io/nftbridge/event"
)

const (
	DefaultListenAddress = ":3100"
	DefaultMaxBodySize   = 64 * 1024
)

// Gateway is the HTTP front end of the bridge. It accepts signed
// cross-chain calls and burns, serves state queries and streams committed
// outbound events to relayers.
type Gateway struct {
	config     GatewayConfig
	logger     *slog.Logger
	node       BridgeNode
	stats      StatsSource
	eventBus   *event.EventBus
	httpServer *http.Server
	mu         sync.Mutex
	feeds      map[*feed]struct{}
	feedWg     sync.WaitGroup
	stopped    bool
	now        func() time.Time
}

// New creates a new gateway instance. The stats source and event bus may be
// nil, which disables the stats endpoint and live event streaming
// respectively.
func New(
	cfg GatewayConfig,
	node BridgeNode,
	stats StatsSource,
	eventBus *event.EventBus,
	logger *slog.Logger,
) *Gateway {
	if logger == nil {
		logger = slog.New(
			slog.NewJSONHandler(io.Discard, nil),
		)
	}
	logger = logger.With("component", "gateway")
	if cfg.ListenAddress == "" {
		cfg.ListenAddress = DefaultListenAddress
	}
	if cfg.MaxBodySize <= 0 {
		cfg.MaxBodySize = DefaultMaxBodySize
	}
	if cfg.MaxClockSkew <= 0 {
		cfg.MaxClockSkew = DefaultMaxClockSkew
	}
	return &Gateway{
		config:   cfg,
		logger:   logger,
		node:     node,
		stats:    stats,
		eventBus: eventBus,
		feeds:    make(map[*feed]struct{}),
		now:      time.Now,
	}
}

// Handler returns the HTTP handler with all API routes registered
func (g *Gateway) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", g.handleRoot)
	mux.HandleFunc("GET /health", g.handleHealth)
	mux.HandleFunc("GET /api/v0/state", g.handleState)
	mux.HandleFunc("GET /api/v0/tokens", g.handleTokens)
	mux.HandleFunc("GET /api/v0/tokens/{id}", g.handleToken)
	mux.HandleFunc("GET /api/v0/tokens/{id}/holders", g.handleTokenHolders)
	mux.HandleFunc("GET /api/v0/events", g.handleEvents)
	mux.HandleFunc("GET /api/v0/events/ws", g.handleEventFeed)
	mux.HandleFunc("GET /api/v0/stats", g.handleStats)
	mux.HandleFunc("POST /api/v0/call", g.handleCall)
	mux.HandleFunc("POST /api/v0/burn", g.handleBurn)
	return mux
}

// Start starts the HTTP server in a background goroutine.
func (g *Gateway) Start(
	ctx context.Context,
) error {
	g.mu.Lock()
	if g.httpServer != nil {
		g.mu.Unlock()
		return errors.New("server already started")
	}
	server := &http.Server{
		Addr:              g.config.ListenAddress,
		Handler:           g.Handler(),
		ReadHeaderTimeout: 60 * time.Second,
	}
	g.httpServer = server
	g.stopped = false
	g.mu.Unlock()

	// Start the server with deterministic error detection
	if err := g.startServer(server); err != nil {
		g.mu.Lock()
		g.httpServer = nil
		g.mu.Unlock()
		return err
	}

	g.logger.Info(
		"gateway listener started on " +
			g.config.ListenAddress,
	)

	// Monitor context for cancellation
	go func() {
		<-ctx.Done()
		//nolint:contextcheck
		shutdownCtx, cancel := context.WithTimeout(
			context.Background(),
			30*time.Second,
		)
		defer cancel()
		//nolint:contextcheck
		if err := g.Stop(shutdownCtx); err != nil {
			g.logger.Error(
				"failed to shutdown gateway on context cancellation",
				"error", err,
			)
		}
	}()

	return nil
}

// Stop gracefully shuts down the HTTP server and closes any open event
// feeds. It is safe to call more than once.
func (g *Gateway) Stop(
	ctx context.Context,
) error {
	g.mu.Lock()
	srv := g.httpServer
	g.httpServer = nil
	g.stopped = true
	feeds := make([]*feed, 0, len(g.feeds))
	for f := range g.feeds {
		feeds = append(feeds, f)
	}
	g.mu.Unlock()

	// Hijacked websocket connections are not tracked by the server
	for _, f := range feeds {
		f.Close()
	}

	var err error
	if srv != nil {
		g.logger.Debug("shutting down gateway")
		if shutdownErr := srv.Shutdown(ctx); shutdownErr != nil {
			err = fmt.Errorf(
				"failed to shutdown gateway: %w",
				shutdownErr,
			)
		}
	}
	g.feedWg.Wait()
	return err
}

// startServer binds the listening socket first so port conflicts are
// detected immediately, then serves in a background goroutine.
func (g *Gateway) startServer(
	server *http.Server,
) error {
	ln, err := net.Listen("tcp", server.Addr)
	if err != nil {
		return fmt.Errorf(
			"failed to listen for gateway: %w",
			err,
		)
	}
	go func() {
		if err := server.Serve(ln); err != nil &&
			!errors.Is(err, http.ErrServerClosed) {
			g.logger.Error(
				"gateway server error",
				"error", err,
			)
		}
	}()
	return nil
}

func (g *Gateway) addFeed(f *feed) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stopped {
		return false
	}
	g.feeds[f] = struct{}{}
	g.feedWg.Add(1)
	return true
}

func (g *Gateway) removeFeed(f *feed) {
	g.mu.Lock()
	delete(g.feeds, f)
	g.mu.Unlock()
	g.feedWg.Done()
}

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
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/stats"
)

// BridgeNode is the interface the gateway uses to reach the bridge. This
// decouples the HTTP server from the concrete state machine and enables
// testing with mock implementations.
type BridgeNode interface {
	// ProgramState returns the bridge configuration record
	ProgramState() (*bridge.ProgramState, error)

	// Token returns the record for a universal token ID
	Token(universalTokenId uint64) (*bridge.TokenState, error)

	// Tokens lists token records by ID starting at startId
	Tokens(startId uint64, limit int) ([]bridge.TokenState, error)

	// Holders returns the unit ledger view of a token
	Holders(universalTokenId uint64) (*bridge.TokenHolders, error)

	// OutboundEvents lists committed burns after a sequence number
	OutboundEvents(afterId uint64, limit int) ([]event.BurnToOriginEvent, error)

	OnCrossChainCall(
		ctx context.Context,
		caller address.Address,
		envelope []byte,
	) error

	BurnToOrigin(
		ctx context.Context,
		caller address.Address,
		universalTokenId uint64,
		destinationChain []byte,
		receiver []byte,
	) (*event.BurnToOriginEvent, error)
}

// StatsSource provides bridge activity statistics
type StatsSource interface {
	Snapshot() stats.Snapshot
}

// GatewayConfig holds the gateway listener settings
type GatewayConfig struct {
	ListenAddress string
	// MaxBodySize bounds request bodies. Zero uses DefaultMaxBodySize
	MaxBodySize int64
	// MaxClockSkew bounds signed request timestamps. Zero uses
	// DefaultMaxClockSkew
	MaxClockSkew time.Duration
}

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

package event

import (
	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
)

const (
	MintFromOriginEventType = EventType("bridge.mint_from_origin")
	UpdateMetadataEventType = EventType("bridge.update_metadata")
	BurnToOriginEventType   = EventType("bridge.burn_to_origin")
)

// MintFromOriginEvent is published after a local representation of an
// origin-chain token has been committed
type MintFromOriginEvent struct {
	Uri              string
	Name             string
	Symbol           string
	Creator          []byte
	UniversalTokenId uint64
	Recipient        address.Address
	Unit             address.Address
	RoyaltyBps       uint16
}

// UpdateMetadataEvent is published after a token's uri and name were changed
type UpdateMetadataEvent struct {
	Uri              string
	Name             string
	UniversalTokenId uint64
}

// BurnToOriginEvent carries a committed burn to the origin-chain relayer.
// Sequence is the outbox id of the stored event.
type BurnToOriginEvent struct {
	Payload  codec.BurnToOriginPayload
	Uri      string
	Name     string
	Creator  []byte
	Sequence uint64
	Burner   address.Address
}

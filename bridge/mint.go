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

package bridge

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/ledger"
)

// mintFromOrigin creates the local representation of an origin-chain token
func (b *Bridge) mintFromOrigin(
	txn *database.Txn,
	p *codec.MintFromOriginPayload,
	accts Accounts,
) (func(), error) {
	locs := DeriveLocations(b.config.ProgramId, p.UniversalTokenId)
	if err := locs.verify(accts); err != nil {
		return nil, err
	}
	_, err := b.loadToken(txn, locs)
	if err == nil {
		return nil, fmt.Errorf("%w: universal token id %d", ErrAlreadyMinted, p.UniversalTokenId)
	}
	if !errors.Is(err, ErrNFTStateNotFound) {
		return nil, err
	}
	if err := b.units.CreateUnit(txn, locs.Unit, locs.ProgramState, 0); err != nil {
		if errors.Is(err, ledger.ErrUnitExists) {
			return nil, fmt.Errorf("%w: %w", ErrAlreadyMinted, err)
		}
		return nil, err
	}
	if err := b.units.Mint(txn, locs.Unit, locs.ProgramState, p.Recipient, 1); err != nil {
		return nil, err
	}
	err = b.registry.Register(
		txn,
		locs.Metadata,
		ledger.TokenMetadata{
			Name:            p.Name,
			Symbol:          p.Symbol,
			Uri:             p.Uri,
			RoyaltyBps:      p.RoyaltyBps,
			Unit:            locs.Unit,
			UpdateAuthority: locs.ProgramState,
			Creators: []ledger.Creator{
				{Address: locs.ProgramState, Verified: true, Share: 100},
			},
		},
	)
	if err != nil {
		return nil, err
	}
	token := &TokenState{
		UniversalTokenId: p.UniversalTokenId,
		LocalAssetHandle: locs.Unit,
		OriginalOwner:    p.Creator,
		CurrentOwner:     p.Recipient,
		Uri:              p.Uri,
		Name:             p.Name,
		Symbol:           p.Symbol,
		Creator:          p.Creator,
		RoyaltyBps:       p.RoyaltyBps,
		Status:           StatusActive,
	}
	if err := b.db.SetTokenState(locs.TokenState.Bytes(), token.record(), txn); err != nil {
		return nil, err
	}
	return func() {
		b.logger.Info(
			"minted token from origin",
			"component", "bridge",
			"universal_token_id", p.UniversalTokenId,
			"recipient", p.Recipient.String(),
			"unit", locs.Unit.String(),
		)
		if b.metrics != nil {
			b.metrics.active.Inc()
		}
		b.emitter.emitMint(
			event.MintFromOriginEvent{
				UniversalTokenId: p.UniversalTokenId,
				Recipient:        p.Recipient,
				Unit:             locs.Unit,
				Uri:              p.Uri,
				Name:             p.Name,
				Symbol:           p.Symbol,
				Creator:          p.Creator,
				RoyaltyBps:       p.RoyaltyBps,
			},
		)
	}, nil
}

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
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/event"
)

// updateMetadata overwrites the uri and name of an active token. Symbol,
// royalty and creators are left as they are.
func (b *Bridge) updateMetadata(
	txn *database.Txn,
	p *codec.UpdateMetadataPayload,
	accts Accounts,
) (func(), error) {
	locs := DeriveLocations(b.config.ProgramId, p.UniversalTokenId)
	if err := locs.verify(accts); err != nil {
		return nil, err
	}
	token, err := b.loadToken(txn, locs)
	if err != nil {
		return nil, err
	}
	if token.Status != StatusActive {
		return nil, ErrNFTStateNotFound
	}
	err = b.registry.Update(
		txn,
		locs.Metadata,
		token.LocalAssetHandle,
		locs.ProgramState,
		p.NewName,
		p.NewUri,
	)
	if err != nil {
		return nil, err
	}
	token.Uri = p.NewUri
	token.Name = p.NewName
	if err := b.db.SetTokenState(locs.TokenState.Bytes(), token.record(), txn); err != nil {
		return nil, err
	}
	return func() {
		b.logger.Info(
			"updated token metadata",
			"component", "bridge",
			"universal_token_id", p.UniversalTokenId,
		)
		b.emitter.emitUpdate(
			event.UpdateMetadataEvent{
				UniversalTokenId: p.UniversalTokenId,
				Uri:              p.NewUri,
				Name:             p.NewName,
			},
		)
	}, nil
}

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
	"github.com/blinklabs-io/nftbridge/address"
)

type Holder struct {
	Owner  address.Address `json:"owner"`
	Amount uint64          `json:"amount"`
}

// TokenHolders is the unit ledger view of a token. An Active token has a
// supply of exactly one held by its current owner; a Returned token has none.
type TokenHolders struct {
	Holders          []Holder        `json:"holders"`
	UniversalTokenId uint64          `json:"universal_token_id"`
	Supply           uint64          `json:"supply"`
	LocalAssetHandle address.Address `json:"local_asset_handle"`
	Status           Status          `json:"status"`
}

// Holders reads the unit supply and balances behind a token record
func (b *Bridge) Holders(universalTokenId uint64) (*TokenHolders, error) {
	txn := b.db.Transaction(false)
	defer txn.Release()
	locs := DeriveLocations(b.config.ProgramId, universalTokenId)
	token, err := b.loadToken(txn, locs)
	if err != nil {
		return nil, err
	}
	supply, err := b.units.Supply(txn, token.LocalAssetHandle)
	if err != nil {
		return nil, err
	}
	holdings, err := b.units.Holders(txn, token.LocalAssetHandle)
	if err != nil {
		return nil, err
	}
	ret := &TokenHolders{
		UniversalTokenId: universalTokenId,
		LocalAssetHandle: token.LocalAssetHandle,
		Status:           token.Status,
		Supply:           supply,
		Holders:          make([]Holder, 0, len(holdings)),
	}
	for _, holding := range holdings {
		ret.Holders = append(ret.Holders, Holder{Owner: holding.Owner, Amount: holding.Amount})
	}
	return ret, nil
}

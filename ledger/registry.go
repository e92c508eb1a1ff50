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

package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/database/models"
)

var (
	ErrInvalidMetadataAccount      = errors.New("invalid metadata account")
	ErrUnauthorizedUpdateAuthority = errors.New("unauthorized update authority")
	ErrMetadataExists              = errors.New("metadata already registered")
	ErrInvalidCreators             = errors.New("creator shares must total 100")
)

// Creator is a verified or unverified contributor credited in token metadata
type Creator struct {
	Address  address.Address `json:"address"`
	Verified bool            `json:"verified"`
	Share    uint8           `json:"share"`
}

// TokenMetadata is a registry entry describing a unit
type TokenMetadata struct {
	Name            string          `json:"name"`
	Symbol          string          `json:"symbol"`
	Uri             string          `json:"uri"`
	Creators        []Creator       `json:"creators"`
	Unit            address.Address `json:"unit"`
	UpdateAuthority address.Address `json:"update_authority"`
	RoyaltyBps      uint16          `json:"royalty_bps"`
}

// Registry is the token metadata registry
type Registry struct {
	logger *slog.Logger
}

func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Registry{logger: logger}
}

// Register creates the entry at location. The unit must exist
func (r *Registry) Register(
	txn *database.Txn,
	location address.Address,
	meta TokenMetadata,
) error {
	mTxn, err := metadataTxn(txn)
	if err != nil {
		return err
	}
	store := txn.DB().Metadata()
	unit, err := store.GetUnit(meta.Unit.Bytes(), mTxn)
	if err != nil {
		return err
	}
	if unit == nil {
		return fmt.Errorf("%w: %s", ErrUnitNotFound, meta.Unit)
	}
	existing, err := store.GetTokenMetadata(location.Bytes(), mTxn)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrMetadataExists, location)
	}
	var shares int
	creators := make([]models.TokenCreator, 0, len(meta.Creators))
	for _, creator := range meta.Creators {
		shares += int(creator.Share)
		creators = append(
			creators,
			models.TokenCreator{
				Address:  creator.Address.Bytes(),
				Verified: creator.Verified,
				Share:    creator.Share,
			},
		)
	}
	if len(creators) > 0 && shares != 100 {
		return ErrInvalidCreators
	}
	return store.AddTokenMetadata(
		&models.TokenMetadata{
			Location:        location.Bytes(),
			UnitHandle:      meta.Unit.Bytes(),
			UpdateAuthority: meta.UpdateAuthority.Bytes(),
			Name:            meta.Name,
			Symbol:          meta.Symbol,
			Uri:             meta.Uri,
			RoyaltyBps:      meta.RoyaltyBps,
			Creators:        creators,
		},
		mTxn,
	)
}

// Get returns the entry at location
func (r *Registry) Get(
	txn *database.Txn,
	location address.Address,
) (*TokenMetadata, error) {
	mTxn, err := metadataTxn(txn)
	if err != nil {
		return nil, err
	}
	tmp, err := txn.DB().Metadata().GetTokenMetadata(location.Bytes(), mTxn)
	if err != nil {
		return nil, err
	}
	if tmp == nil {
		return nil, fmt.Errorf("%w: no entry at %s", ErrInvalidMetadataAccount, location)
	}
	return metadataFromModel(tmp)
}

// Update replaces the name and URI of the entry at location. Symbol,
// royalty and creators are left untouched.
func (r *Registry) Update(
	txn *database.Txn,
	location address.Address,
	unit address.Address,
	updateAuthority address.Address,
	name string,
	uri string,
) error {
	mTxn, err := metadataTxn(txn)
	if err != nil {
		return err
	}
	meta, err := r.Get(txn, location)
	if err != nil {
		return err
	}
	if meta.Unit != unit {
		return fmt.Errorf("%w: entry belongs to another unit", ErrInvalidMetadataAccount)
	}
	if meta.UpdateAuthority != updateAuthority {
		return ErrUnauthorizedUpdateAuthority
	}
	return txn.DB().Metadata().UpdateTokenMetadata(location.Bytes(), name, uri, mTxn)
}

func metadataFromModel(tmp *models.TokenMetadata) (*TokenMetadata, error) {
	unit, err := address.FromBytes(tmp.UnitHandle)
	if err != nil {
		return nil, err
	}
	updateAuthority, err := address.FromBytes(tmp.UpdateAuthority)
	if err != nil {
		return nil, err
	}
	ret := &TokenMetadata{
		Name:            tmp.Name,
		Symbol:          tmp.Symbol,
		Uri:             tmp.Uri,
		Unit:            unit,
		UpdateAuthority: updateAuthority,
		RoyaltyBps:      tmp.RoyaltyBps,
		Creators:        make([]Creator, 0, len(tmp.Creators)),
	}
	for _, creator := range tmp.Creators {
		creatorAddr, err := address.FromBytes(creator.Address)
		if err != nil {
			return nil, err
		}
		ret.Creators = append(
			ret.Creators,
			Creator{
				Address:  creatorAddr,
				Verified: creator.Verified,
				Share:    creator.Share,
			},
		)
	}
	return ret, nil
}

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
	"encoding/hex"
	"fmt"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/database"
)

// Collection field bounds
const (
	MaxCollectionNameLength   = 16
	MaxCollectionSymbolLength = 8
	MaxCollectionUriLength    = 64
)

type Status uint8

const (
	StatusActive   Status = 1
	StatusReturned Status = 2
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusReturned:
		return "returned"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(s))
	}
}

// MarshalText rejects values UnmarshalText could not read back
func (s Status) MarshalText() ([]byte, error) {
	switch s {
	case StatusActive, StatusReturned:
		return []byte(s.String()), nil
	default:
		return nil, fmt.Errorf("unknown token status: %d", uint8(s))
	}
}

func (s *Status) UnmarshalText(data []byte) error {
	switch string(data) {
	case "active":
		*s = StatusActive
	case "returned":
		*s = StatusReturned
	default:
		return fmt.Errorf("unknown token status: %q", string(data))
	}
	return nil
}

// ProgramState is the singleton bridge configuration
type ProgramState struct {
	CollectionName   string          `json:"collection_name"`
	CollectionSymbol string          `json:"collection_symbol"`
	CollectionUri    string          `json:"collection_uri"`
	NextTokenId      uint64          `json:"next_token_id"`
	Authority        address.Address `json:"authority"`
	RelayerIdentity  address.Address `json:"relayer_identity"`
}

func programStateFromRecord(rec *database.ProgramState) (*ProgramState, error) {
	authority, err := address.FromBytes(rec.Authority)
	if err != nil {
		return nil, fmt.Errorf("program state authority: %w", err)
	}
	relayer, err := address.FromBytes(rec.RelayerIdentity)
	if err != nil {
		return nil, fmt.Errorf("program state relayer: %w", err)
	}
	return &ProgramState{
		Authority:        authority,
		CollectionName:   rec.CollectionName,
		CollectionSymbol: rec.CollectionSymbol,
		CollectionUri:    rec.CollectionUri,
		RelayerIdentity:  relayer,
		NextTokenId:      rec.NextTokenId,
	}, nil
}

func (s *ProgramState) record() *database.ProgramState {
	return &database.ProgramState{
		Authority:        s.Authority.Bytes(),
		CollectionName:   s.CollectionName,
		CollectionSymbol: s.CollectionSymbol,
		CollectionUri:    s.CollectionUri,
		RelayerIdentity:  s.RelayerIdentity.Bytes(),
		NextTokenId:      s.NextTokenId,
	}
}

// TokenState is the lifecycle record of one bridged token
type TokenState struct {
	Uri              string          `json:"uri"`
	Name             string          `json:"name"`
	Symbol           string          `json:"symbol"`
	OriginalOwner    hexBytes        `json:"original_owner"`
	Creator          hexBytes        `json:"creator"`
	UniversalTokenId uint64          `json:"universal_token_id"`
	LocalAssetHandle address.Address `json:"local_asset_handle"`
	CurrentOwner     address.Address `json:"current_owner"`
	RoyaltyBps       uint16          `json:"royalty_bps"`
	Status           Status          `json:"status"`
}

func tokenStateFromRecord(rec *database.TokenState) (*TokenState, error) {
	handle, err := address.FromBytes(rec.LocalAssetHandle)
	if err != nil {
		return nil, fmt.Errorf("token state asset handle: %w", err)
	}
	owner, err := address.FromBytes(rec.CurrentOwner)
	if err != nil {
		return nil, fmt.Errorf("token state owner: %w", err)
	}
	return &TokenState{
		UniversalTokenId: rec.UniversalTokenId,
		LocalAssetHandle: handle,
		OriginalOwner:    rec.OriginalOwner,
		CurrentOwner:     owner,
		Uri:              rec.Uri,
		Name:             rec.Name,
		Symbol:           rec.Symbol,
		Creator:          rec.Creator,
		RoyaltyBps:       rec.RoyaltyBps,
		Status:           Status(rec.Status),
	}, nil
}

func (s *TokenState) record() *database.TokenState {
	return &database.TokenState{
		UniversalTokenId: s.UniversalTokenId,
		LocalAssetHandle: s.LocalAssetHandle.Bytes(),
		OriginalOwner:    s.OriginalOwner,
		CurrentOwner:     s.CurrentOwner.Bytes(),
		Uri:              s.Uri,
		Name:             s.Name,
		Symbol:           s.Symbol,
		Creator:          s.Creator,
		RoyaltyBps:       s.RoyaltyBps,
		Status:           uint8(s.Status),
	}
}

type hexBytes []byte

func (b hexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

func (b *hexBytes) UnmarshalText(data []byte) error {
	tmp, err := hex.DecodeString(string(data))
	if err != nil {
		return err
	}
	*b = tmp
	return nil
}

// Accounts lists the storage locations a caller supplies with a call. Zero
// fields are derived.
type Accounts struct {
	ProgramState address.Address
	TokenState   address.Address
	Unit         address.Address
	Metadata     address.Address
}

// Locations are the derived storage locations of one token
type Locations struct {
	ProgramState address.Address
	TokenState   address.Address
	Unit         address.Address
	Metadata     address.Address
}

// DeriveLocations computes the storage locations of a token under programId
func DeriveLocations(programId address.Address, universalTokenId uint64) Locations {
	unit := address.UnitLocation(programId, universalTokenId)
	return Locations{
		ProgramState: address.ProgramStateLocation(programId),
		TokenState:   address.TokenStateLocation(programId, universalTokenId),
		Unit:         unit,
		Metadata:     address.MetadataLocation(programId, unit),
	}
}

// verify rejects supplied accounts that differ from the derived locations
func (l Locations) verify(accts Accounts) error {
	check := func(name string, supplied, derived address.Address) error {
		if supplied.IsZero() || supplied == derived {
			return nil
		}
		return fmt.Errorf(
			"%w: %s is %s, expected %s",
			ErrLocationMismatch,
			name,
			supplied,
			derived,
		)
	}
	if err := check("program state", accts.ProgramState, l.ProgramState); err != nil {
		return err
	}
	if err := check("token state", accts.TokenState, l.TokenState); err != nil {
		return err
	}
	if err := check("unit", accts.Unit, l.Unit); err != nil {
		return err
	}
	if !accts.Metadata.IsZero() && accts.Metadata != l.Metadata {
		return fmt.Errorf(
			"%w: metadata location is %s, expected %s",
			ErrInvalidMetadataAccount,
			accts.Metadata,
			l.Metadata,
		)
	}
	return nil
}

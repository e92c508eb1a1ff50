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

package database

import (
	"errors"
	"fmt"

	"github.com/blinklabs-io/gouroboros/cbor"
	"github.com/blinklabs-io/nftbridge/database/types"
)

// ErrRecordNotFound is returned when a bridge record does not exist
var ErrRecordNotFound = errors.New("record not found")

// ProgramState is the stored form of the singleton bridge configuration
type ProgramState struct {
	cbor.StructAsArray
	Authority        []byte
	CollectionName   string
	CollectionSymbol string
	CollectionUri    string
	RelayerIdentity  []byte
	NextTokenId      uint64
}

// TokenState is the stored form of a per-token lifecycle record
type TokenState struct {
	cbor.StructAsArray
	UniversalTokenId uint64
	LocalAssetHandle []byte
	OriginalOwner    []byte
	CurrentOwner     []byte
	Uri              string
	Name             string
	Symbol           string
	Creator          []byte
	RoyaltyBps       uint16
	Status           uint8
}

func blobGet(txn *Txn, key []byte, dest any) error {
	if txn == nil || txn.Blob() == nil {
		return types.ErrNilTxn
	}
	blob := txn.DB().Blob()
	if blob == nil {
		return types.ErrBlobStoreUnavailable
	}
	val, err := blob.Get(txn.Blob(), key)
	if err != nil {
		if errors.Is(err, types.ErrBlobKeyNotFound) {
			return ErrRecordNotFound
		}
		return err
	}
	if _, err := cbor.Decode(val, dest); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

func blobSet(txn *Txn, key []byte, val any) error {
	if txn == nil || txn.Blob() == nil {
		return types.ErrNilTxn
	}
	blob := txn.DB().Blob()
	if blob == nil {
		return types.ErrBlobStoreUnavailable
	}
	data, err := cbor.Encode(val)
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	return blob.Set(txn.Blob(), key, data)
}

// GetProgramState returns the configuration record at location
func (d *Database) GetProgramState(
	location []byte,
	txn *Txn,
) (*ProgramState, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var ret ProgramState
	if err := blobGet(txn, types.ProgramStateBlobKey(location), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (d *Database) SetProgramState(
	location []byte,
	state *ProgramState,
	txn *Txn,
) error {
	return blobSet(txn, types.ProgramStateBlobKey(location), state)
}

// GetTokenState returns the token record at location
func (d *Database) GetTokenState(
	location []byte,
	txn *Txn,
) (*TokenState, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	var ret TokenState
	if err := blobGet(txn, types.TokenStateBlobKey(location), &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// SetTokenState writes the token record at location along with its ID index entry
func (d *Database) SetTokenState(
	location []byte,
	state *TokenState,
	txn *Txn,
) error {
	if err := blobSet(txn, types.TokenStateBlobKey(location), state); err != nil {
		return err
	}
	return txn.DB().Blob().Set(
		txn.Blob(),
		types.TokenIndexBlobKey(state.UniversalTokenId),
		location,
	)
}

// TokenStates returns up to limit token records with an ID of at least
// startId, in ID order. A limit of zero returns all of them.
func (d *Database) TokenStates(
	startId uint64,
	limit int,
	txn *Txn,
) ([]TokenState, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	if txn.Blob() == nil {
		return nil, types.ErrNilTxn
	}
	blob := d.Blob()
	prefix := []byte(types.TokenIndexBlobKeyPrefix)
	iter := blob.NewIterator(
		txn.Blob(),
		types.BlobIteratorOptions{Prefix: prefix},
	)
	defer iter.Close()
	var locations [][]byte
	for iter.Seek(types.TokenIndexBlobKey(startId)); iter.ValidForPrefix(prefix); iter.Next() {
		if limit > 0 && len(locations) >= limit {
			break
		}
		location, err := iter.Item().ValueCopy(nil)
		if err != nil {
			return nil, err
		}
		locations = append(locations, location)
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	ret := make([]TokenState, 0, len(locations))
	for _, location := range locations {
		state, err := d.GetTokenState(location, txn)
		if err != nil {
			return nil, fmt.Errorf("token index entry: %w", err)
		}
		ret = append(ret, *state)
	}
	return ret, nil
}

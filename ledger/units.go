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

// Package ledger provides the host ledger services consumed by the bridge:
// a fungible-unit ledger and a token metadata registry, both stored in the
// metadata database.
package ledger

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/database/models"
	"github.com/blinklabs-io/nftbridge/database/types"
)

var (
	ErrUnitExists          = errors.New("unit already exists")
	ErrUnitNotFound        = errors.New("unit not found")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrMintAuthority       = errors.New("signer is not the mint authority")
	ErrInvalidAmount       = errors.New("invalid amount")
)

// Holding is a non-zero balance of a unit
type Holding struct {
	Owner  address.Address
	Amount uint64
}

// Units is the fungible-unit ledger
type Units struct {
	logger *slog.Logger
}

func NewUnits(logger *slog.Logger) *Units {
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	return &Units{logger: logger}
}

func metadataTxn(txn *database.Txn) (types.Txn, error) {
	if txn == nil || txn.Metadata() == nil {
		return nil, types.ErrNilTxn
	}
	return txn.Metadata(), nil
}

// CreateUnit defines a new unit with the given mint authority
func (u *Units) CreateUnit(
	txn *database.Txn,
	handle address.Address,
	mintAuthority address.Address,
	decimals uint8,
) error {
	mTxn, err := metadataTxn(txn)
	if err != nil {
		return err
	}
	store := txn.DB().Metadata()
	existing, err := store.GetUnit(handle.Bytes(), mTxn)
	if err != nil {
		return err
	}
	if existing != nil {
		return fmt.Errorf("%w: %s", ErrUnitExists, handle)
	}
	return store.AddUnit(
		&models.Unit{
			Handle:        handle.Bytes(),
			MintAuthority: mintAuthority.Bytes(),
			Decimals:      decimals,
		},
		mTxn,
	)
}

func (u *Units) getUnit(
	txn *database.Txn,
	handle address.Address,
) (*models.Unit, error) {
	unit, err := txn.DB().Metadata().GetUnit(handle.Bytes(), txn.Metadata())
	if err != nil {
		return nil, err
	}
	if unit == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnitNotFound, handle)
	}
	return unit, nil
}

// Mint issues qty units to owner. The signer must be the unit's mint authority
func (u *Units) Mint(
	txn *database.Txn,
	handle address.Address,
	signer address.Address,
	owner address.Address,
	qty uint64,
) error {
	if _, err := metadataTxn(txn); err != nil {
		return err
	}
	if qty == 0 {
		return ErrInvalidAmount
	}
	unit, err := u.getUnit(txn, handle)
	if err != nil {
		return err
	}
	mintAuthority, err := address.FromBytes(unit.MintAuthority)
	if err != nil || mintAuthority != signer {
		return ErrMintAuthority
	}
	store := txn.DB().Metadata()
	balance, err := store.GetUnitBalance(handle.Bytes(), owner.Bytes(), txn.Metadata())
	if err != nil {
		return err
	}
	if balance+qty < balance || uint64(unit.Supply)+qty < uint64(unit.Supply) {
		return fmt.Errorf("%w: supply overflow", ErrInvalidAmount)
	}
	if err := store.SetUnitBalance(handle.Bytes(), owner.Bytes(), balance+qty, txn.Metadata()); err != nil {
		return err
	}
	return store.SetUnitSupply(handle.Bytes(), uint64(unit.Supply)+qty, txn.Metadata())
}

// Balance returns the amount of a unit held by owner
func (u *Units) Balance(
	txn *database.Txn,
	handle address.Address,
	owner address.Address,
) (uint64, error) {
	mTxn, err := metadataTxn(txn)
	if err != nil {
		return 0, err
	}
	return txn.DB().Metadata().GetUnitBalance(handle.Bytes(), owner.Bytes(), mTxn)
}

// Burn destroys qty units held by owner
func (u *Units) Burn(
	txn *database.Txn,
	handle address.Address,
	owner address.Address,
	qty uint64,
) error {
	if _, err := metadataTxn(txn); err != nil {
		return err
	}
	if qty == 0 {
		return ErrInvalidAmount
	}
	unit, err := u.getUnit(txn, handle)
	if err != nil {
		return err
	}
	store := txn.DB().Metadata()
	balance, err := store.GetUnitBalance(handle.Bytes(), owner.Bytes(), txn.Metadata())
	if err != nil {
		return err
	}
	if balance < qty {
		return fmt.Errorf(
			"%w: have %d, need %d",
			ErrInsufficientBalance,
			balance,
			qty,
		)
	}
	if err := store.SetUnitBalance(handle.Bytes(), owner.Bytes(), balance-qty, txn.Metadata()); err != nil {
		return err
	}
	supply := uint64(unit.Supply)
	if supply < qty {
		return fmt.Errorf("%w: supply below burn amount", ErrInsufficientBalance)
	}
	return store.SetUnitSupply(handle.Bytes(), supply-qty, txn.Metadata())
}

// Supply returns the circulating amount of a unit
func (u *Units) Supply(
	txn *database.Txn,
	handle address.Address,
) (uint64, error) {
	if _, err := metadataTxn(txn); err != nil {
		return 0, err
	}
	unit, err := u.getUnit(txn, handle)
	if err != nil {
		return 0, err
	}
	return uint64(unit.Supply), nil
}

// Holders returns every owner with a non-zero balance of the unit
func (u *Units) Holders(
	txn *database.Txn,
	handle address.Address,
) ([]Holding, error) {
	mTxn, err := metadataTxn(txn)
	if err != nil {
		return nil, err
	}
	balances, err := txn.DB().Metadata().GetUnitHolders(handle.Bytes(), mTxn)
	if err != nil {
		return nil, err
	}
	ret := make([]Holding, 0, len(balances))
	for _, balance := range balances {
		owner, err := address.FromBytes(balance.Owner)
		if err != nil {
			return nil, err
		}
		ret = append(ret, Holding{Owner: owner, Amount: uint64(balance.Amount)})
	}
	return ret, nil
}

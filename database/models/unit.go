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

package models

import "github.com/blinklabs-io/nftbridge/database/types"

// Unit is a fungible-unit definition used as the local representation of a token
type Unit struct {
	Handle        []byte `gorm:"uniqueIndex;size:32"`
	MintAuthority []byte `gorm:"size:32"`
	ID            uint   `gorm:"primaryKey"`
	Supply        types.Uint64
	Decimals      uint8
}

func (Unit) TableName() string {
	return "unit"
}

// UnitBalance is the amount of a unit held by an owner
type UnitBalance struct {
	UnitHandle []byte `gorm:"uniqueIndex:idx_unit_balance_owner;size:32"`
	Owner      []byte `gorm:"uniqueIndex:idx_unit_balance_owner;index:idx_unit_balance_owner_only;size:32"`
	ID         uint   `gorm:"primaryKey"`
	Amount     types.Uint64
}

func (UnitBalance) TableName() string {
	return "unit_balance"
}

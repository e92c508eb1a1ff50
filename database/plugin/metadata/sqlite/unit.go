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

package sqlite

import (
	"errors"

	"github.com/blinklabs-io/nftbridge/database/models"
	"github.com/blinklabs-io/nftbridge/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GetUnit returns the unit with the given handle, or nil if there is none
func (d *MetadataStoreSqlite) GetUnit(
	handle []byte,
	txn types.Txn,
) (*models.Unit, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var unit models.Unit
	result := db.Where("handle = ?", handle).First(&unit)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &unit, nil
}

func (d *MetadataStoreSqlite) AddUnit(
	unit *models.Unit,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(unit).Error
}

func (d *MetadataStoreSqlite) SetUnitSupply(
	handle []byte,
	supply uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.Unit{}).
		Where("handle = ?", handle).
		Update("supply", types.Uint64(supply))
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetUnitBalance returns the amount of a unit held by owner. A missing row is a zero balance
func (d *MetadataStoreSqlite) GetUnitBalance(
	handle []byte,
	owner []byte,
	txn types.Txn,
) (uint64, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return 0, err
	}
	var balance models.UnitBalance
	result := db.Where("unit_handle = ? AND owner = ?", handle, owner).
		First(&balance)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, result.Error
	}
	return uint64(balance.Amount), nil
}

// SetUnitBalance stores the amount held by owner, removing the row when it reaches zero
func (d *MetadataStoreSqlite) SetUnitBalance(
	handle []byte,
	owner []byte,
	amount uint64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	if amount == 0 {
		return db.Where("unit_handle = ? AND owner = ?", handle, owner).
			Delete(&models.UnitBalance{}).Error
	}
	balance := models.UnitBalance{
		UnitHandle: handle,
		Owner:      owner,
		Amount:     types.Uint64(amount),
	}
	return db.Clauses(clause.OnConflict{
		Columns: []clause.Column{
			{Name: "unit_handle"},
			{Name: "owner"},
		},
		DoUpdates: clause.AssignmentColumns([]string{"amount"}),
	}).Create(&balance).Error
}

// GetUnitHolders returns every non-zero balance for a unit
func (d *MetadataStoreSqlite) GetUnitHolders(
	handle []byte,
	txn types.Txn,
) ([]models.UnitBalance, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.UnitBalance
	result := db.Where("unit_handle = ?", handle).Order("id").Find(&ret)
	if result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

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
)

// GetTokenMetadata returns the registry entry at location with its creators, or nil
func (d *MetadataStoreSqlite) GetTokenMetadata(
	location []byte,
	txn types.Txn,
) (*models.TokenMetadata, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret models.TokenMetadata
	result := db.Preload("Creators", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).
		Where("location = ?", location).
		First(&ret)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, result.Error
	}
	return &ret, nil
}

// AddTokenMetadata creates a registry entry and its creators
func (d *MetadataStoreSqlite) AddTokenMetadata(
	metadata *models.TokenMetadata,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(metadata).Error
}

// UpdateTokenMetadata replaces the name and URI of an entry. Other fields are left untouched
func (d *MetadataStoreSqlite) UpdateTokenMetadata(
	location []byte,
	name string,
	uri string,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	result := db.Model(&models.TokenMetadata{}).
		Where("location = ?", location).
		Updates(map[string]any{
			"name": name,
			"uri":  uri,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

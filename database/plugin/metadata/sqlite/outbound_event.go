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
	"github.com/blinklabs-io/nftbridge/database/models"
	"github.com/blinklabs-io/nftbridge/database/types"
)

// AddOutboundEvent appends an event to the outbox, assigning its sequence ID
func (d *MetadataStoreSqlite) AddOutboundEvent(
	evt *models.OutboundEvent,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	return db.Create(evt).Error
}

// GetOutboundEvents returns up to limit events with a sequence ID greater than afterId
func (d *MetadataStoreSqlite) GetOutboundEvents(
	afterId uint64,
	limit int,
	txn types.Txn,
) ([]models.OutboundEvent, error) {
	db, err := d.resolveDB(txn)
	if err != nil {
		return nil, err
	}
	var ret []models.OutboundEvent
	query := db.Where("id > ?", afterId).Order("id")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if result := query.Find(&ret); result.Error != nil {
		return nil, result.Error
	}
	return ret, nil
}

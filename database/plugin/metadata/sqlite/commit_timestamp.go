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
	"fmt"

	"github.com/blinklabs-io/nftbridge/database/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ledgerCommitRow is the only row of the ledger_commit table
const ledgerCommitRow = 1

// LedgerCommit holds the time of the last bridge transition committed to the
// ledger tables. The blob store keeps the same value next to the token
// records so the two stores can be checked against each other on open.
type LedgerCommit struct {
	ID        uint `gorm:"primarykey"`
	Timestamp int64
}

func (LedgerCommit) TableName() string {
	return "ledger_commit"
}

// GetCommitTimestamp returns 0 for a ledger that has never committed
func (d *MetadataStoreSqlite) GetCommitTimestamp() (int64, error) {
	var row LedgerCommit
	if err := d.DB().First(&row, ledgerCommitRow).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, fmt.Errorf("ledger commit timestamp: %w", err)
	}
	return row.Timestamp, nil
}

func (d *MetadataStoreSqlite) SetCommitTimestamp(
	timestamp int64,
	txn types.Txn,
) error {
	db, err := d.resolveDB(txn)
	if err != nil {
		return err
	}
	row := LedgerCommit{ID: ledgerCommitRow, Timestamp: timestamp}
	return db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"timestamp"}),
	}).Create(&row).Error
}

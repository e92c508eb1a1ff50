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
	"github.com/blinklabs-io/nftbridge/database/models"
	"github.com/blinklabs-io/nftbridge/database/types"
)

// AddOutboundEvent appends evt to the outbox as part of txn
func (d *Database) AddOutboundEvent(
	evt *models.OutboundEvent,
	txn *Txn,
) error {
	if txn == nil || txn.Metadata() == nil {
		return types.ErrNilTxn
	}
	return d.metadata.AddOutboundEvent(evt, txn.Metadata())
}

// OutboundEvents returns up to limit outbox entries after the given sequence ID
func (d *Database) OutboundEvents(
	afterId uint64,
	limit int,
	txn *Txn,
) ([]models.OutboundEvent, error) {
	if txn == nil {
		txn = d.Transaction(false)
		defer txn.Release()
	}
	return d.metadata.GetOutboundEvents(afterId, limit, txn.Metadata())
}

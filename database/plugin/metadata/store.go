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

package metadata

import (
	"fmt"

	"github.com/blinklabs-io/nftbridge/database/models"
	"github.com/blinklabs-io/nftbridge/database/plugin"
	"github.com/blinklabs-io/nftbridge/database/types"
	"gorm.io/gorm"
)

type MetadataStore interface {
	plugin.Plugin

	// Database
	Close() error
	DB() *gorm.DB
	GetCommitTimestamp() (int64, error)
	SetCommitTimestamp(int64, types.Txn) error
	Transaction() types.Txn

	// Unit ledger
	GetUnit([]byte, types.Txn) (*models.Unit, error)
	AddUnit(*models.Unit, types.Txn) error
	SetUnitSupply([]byte, uint64, types.Txn) error
	GetUnitBalance(
		[]byte, // unit handle
		[]byte, // owner
		types.Txn,
	) (uint64, error)
	SetUnitBalance(
		[]byte, // unit handle
		[]byte, // owner
		uint64,
		types.Txn,
	) error
	GetUnitHolders([]byte, types.Txn) ([]models.UnitBalance, error)

	// Metadata registry
	GetTokenMetadata([]byte, types.Txn) (*models.TokenMetadata, error)
	AddTokenMetadata(*models.TokenMetadata, types.Txn) error
	UpdateTokenMetadata(
		[]byte, // location
		string, // name
		string, // uri
		types.Txn,
	) error

	// Outbox
	AddOutboundEvent(*models.OutboundEvent, types.Txn) error
	GetOutboundEvents(
		uint64, // after ID
		int, // limit
		types.Txn,
	) ([]models.OutboundEvent, error)
}

// New returns the started metadata plugin selected by name
func New(pluginName string, deps plugin.Deps) (MetadataStore, error) {
	p, err := plugin.StartPlugin(plugin.PluginTypeMetadata, pluginName, deps)
	if err != nil {
		return nil, err
	}
	metadataStore, ok := p.(MetadataStore)
	if !ok {
		return nil, fmt.Errorf(
			"plugin '%s' does not implement MetadataStore interface",
			pluginName,
		)
	}
	return metadataStore, nil
}

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

// TokenMetadata is a metadata registry entry attached to a unit
type TokenMetadata struct {
	Location        []byte         `gorm:"uniqueIndex;size:32"`
	UnitHandle      []byte         `gorm:"uniqueIndex;size:32"`
	UpdateAuthority []byte         `gorm:"size:32"`
	Name            string         `gorm:"size:64"`
	Symbol          string         `gorm:"size:16"`
	Uri             string         `gorm:"size:512"`
	Creators        []TokenCreator `gorm:"foreignKey:TokenMetadataID;constraint:OnDelete:CASCADE"`
	ID              uint           `gorm:"primaryKey"`
	RoyaltyBps      uint16
}

func (TokenMetadata) TableName() string {
	return "token_metadata"
}

type TokenCreator struct {
	Address         []byte `gorm:"size:32"`
	ID              uint   `gorm:"primaryKey"`
	TokenMetadataID uint   `gorm:"index"`
	Share           uint8
	Verified        bool
}

func (TokenCreator) TableName() string {
	return "token_creator"
}

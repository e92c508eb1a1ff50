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

import (
	"time"

	"github.com/blinklabs-io/nftbridge/database/types"
)

// OutboundEvent is a committed burn awaiting pickup by the origin-chain relayer.
// The primary key doubles as the feed sequence number.
type OutboundEvent struct {
	CreatedAt        time.Time
	DestinationChain []byte `gorm:"size:32"`
	Receiver         []byte `gorm:"size:32"`
	OriginalOwner    []byte `gorm:"size:32"`
	Creator          []byte `gorm:"size:32"`
	Burner           []byte `gorm:"size:32"`
	Payload          []byte
	Uri              string       `gorm:"size:512"`
	Name             string       `gorm:"size:64"`
	ID               uint64       `gorm:"primaryKey"`
	UniversalTokenId types.Uint64 `gorm:"index"`
}

func (OutboundEvent) TableName() string {
	return "outbound_event"
}

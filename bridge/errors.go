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

package bridge

import (
	"errors"

	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/ledger"
)

var (
	ErrUnauthorizedGateway = errors.New("caller is not the configured relayer")
	ErrTokenNotOwned       = errors.New("token not owned by signer")
	ErrNFTStateNotFound    = errors.New("nft state not found")
	ErrAlreadyMinted       = errors.New("token already minted")
	ErrAlreadyInitialized  = errors.New("bridge already initialized")
	ErrNotInitialized      = errors.New("bridge not initialized")
	ErrLocationMismatch    = errors.New("supplied location does not match derived location")
	ErrInvalidConfig       = errors.New("invalid collection configuration")

	ErrInvalidInstructionData      = codec.ErrInvalidInstructionData
	ErrInvalidPayload              = codec.ErrInvalidPayload
	ErrInvalidMetadataAccount      = ledger.ErrInvalidMetadataAccount
	ErrUnauthorizedUpdateAuthority = ledger.ErrUnauthorizedUpdateAuthority
)

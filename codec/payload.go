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

package codec

import (
	"fmt"

	"github.com/blinklabs-io/nftbridge/address"
)

// Payload is implemented by every instruction payload variant
type Payload interface {
	Type() InstructionType
	Encode() []byte
}

// MintFromOriginPayload asks for a local representation of an origin-chain token
type MintFromOriginPayload struct {
	UniversalTokenId uint64
	Recipient        address.Address
	Uri              string
	Name             string
	Symbol           string
	Creator          []byte
	RoyaltyBps       uint16
}

func (MintFromOriginPayload) Type() InstructionType {
	return InstructionMintFromOrigin
}

func (p MintFromOriginPayload) Encode() []byte {
	w := &writer{}
	w.u64(p.UniversalTokenId)
	w.identity(p.Recipient)
	w.string(p.Uri)
	w.string(p.Name)
	w.string(p.Symbol)
	w.bytes(p.Creator)
	w.u16(p.RoyaltyBps)
	return w.buf
}

func decodeMintFromOrigin(data []byte) (*MintFromOriginPayload, error) {
	var err error
	p := &MintFromOriginPayload{}
	r := &reader{data: data}
	if p.UniversalTokenId, err = r.u64(); err != nil {
		return nil, err
	}
	if p.Recipient, err = r.identity(); err != nil {
		return nil, err
	}
	if p.Uri, err = r.string("uri", MaxUriLength); err != nil {
		return nil, err
	}
	if p.Name, err = r.string("name", MaxNameLength); err != nil {
		return nil, err
	}
	if p.Symbol, err = r.string("symbol", MaxSymbolLength); err != nil {
		return nil, err
	}
	if p.Creator, err = r.bytes("creator", MaxCreatorLength); err != nil {
		return nil, err
	}
	if p.RoyaltyBps, err = r.u16(); err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	if p.RoyaltyBps > MaxRoyaltyBps {
		return nil, fmt.Errorf(
			"%w: royalty %d bps exceeds %d",
			ErrInvalidPayload,
			p.RoyaltyBps,
			MaxRoyaltyBps,
		)
	}
	return p, nil
}

// UpdateMetadataPayload replaces the display fields of an existing token
type UpdateMetadataPayload struct {
	UniversalTokenId uint64
	NewUri           string
	NewName          string
}

func (UpdateMetadataPayload) Type() InstructionType {
	return InstructionUpdateMetadata
}

func (p UpdateMetadataPayload) Encode() []byte {
	w := &writer{}
	w.u64(p.UniversalTokenId)
	w.string(p.NewUri)
	w.string(p.NewName)
	return w.buf
}

func decodeUpdateMetadata(data []byte) (*UpdateMetadataPayload, error) {
	var err error
	p := &UpdateMetadataPayload{}
	r := &reader{data: data}
	if p.UniversalTokenId, err = r.u64(); err != nil {
		return nil, err
	}
	if p.NewUri, err = r.string("uri", MaxUriLength); err != nil {
		return nil, err
	}
	if p.NewName, err = r.string("name", MaxNameLength); err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// BurnToOriginPayload is the outbound notice that a token went home
type BurnToOriginPayload struct {
	UniversalTokenId uint64
	DestinationChain []byte
	Receiver         []byte
	OriginalOwner    []byte
}

func (BurnToOriginPayload) Type() InstructionType {
	return InstructionBurnToOrigin
}

func (p BurnToOriginPayload) Encode() []byte {
	w := &writer{}
	w.u64(p.UniversalTokenId)
	w.bytes(p.DestinationChain)
	w.bytes(p.Receiver)
	w.bytes(p.OriginalOwner)
	return w.buf
}

func decodeBurnToOrigin(data []byte) (*BurnToOriginPayload, error) {
	var err error
	p := &BurnToOriginPayload{}
	r := &reader{data: data}
	if p.UniversalTokenId, err = r.u64(); err != nil {
		return nil, err
	}
	if p.DestinationChain, err = r.bytes("destination chain", MaxChainLength); err != nil {
		return nil, err
	}
	if p.Receiver, err = r.bytes("receiver", MaxReceiverLength); err != nil {
		return nil, err
	}
	if p.OriginalOwner, err = r.bytes("original owner", MaxOwnerLength); err != nil {
		return nil, err
	}
	if err := r.finish(); err != nil {
		return nil, err
	}
	return p, nil
}

// DecodeBurnToOrigin decodes an outbound burn payload, as a relayer would
func DecodeBurnToOrigin(data []byte) (*BurnToOriginPayload, error) {
	return decodeBurnToOrigin(data)
}

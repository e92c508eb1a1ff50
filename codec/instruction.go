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
)

type InstructionType uint8

const (
	InstructionMintFromOrigin InstructionType = 0
	InstructionUpdateMetadata InstructionType = 1
	InstructionBurnToOrigin   InstructionType = 2
)

// maxInstructionPayload bounds the envelope payload to the largest valid mint
const maxInstructionPayload = 8 + 32 + 4*4 + MaxUriLength + MaxNameLength + MaxSymbolLength + MaxCreatorLength + 2

func (t InstructionType) String() string {
	switch t {
	case InstructionMintFromOrigin:
		return "MintFromOrigin"
	case InstructionUpdateMetadata:
		return "UpdateMetadata"
	case InstructionBurnToOrigin:
		return "BurnToOrigin"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(t))
	}
}

// Instruction is the self-describing envelope carried by a cross-chain call
type Instruction struct {
	Type    InstructionType
	Payload []byte
}

// NewInstruction wraps an encoded payload in its envelope
func NewInstruction(p Payload) Instruction {
	return Instruction{
		Type:    p.Type(),
		Payload: p.Encode(),
	}
}

func (i Instruction) Encode() []byte {
	w := &writer{}
	w.u8(uint8(i.Type))
	w.bytes(i.Payload)
	return w.buf
}

// DecodeInstruction splits an envelope into its type tag and payload bytes.
// The payload itself is not decoded.
func DecodeInstruction(data []byte) (Instruction, error) {
	var ret Instruction
	r := &reader{data: data}
	tag, err := r.u8()
	if err != nil {
		return ret, fmt.Errorf("%w: empty envelope", ErrInvalidInstructionData)
	}
	ret.Type = InstructionType(tag)
	ret.Payload, err = r.bytes("payload", maxInstructionPayload)
	if err != nil {
		return ret, err
	}
	if err := r.finish(); err != nil {
		return ret, err
	}
	return ret, nil
}

// DecodePayload decodes inbound payload bytes for the given instruction type.
// Only the inbound variants are accepted.
func DecodePayload(instructionType InstructionType, data []byte) (Payload, error) {
	switch instructionType {
	case InstructionMintFromOrigin:
		p, err := decodeMintFromOrigin(data)
		if err != nil {
			return nil, err
		}
		return p, nil
	case InstructionUpdateMetadata:
		p, err := decodeUpdateMetadata(data)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf(
			"%w: %s is not an inbound instruction",
			ErrInvalidInstructionData,
			instructionType,
		)
	}
}

// Decode decodes a full envelope and its inbound payload
func Decode(data []byte) (Payload, error) {
	inst, err := DecodeInstruction(data)
	if err != nil {
		return nil, err
	}
	return DecodePayload(inst.Type, inst.Payload)
}

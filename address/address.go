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

package address

import (
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"

	"golang.org/x/crypto/blake2b"
)

const (
	// Size is the length in bytes of an identity or storage location
	Size = 32

	// domainTag separates derived locations from any key hash
	domainTag = "nftbridge/location/v1"
)

// Seed prefixes for the well-known locations
const (
	SeedProgramState = "program_state"
	SeedTokenState   = "nft_state"
	SeedUnit         = "nft_mint"
	SeedMetadata     = "metadata"
)

var ErrInvalidLength = errors.New("invalid address length")

// Address identifies an account or a derived storage location
type Address [Size]byte

// Zero is the unset address
var Zero Address

func (a Address) IsZero() bool {
	return a == Zero
}

func (a Address) Bytes() []byte {
	return a[:]
}

func (a Address) String() string {
	return hex.EncodeToString(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(data []byte) error {
	tmp, err := Parse(string(data))
	if err != nil {
		return err
	}
	*a = tmp
	return nil
}

// FromBytes copies a 32-byte slice into an Address
func FromBytes(data []byte) (Address, error) {
	var ret Address
	if len(data) != Size {
		return ret, fmt.Errorf(
			"%w: expected %d bytes, got %d",
			ErrInvalidLength,
			Size,
			len(data),
		)
	}
	copy(ret[:], data)
	return ret, nil
}

// Parse decodes a hex-encoded address
func Parse(s string) (Address, error) {
	data, err := hex.DecodeString(s)
	if err != nil {
		return Address{}, fmt.Errorf("decode address: %w", err)
	}
	return FromBytes(data)
}

// Derive computes the storage location owned by programId for the given
// seeds. Each seed is length-prefixed so that seed boundaries cannot be
// shifted to produce the same preimage.
func Derive(programId Address, seeds ...[]byte) Address {
	h, err := blake2b.New256(nil)
	if err != nil {
		// Only possible with an oversized key
		panic(err)
	}
	var lenBuf [binary.MaxVarintLen64]byte
	h.Write([]byte(domainTag))
	h.Write(programId[:])
	for _, seed := range seeds {
		n := binary.PutUvarint(lenBuf[:], uint64(len(seed)))
		h.Write(lenBuf[:n])
		h.Write(seed)
	}
	var ret Address
	copy(ret[:], h.Sum(nil))
	return ret
}

func idSeed(id uint64) []byte {
	ret := make([]byte, 8)
	binary.LittleEndian.PutUint64(ret, id)
	return ret
}

// ProgramStateLocation returns the location of the singleton configuration record
func ProgramStateLocation(programId Address) Address {
	return Derive(programId, []byte(SeedProgramState))
}

// TokenStateLocation returns the location of the per-token record for id
func TokenStateLocation(programId Address, id uint64) Address {
	return Derive(programId, []byte(SeedTokenState), idSeed(id))
}

// UnitLocation returns the handle of the fungible-unit representation for id
func UnitLocation(programId Address, id uint64) Address {
	return Derive(programId, []byte(SeedUnit), idSeed(id))
}

// MetadataLocation returns the metadata registry entry for a unit handle
func MetadataLocation(programId Address, unit Address) Address {
	return Derive(programId, []byte(SeedMetadata), unit[:])
}

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

package address_test

import (
	"testing"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testProgramId() address.Address {
	var ret address.Address
	for i := range ret {
		ret[i] = byte(i + 1)
	}
	return ret
}

func TestDeriveDeterministic(t *testing.T) {
	programId := testProgramId()
	a := address.TokenStateLocation(programId, 42)
	b := address.TokenStateLocation(programId, 42)
	assert.Equal(t, a, b)
	assert.False(t, a.IsZero())
}

func TestDeriveDistinctIds(t *testing.T) {
	programId := testProgramId()
	seen := make(map[address.Address]uint64)
	for id := range uint64(1000) {
		loc := address.TokenStateLocation(programId, id)
		prev, ok := seen[loc]
		require.Falsef(t, ok, "id %d collides with id %d", id, prev)
		seen[loc] = id
	}
}

func TestDeriveDistinctSeedTags(t *testing.T) {
	programId := testProgramId()
	state := address.TokenStateLocation(programId, 7)
	unit := address.UnitLocation(programId, 7)
	config := address.ProgramStateLocation(programId)
	meta := address.MetadataLocation(programId, unit)
	locs := []address.Address{state, unit, config, meta}
	for i := range locs {
		for j := i + 1; j < len(locs); j++ {
			assert.NotEqual(t, locs[i], locs[j])
		}
	}
}

func TestDeriveSeedBoundaries(t *testing.T) {
	programId := testProgramId()
	a := address.Derive(programId, []byte("ab"), []byte("c"))
	b := address.Derive(programId, []byte("a"), []byte("bc"))
	assert.NotEqual(t, a, b)
}

func TestDeriveDependsOnProgram(t *testing.T) {
	other := testProgramId()
	other[0] ^= 0xff
	assert.NotEqual(
		t,
		address.ProgramStateLocation(testProgramId()),
		address.ProgramStateLocation(other),
	)
}

func TestParse(t *testing.T) {
	programId := testProgramId()
	parsed, err := address.Parse(programId.String())
	require.NoError(t, err)
	assert.Equal(t, programId, parsed)

	_, err = address.Parse("abcd")
	require.ErrorIs(t, err, address.ErrInvalidLength)

	_, err = address.Parse("zz")
	require.Error(t, err)
}

func TestTextMarshal(t *testing.T) {
	programId := testProgramId()
	text, err := programId.MarshalText()
	require.NoError(t, err)
	var decoded address.Address
	require.NoError(t, decoded.UnmarshalText(text))
	assert.Equal(t, programId, decoded)
}

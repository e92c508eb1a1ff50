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
	"encoding/json"
	"testing"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthorize(t *testing.T) {
	relayer := address.Address{0x01}
	state := &ProgramState{RelayerIdentity: relayer}
	require.NoError(t, Authorize(relayer, state))

	other := relayer
	other[31] = 0x01
	require.ErrorIs(t, Authorize(other, state), ErrUnauthorizedGateway)
	require.ErrorIs(t, Authorize(address.Zero, state), ErrUnauthorizedGateway)
	require.ErrorIs(t, Authorize(relayer, nil), ErrNotInitialized)
}

func TestDeriveLocations(t *testing.T) {
	programId := address.Address{0x09}
	a := DeriveLocations(programId, 1)
	b := DeriveLocations(programId, 1)
	c := DeriveLocations(programId, 2)
	assert.Equal(t, a, b)
	assert.Equal(t, a.ProgramState, c.ProgramState)
	assert.NotEqual(t, a.TokenState, c.TokenState)
	assert.NotEqual(t, a.Unit, c.Unit)
	assert.NotEqual(t, a.Metadata, c.Metadata)
	assert.NotEqual(t, a.TokenState, a.Unit)

	require.NoError(t, a.verify(Accounts{}))
	require.NoError(t, a.verify(Accounts{Unit: a.Unit}))
	require.ErrorIs(t, a.verify(Accounts{Unit: c.Unit}), ErrLocationMismatch)
	require.ErrorIs(t, a.verify(Accounts{ProgramState: a.Unit}), ErrLocationMismatch)
	require.ErrorIs(t, a.verify(Accounts{Metadata: c.Metadata}), ErrInvalidMetadataAccount)
}

func TestTokenStateRecordRoundTrip(t *testing.T) {
	token := &TokenState{
		UniversalTokenId: 7,
		LocalAssetHandle: address.Address{0x02},
		OriginalOwner:    []byte{0x03},
		CurrentOwner:     address.Address{0x04},
		Uri:              "ipfs://x",
		Name:             "Alpha",
		Symbol:           "ALP",
		Creator:          []byte{0x05},
		RoyaltyBps:       250,
		Status:           StatusReturned,
	}
	got, err := tokenStateFromRecord(token.record())
	require.NoError(t, err)
	assert.Equal(t, token, got)

	var status Status
	require.NoError(t, status.UnmarshalText([]byte("returned")))
	assert.Equal(t, StatusReturned, status)
	require.Error(t, status.UnmarshalText([]byte("gone")))
}

func TestStatusText(t *testing.T) {
	for _, status := range []Status{StatusActive, StatusReturned} {
		text, err := status.MarshalText()
		require.NoError(t, err)
		var got Status
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, status, got)
	}
	for _, status := range []Status{0, 3, 255} {
		_, err := status.MarshalText()
		require.Error(t, err, "status %d", uint8(status))
	}
	// A token without a status cannot be served as JSON
	_, err := json.Marshal(TokenState{UniversalTokenId: 1})
	require.Error(t, err)
}

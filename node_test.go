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

package nftbridge

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/internal/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testAuthority = testutil.Address(0x61)
	testRelayer   = testutil.Address(0x62)
	testRecipient = testutil.Address(0x63)
)

func TestNewConfigDefaults(t *testing.T) {
	cfg := NewConfig()
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, DefaultProgramId(), cfg.programId)
	assert.False(t, cfg.programId.IsZero())

	cfg = NewConfig(
		WithProgramId(address.Zero),
		WithLogger(nil),
		WithDatabasePath("/tmp/x"),
		WithGatewayListenAddress(":3100"),
		WithShutdownTimeout(time.Second),
		WithTracing(true),
		WithTracingStdout(true),
	)
	assert.Equal(t, DefaultProgramId(), cfg.programId)
	assert.NotNil(t, cfg.logger)
	assert.Equal(t, "/tmp/x", cfg.dataDir)
	assert.Equal(t, ":3100", cfg.gatewayListenAddress)
	assert.Equal(t, time.Second, cfg.shutdownTimeout)
	assert.True(t, cfg.tracing)
	assert.True(t, cfg.tracingStdout)
}

func TestNewValidation(t *testing.T) {
	_, err := New(NewConfig(WithMaxClockSkew(-time.Second)))
	require.Error(t, err)
	_, err = New(NewConfig(WithShutdownTimeout(-time.Second)))
	require.Error(t, err)
}

func initializeAndMint(t *testing.T, n *Node) {
	t.Helper()
	ctx := context.Background()
	b := n.Bridge()
	require.NotNil(t, b)
	_, err := b.Initialize(ctx, testAuthority, "Bridged", "BRG", "https://example.com/c", testRelayer)
	require.NoError(t, err)
	envelope := codec.NewInstruction(codec.MintFromOriginPayload{
		UniversalTokenId: 1,
		Recipient:        testRecipient,
		Uri:              "ipfs://x",
		Name:             "Alpha",
		Symbol:           "ALP",
		Creator:          []byte{0x01},
		RoyaltyBps:       250,
	}).Encode()
	require.NoError(t, b.OnCrossChainCall(ctx, testRelayer, envelope))
}

func TestNodeOpenAndStop(t *testing.T) {
	n, err := New(NewConfig())
	require.NoError(t, err)
	require.NoError(t, n.Open())
	// Open is idempotent
	require.NoError(t, n.Open())
	initializeAndMint(t, n)

	assert.Eventually(t, func() bool {
		return n.Stats().Snapshot().Minted == 1
	}, 2*time.Second, 10*time.Millisecond)

	require.NoError(t, n.Stop())
	require.NoError(t, n.Stop())
}

func TestNodeReopenSeedsStats(t *testing.T) {
	dataDir := t.TempDir()

	n, err := New(NewConfig(WithDatabasePath(dataDir)))
	require.NoError(t, err)
	require.NoError(t, n.Open())
	initializeAndMint(t, n)
	_, err = n.Bridge().BurnToOrigin(
		context.Background(),
		testRecipient,
		1,
		[]byte("ethereum"),
		[]byte{0xaa, 0xbb},
	)
	require.NoError(t, err)
	require.NoError(t, n.Stop())

	n, err = New(NewConfig(WithDatabasePath(dataDir)))
	require.NoError(t, err)
	require.NoError(t, n.Open())
	defer n.Stop() //nolint:errcheck
	snap := n.Stats().Snapshot()
	assert.Equal(t, uint64(1), snap.Minted)
	assert.Equal(t, uint64(1), snap.Returned)
	assert.Equal(t, uint64(0), snap.Active)
	assert.Equal(t, uint64(1), snap.ReturnsByChain["ethereum"])

	token, err := n.Bridge().Token(1)
	require.NoError(t, err)
	assert.Equal(t, "returned", token.Status.String())
}

func TestNodeRunStopsOnContextCancel(t *testing.T) {
	n, err := New(NewConfig(WithGatewayListenAddress("127.0.0.1:0")))
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		errCh <- n.Run(ctx)
	}()
	require.Eventually(t, func() bool {
		return n.Bridge() != nil
	}, 5*time.Second, 10*time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		require.FailNow(t, "Run did not return after cancel")
	}
}

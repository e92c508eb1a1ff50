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

package bridge_test

import (
	"context"
	"testing"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/internal/test/testutil"
	"github.com/blinklabs-io/nftbridge/ledger"
	"github.com/prometheus/client_golang/prometheus"
	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	testProgramId = testutil.Address(0x50)
	testAuthority = testutil.Address(0x51)
	testRelayer   = testutil.Address(0x52)
	testRecipient = testutil.Address(0x53)
	testStranger  = testutil.Address(0x54)
)

type testEnv struct {
	bridge   *bridge.Bridge
	db       *database.Database
	eventBus *event.EventBus
	registry *prometheus.Registry
}

func newTestEnv(t *testing.T, initialize bool) *testEnv {
	t.Helper()
	db := testutil.NewDatabase(t)
	eventBus := event.NewEventBus(nil, nil)
	t.Cleanup(eventBus.Stop)
	reg := prometheus.NewRegistry()
	b, err := bridge.New(bridge.Config{
		Database:     db,
		EventBus:     eventBus,
		PromRegistry: reg,
		ProgramId:    testProgramId,
	})
	require.NoError(t, err)
	if initialize {
		_, err := b.Initialize(
			context.Background(),
			testAuthority,
			"Bridged",
			"BRG",
			"https://example.com/c",
			testRelayer,
		)
		require.NoError(t, err)
	}
	return &testEnv{bridge: b, db: db, eventBus: eventBus, registry: reg}
}

func mintPayload(id uint64) codec.MintFromOriginPayload {
	return codec.MintFromOriginPayload{
		UniversalTokenId: id,
		Recipient:        testRecipient,
		Uri:              "ipfs://x",
		Name:             "Alpha",
		Symbol:           "ALP",
		Creator:          []byte{0xc0, 0xff, 0xee},
		RoyaltyBps:       500,
	}
}

func envelope(p codec.Payload) []byte {
	return codec.NewInstruction(p).Encode()
}

func (e *testEnv) mint(t *testing.T, id uint64) {
	t.Helper()
	require.NoError(
		t,
		e.bridge.OnCrossChainCall(context.Background(), testRelayer, envelope(mintPayload(id))),
	)
}

func (e *testEnv) balance(t *testing.T, unit, owner address.Address) uint64 {
	t.Helper()
	txn := e.db.Transaction(false)
	defer txn.Release()
	ret, err := e.bridge.Units().Balance(txn, unit, owner)
	require.NoError(t, err)
	return ret
}

func TestInitialize(t *testing.T) {
	env := newTestEnv(t, false)
	ctx := context.Background()

	_, err := env.bridge.ProgramState()
	require.ErrorIs(t, err, bridge.ErrNotInitialized)

	// Calls before initialization fail closed
	err = env.bridge.OnCrossChainCall(ctx, testRelayer, envelope(mintPayload(1)))
	require.ErrorIs(t, err, bridge.ErrNotInitialized)

	_, err = env.bridge.Initialize(ctx, testAuthority, "a name that is far too long", "BRG", "", testRelayer)
	require.ErrorIs(t, err, bridge.ErrInvalidConfig)
	_, err = env.bridge.Initialize(ctx, testAuthority, "Bridged", "BRG", "", address.Zero)
	require.ErrorIs(t, err, bridge.ErrInvalidConfig)

	state, err := env.bridge.Initialize(ctx, testAuthority, "Bridged", "BRG", "https://example.com/c", testRelayer)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), state.NextTokenId)

	stored, err := env.bridge.ProgramState()
	require.NoError(t, err)
	assert.Equal(t, state, stored)

	// The relayer cannot be replaced by initializing again
	_, err = env.bridge.Initialize(ctx, testAuthority, "Other", "OTH", "", testStranger)
	require.ErrorIs(t, err, bridge.ErrAlreadyInitialized)
	stored, err = env.bridge.ProgramState()
	require.NoError(t, err)
	assert.Equal(t, testRelayer, stored.RelayerIdentity)
}

func TestMintFromOrigin(t *testing.T) {
	env := newTestEnv(t, true)
	_, mintCh := env.eventBus.Subscribe(event.MintFromOriginEventType)
	env.mint(t, 42)

	token, err := env.bridge.Token(42)
	require.NoError(t, err)
	locs := bridge.DeriveLocations(testProgramId, 42)
	assert.Equal(t, uint64(42), token.UniversalTokenId)
	assert.Equal(t, locs.Unit, token.LocalAssetHandle)
	assert.Equal(t, testRecipient, token.CurrentOwner)
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, []byte(token.OriginalOwner))
	assert.Equal(t, "ipfs://x", token.Uri)
	assert.Equal(t, "Alpha", token.Name)
	assert.Equal(t, "ALP", token.Symbol)
	assert.Equal(t, uint16(500), token.RoyaltyBps)
	assert.Equal(t, bridge.StatusActive, token.Status)

	assert.Equal(t, uint64(1), env.balance(t, locs.Unit, testRecipient))

	txn := env.db.Transaction(false)
	meta, err := env.bridge.Registry().Get(txn, locs.Metadata)
	txn.Release()
	require.NoError(t, err)
	assert.Equal(t, "Alpha", meta.Name)
	assert.Equal(t, uint16(500), meta.RoyaltyBps)
	assert.Equal(t, locs.ProgramState, meta.UpdateAuthority)
	require.Len(t, meta.Creators, 1)
	assert.Equal(t, locs.ProgramState, meta.Creators[0].Address)
	assert.True(t, meta.Creators[0].Verified)
	assert.Equal(t, uint8(100), meta.Creators[0].Share)

	evt := testutil.RequireReceive(t, mintCh, time.Second, "mint event")
	mintEvt, ok := evt.Data.(event.MintFromOriginEvent)
	require.True(t, ok)
	assert.Equal(t, uint64(42), mintEvt.UniversalTokenId)
	assert.Equal(t, locs.Unit, mintEvt.Unit)
}

func TestMintUnauthorized(t *testing.T) {
	env := newTestEnv(t, true)
	err := env.bridge.OnCrossChainCall(context.Background(), testStranger, envelope(mintPayload(42)))
	require.ErrorIs(t, err, bridge.ErrUnauthorizedGateway)
	_, err = env.bridge.Token(42)
	require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
}

func TestMalformedInputLeavesNoTrace(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	payload := mintPayload(42).Encode()

	testDefs := []struct {
		name        string
		envelope    []byte
		expectedErr error
	}{
		{
			name:        "empty envelope",
			envelope:    nil,
			expectedErr: bridge.ErrInvalidInstructionData,
		},
		{
			name: "truncated payload",
			envelope: codec.Instruction{
				Type:    codec.InstructionMintFromOrigin,
				Payload: payload[:len(payload)-1],
			}.Encode(),
			expectedErr: bridge.ErrInvalidPayload,
		},
		{
			name: "trailing bytes",
			envelope: codec.Instruction{
				Type:    codec.InstructionMintFromOrigin,
				Payload: append(append([]byte{}, payload...), 0x00),
			}.Encode(),
			expectedErr: bridge.ErrInvalidPayload,
		},
		{
			name: "outbound instruction",
			envelope: envelope(codec.BurnToOriginPayload{
				UniversalTokenId: 42,
				DestinationChain: []byte("zeta"),
				Receiver:         []byte{0x01},
			}),
			expectedErr: bridge.ErrInvalidInstructionData,
		},
		{
			name: "unknown instruction",
			envelope: codec.Instruction{
				Type:    codec.InstructionType(9),
				Payload: payload,
			}.Encode(),
			expectedErr: bridge.ErrInvalidInstructionData,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			err := env.bridge.OnCrossChainCall(ctx, testRelayer, testDef.envelope)
			require.ErrorIs(t, err, testDef.expectedErr)
			_, err = env.bridge.Token(42)
			require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
			assert.Equal(
				t,
				uint64(0),
				env.balance(t, bridge.DeriveLocations(testProgramId, 42).Unit, testRecipient),
			)
		})
	}
}

func TestDoubleMint(t *testing.T) {
	env := newTestEnv(t, true)
	env.mint(t, 42)

	second := mintPayload(42)
	second.Uri = "ipfs://other"
	second.Recipient = testStranger
	err := env.bridge.OnCrossChainCall(context.Background(), testRelayer, envelope(second))
	require.ErrorIs(t, err, bridge.ErrAlreadyMinted)

	token, err := env.bridge.Token(42)
	require.NoError(t, err)
	assert.Equal(t, "ipfs://x", token.Uri)
	assert.Equal(t, testRecipient, token.CurrentOwner)
	locs := bridge.DeriveLocations(testProgramId, 42)
	assert.Equal(t, uint64(0), env.balance(t, locs.Unit, testStranger))
	assert.Equal(t, uint64(1), env.balance(t, locs.Unit, testRecipient))
}

func TestUpdateMetadata(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.mint(t, 42)
	update := codec.UpdateMetadataPayload{
		UniversalTokenId: 42,
		NewUri:           "ipfs://y",
		NewName:          "Beta",
	}

	err := env.bridge.OnCrossChainCall(ctx, testStranger, envelope(update))
	require.ErrorIs(t, err, bridge.ErrUnauthorizedGateway)
	token, err := env.bridge.Token(42)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", token.Name)

	// Applying the same update twice yields the same state
	for range 2 {
		require.NoError(t, env.bridge.OnCrossChainCall(ctx, testRelayer, envelope(update)))
		token, err = env.bridge.Token(42)
		require.NoError(t, err)
		assert.Equal(t, "Beta", token.Name)
		assert.Equal(t, "ipfs://y", token.Uri)
		assert.Equal(t, "ALP", token.Symbol)
		assert.Equal(t, uint16(500), token.RoyaltyBps)
	}

	locs := bridge.DeriveLocations(testProgramId, 42)
	txn := env.db.Transaction(false)
	meta, err := env.bridge.Registry().Get(txn, locs.Metadata)
	txn.Release()
	require.NoError(t, err)
	assert.Equal(t, "Beta", meta.Name)
	assert.Equal(t, "ALP", meta.Symbol)
	require.Len(t, meta.Creators, 1)

	update.UniversalTokenId = 43
	err = env.bridge.OnCrossChainCall(ctx, testRelayer, envelope(update))
	require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
}

func TestLocationMismatch(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	locs := bridge.DeriveLocations(testProgramId, 42)

	err := env.bridge.OnCrossChainCallWithAccounts(
		ctx,
		testRelayer,
		envelope(mintPayload(42)),
		bridge.Accounts{TokenState: bridge.DeriveLocations(testProgramId, 43).TokenState},
	)
	require.ErrorIs(t, err, bridge.ErrLocationMismatch)

	err = env.bridge.OnCrossChainCallWithAccounts(
		ctx,
		testRelayer,
		envelope(mintPayload(42)),
		bridge.Accounts{Metadata: locs.Unit},
	)
	require.ErrorIs(t, err, bridge.ErrInvalidMetadataAccount)

	err = env.bridge.OnCrossChainCallWithAccounts(
		ctx,
		testRelayer,
		envelope(mintPayload(42)),
		bridge.Accounts{
			ProgramState: locs.ProgramState,
			TokenState:   locs.TokenState,
			Unit:         locs.Unit,
			Metadata:     locs.Metadata,
		},
	)
	require.NoError(t, err)
}

func TestBurnToOrigin(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	_, burnCh := env.eventBus.Subscribe(event.BurnToOriginEventType)
	env.mint(t, 42)

	_, err := env.bridge.BurnToOrigin(ctx, testStranger, 42, []byte("zeta"), []byte{0xaa})
	require.ErrorIs(t, err, bridge.ErrTokenNotOwned)
	testutil.RequireNoReceive(t, burnCh, 50*time.Millisecond, "failed burn")

	evt, err := env.bridge.BurnToOrigin(ctx, testRecipient, 42, []byte("zeta"), []byte{0xaa})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), evt.Sequence)
	assert.Equal(t, "ipfs://x", evt.Uri)
	assert.Equal(t, "Alpha", evt.Name)
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, evt.Creator)
	assert.Equal(t, []byte{0xc0, 0xff, 0xee}, evt.Payload.OriginalOwner)
	assert.Equal(t, testRecipient, evt.Burner)

	published := testutil.RequireReceive(t, burnCh, time.Second, "burn event")
	assert.Equal(t, *evt, published.Data)

	token, err := env.bridge.Token(42)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusReturned, token.Status)
	assert.Equal(t, uint64(0), env.balance(t, token.LocalAssetHandle, testRecipient))

	outbox, err := env.bridge.OutboundEvents(0, 0)
	require.NoError(t, err)
	require.Len(t, outbox, 1)
	assert.Equal(t, *evt, outbox[0])

	// Returned records are terminal and the id is never reused
	_, err = env.bridge.BurnToOrigin(ctx, testRecipient, 42, []byte("zeta"), []byte{0xaa})
	require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
	err = env.bridge.OnCrossChainCall(ctx, testRelayer, envelope(mintPayload(42)))
	require.ErrorIs(t, err, bridge.ErrAlreadyMinted)
	err = env.bridge.OnCrossChainCall(
		ctx,
		testRelayer,
		envelope(codec.UpdateMetadataPayload{UniversalTokenId: 42, NewUri: "u", NewName: "n"}),
	)
	require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
}

func TestBurnRequiresExactlyOneUnit(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.mint(t, 1)
	env.mint(t, 2)
	units := env.bridge.Units()

	// Holder has no units left
	locs1 := bridge.DeriveLocations(testProgramId, 1)
	require.NoError(t, env.db.Transaction(true).Do(func(txn *database.Txn) error {
		return units.Burn(txn, locs1.Unit, testRecipient, 1)
	}))
	_, err := env.bridge.BurnToOrigin(ctx, testRecipient, 1, []byte("zeta"), []byte{0xaa})
	require.ErrorIs(t, err, bridge.ErrTokenNotOwned)

	// Holder has two units
	locs2 := bridge.DeriveLocations(testProgramId, 2)
	require.NoError(t, env.db.Transaction(true).Do(func(txn *database.Txn) error {
		return units.Mint(txn, locs2.Unit, locs2.ProgramState, testRecipient, 1)
	}))
	_, err = env.bridge.BurnToOrigin(ctx, testRecipient, 2, []byte("zeta"), []byte{0xaa})
	require.ErrorIs(t, err, bridge.ErrTokenNotOwned)
	assert.Equal(t, uint64(2), env.balance(t, locs2.Unit, testRecipient))

	token, err := env.bridge.Token(2)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusActive, token.Status)
	outbox, err := env.bridge.OutboundEvents(0, 0)
	require.NoError(t, err)
	assert.Empty(t, outbox)
}

func TestBurnValidation(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	env.mint(t, 42)
	long := make([]byte, codec.MaxChainLength+1)

	testDefs := []struct {
		name     string
		id       uint64
		chain    []byte
		receiver []byte
		err      error
	}{
		{name: "empty chain", id: 42, receiver: []byte{0x01}, err: bridge.ErrInvalidPayload},
		{name: "long chain", id: 42, chain: long, receiver: []byte{0x01}, err: bridge.ErrInvalidPayload},
		{name: "empty receiver", id: 42, chain: []byte("zeta"), err: bridge.ErrInvalidPayload},
		{name: "long receiver", id: 42, chain: []byte("zeta"), receiver: long, err: bridge.ErrInvalidPayload},
		{name: "unknown token", id: 7, chain: []byte("zeta"), receiver: []byte{0x01}, err: bridge.ErrNFTStateNotFound},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			_, err := env.bridge.BurnToOrigin(ctx, testRecipient, testDef.id, testDef.chain, testDef.receiver)
			require.ErrorIs(t, err, testDef.err)
		})
	}
}

func TestTokensListing(t *testing.T) {
	env := newTestEnv(t, true)
	for _, id := range []uint64{300, 5, 70000} {
		env.mint(t, id)
	}
	tokens, err := env.bridge.Tokens(0, 0)
	require.NoError(t, err)
	require.Len(t, tokens, 3)
	assert.Equal(t, uint64(5), tokens[0].UniversalTokenId)
	assert.Equal(t, uint64(300), tokens[1].UniversalTokenId)
	assert.Equal(t, uint64(70000), tokens[2].UniversalTokenId)

	tokens, err = env.bridge.Tokens(6, 1)
	require.NoError(t, err)
	require.Len(t, tokens, 1)
	assert.Equal(t, uint64(300), tokens[0].UniversalTokenId)
}

func TestTransitionMetrics(t *testing.T) {
	env := newTestEnv(t, true)
	env.mint(t, 42)
	err := env.bridge.OnCrossChainCall(context.Background(), testStranger, envelope(mintPayload(43)))
	require.Error(t, err)

	count, err := promtestutil.GatherAndCount(env.registry, "bridge_transitions_total")
	require.NoError(t, err)
	// initialize/success, mint/success, mint/error
	assert.Equal(t, 3, count)
	count, err = promtestutil.GatherAndCount(env.registry, "bridge_tokens_active")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestCanceledContext(t *testing.T) {
	env := newTestEnv(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := env.bridge.OnCrossChainCall(ctx, testRelayer, envelope(mintPayload(42)))
	require.ErrorIs(t, err, context.Canceled)
}

func TestHolders(t *testing.T) {
	env := newTestEnv(t, true)
	env.mint(t, 9)

	holders, err := env.bridge.Holders(9)
	require.NoError(t, err)
	assert.Equal(t, uint64(9), holders.UniversalTokenId)
	assert.Equal(t, bridge.StatusActive, holders.Status)
	assert.Equal(t, uint64(1), holders.Supply)
	require.Len(t, holders.Holders, 1)
	assert.Equal(t, testRecipient, holders.Holders[0].Owner)
	assert.Equal(t, uint64(1), holders.Holders[0].Amount)

	_, err = env.bridge.BurnToOrigin(context.Background(), testRecipient, 9, []byte("zeta"), []byte{0x01})
	require.NoError(t, err)
	holders, err = env.bridge.Holders(9)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusReturned, holders.Status)
	assert.Equal(t, uint64(0), holders.Supply)
	assert.Empty(t, holders.Holders)

	_, err = env.bridge.Holders(10)
	require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
}

func TestConcurrentBurnsPublishInSequenceOrder(t *testing.T) {
	const count = 20
	env := newTestEnv(t, true)
	_, burnCh := env.eventBus.Subscribe(event.BurnToOriginEventType)
	for id := uint64(1); id <= count; id++ {
		env.mint(t, id)
	}

	errCh := make(chan error, count)
	for id := uint64(1); id <= count; id++ {
		go func() {
			_, err := env.bridge.BurnToOrigin(
				context.Background(),
				testRecipient,
				id,
				[]byte("zeta"),
				[]byte{byte(id)},
			)
			errCh <- err
		}()
	}
	for range count {
		require.NoError(t, <-errCh)
	}

	for seq := uint64(1); seq <= count; seq++ {
		evt := testutil.RequireReceive(t, burnCh, time.Second, "burn event")
		assert.Equal(t, seq, evt.Data.(event.BurnToOriginEvent).Sequence)
	}
}

func TestMintRollsBackWhenMetadataRegistrationFails(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	_, mintCh := env.eventBus.Subscribe(event.MintFromOriginEventType)
	locs := bridge.DeriveLocations(testProgramId, 7)
	squatterUnit := testutil.Address(0x60)

	// Occupy the metadata location so registration fails after the unit is
	// created and minted
	require.NoError(t, env.db.Transaction(true).Do(func(txn *database.Txn) error {
		if err := env.bridge.Units().CreateUnit(txn, squatterUnit, testAuthority, 0); err != nil {
			return err
		}
		return env.bridge.Registry().Register(
			txn,
			locs.Metadata,
			ledger.TokenMetadata{Name: "squat", Unit: squatterUnit},
		)
	}))

	err := env.bridge.OnCrossChainCall(ctx, testRelayer, envelope(mintPayload(7)))
	require.ErrorIs(t, err, ledger.ErrMetadataExists)
	testutil.RequireNoReceive(t, mintCh, 50*time.Millisecond, "failed mint")

	_, err = env.bridge.Token(7)
	require.ErrorIs(t, err, bridge.ErrNFTStateNotFound)
	assert.Equal(t, uint64(0), env.balance(t, locs.Unit, testRecipient))
	txn := env.db.Transaction(false)
	_, err = env.bridge.Units().Supply(txn, locs.Unit)
	require.ErrorIs(t, err, ledger.ErrUnitNotFound)
	meta, err := env.bridge.Registry().Get(txn, locs.Metadata)
	require.NoError(t, err)
	assert.Equal(t, "squat", meta.Name)
	txn.Release()

	// A different id is unaffected
	env.mint(t, 8)
	testutil.RequireReceive(t, mintCh, time.Second, "mint event")
}

func TestBurnRollsBackWhenOutboundLogFails(t *testing.T) {
	env := newTestEnv(t, true)
	ctx := context.Background()
	_, burnCh := env.eventBus.Subscribe(event.BurnToOriginEventType)
	env.mint(t, 42)
	locs := bridge.DeriveLocations(testProgramId, 42)

	// Fail the outbound log insert, which runs after the unit burn and the
	// token record write
	gormDB := env.db.Metadata().DB()
	require.NoError(t, gormDB.Exec(
		"CREATE TRIGGER reject_outbound BEFORE INSERT ON outbound_event "+
			"BEGIN SELECT RAISE(ABORT, 'outbound log unavailable'); END",
	).Error)

	_, err := env.bridge.BurnToOrigin(ctx, testRecipient, 42, []byte("zeta"), []byte{0xaa})
	require.Error(t, err)
	testutil.RequireNoReceive(t, burnCh, 50*time.Millisecond, "failed burn")

	token, err := env.bridge.Token(42)
	require.NoError(t, err)
	assert.Equal(t, bridge.StatusActive, token.Status)
	assert.Equal(t, uint64(1), env.balance(t, locs.Unit, testRecipient))
	txn := env.db.Transaction(false)
	supply, err := env.bridge.Units().Supply(txn, locs.Unit)
	txn.Release()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), supply)
	outbox, err := env.bridge.OutboundEvents(0, 0)
	require.NoError(t, err)
	assert.Empty(t, outbox)

	// The same burn succeeds once the log accepts writes again
	require.NoError(t, gormDB.Exec("DROP TRIGGER reject_outbound").Error)
	evt, err := env.bridge.BurnToOrigin(ctx, testRecipient, 42, []byte("zeta"), []byte{0xaa})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), evt.Sequence)
	testutil.RequireReceive(t, burnCh, time.Second, "burn event")
}

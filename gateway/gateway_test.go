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

package gateway

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/keystore"
	"github.com/blinklabs-io/nftbridge/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

// mockNode implements BridgeNode for testing.
type mockNode struct {
	mu         sync.Mutex
	state      *bridge.ProgramState
	stateErr   error
	tokens     []bridge.TokenState
	events     []event.BurnToOriginEvent
	callErr    error
	burnErr    error
	lastCaller address.Address
	lastCall   []byte
}

func (m *mockNode) ProgramState() (*bridge.ProgramState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stateErr != nil {
		return nil, m.stateErr
	}
	if m.state == nil {
		return nil, bridge.ErrNotInitialized
	}
	return m.state, nil
}

func (m *mockNode) Token(id uint64) (*bridge.TokenState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.tokens {
		if m.tokens[i].UniversalTokenId == id {
			return &m.tokens[i], nil
		}
	}
	return nil, bridge.ErrNFTStateNotFound
}

func (m *mockNode) Holders(id uint64) (*bridge.TokenHolders, error) {
	token, err := m.Token(id)
	if err != nil {
		return nil, err
	}
	ret := &bridge.TokenHolders{
		UniversalTokenId: id,
		LocalAssetHandle: token.LocalAssetHandle,
		Status:           token.Status,
		Holders:          []bridge.Holder{},
	}
	if token.Status == bridge.StatusActive {
		ret.Supply = 1
		ret.Holders = append(ret.Holders, bridge.Holder{Owner: token.CurrentOwner, Amount: 1})
	}
	return ret, nil
}

func (m *mockNode) Tokens(startId uint64, limit int) ([]bridge.TokenState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := []bridge.TokenState{}
	for _, token := range m.tokens {
		if token.UniversalTokenId < startId {
			continue
		}
		if limit > 0 && len(ret) >= limit {
			break
		}
		ret = append(ret, token)
	}
	return ret, nil
}

func (m *mockNode) OutboundEvents(afterId uint64, limit int) ([]event.BurnToOriginEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ret := []event.BurnToOriginEvent{}
	for _, evt := range m.events {
		if evt.Sequence <= afterId {
			continue
		}
		if limit > 0 && len(ret) >= limit {
			break
		}
		ret = append(ret, evt)
	}
	return ret, nil
}

func (m *mockNode) OnCrossChainCall(
	_ context.Context,
	caller address.Address,
	envelope []byte,
) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastCaller = caller
	m.lastCall = envelope
	return m.callErr
}

func (m *mockNode) BurnToOrigin(
	_ context.Context,
	caller address.Address,
	id uint64,
	destinationChain []byte,
	receiver []byte,
) (*event.BurnToOriginEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.burnErr != nil {
		return nil, m.burnErr
	}
	evt := testBurnEvent(uint64(len(m.events)+1), id)
	evt.Payload.DestinationChain = destinationChain
	evt.Payload.Receiver = receiver
	evt.Burner = caller
	m.events = append(m.events, evt)
	return &evt, nil
}

func (m *mockNode) addEvent(evt event.BurnToOriginEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
}

type staticStats stats.Snapshot

func (s staticStats) Snapshot() stats.Snapshot {
	return stats.Snapshot(s)
}

func testBurnEvent(seq uint64, id uint64) event.BurnToOriginEvent {
	return event.BurnToOriginEvent{
		Payload: codec.BurnToOriginPayload{
			UniversalTokenId: id,
			DestinationChain: []byte("ethereum"),
			Receiver:         bytes.Repeat([]byte{0xee}, 20),
			OriginalOwner:    []byte{0x01, 0x02},
		},
		Uri:      "ipfs://x",
		Name:     "Alpha",
		Creator:  []byte{0x01, 0x02},
		Sequence: seq,
		Burner:   address.Address{0x0b},
	}
}

func testKey(t *testing.T) *keystore.Key {
	t.Helper()
	key, err := keystore.NewKeyFromSeed(bytes.Repeat([]byte{0x42}, 32))
	require.NoError(t, err)
	return key
}

func newTestGateway(
	node BridgeNode,
) *Gateway {
	return New(
		GatewayConfig{
			ListenAddress: ":0",
		},
		node,
		staticStats{Minted: 3, Returned: 1, Active: 2},
		nil,
		slog.Default(),
	)
}

func signedRequest(
	t *testing.T,
	key *keystore.Key,
	path string,
	body any,
	now time.Time,
) *http.Request {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(data))
	SignRequest(req, key, data, now)
	return req
}

func httpBody(data []byte) io.ReadCloser {
	return io.NopCloser(bytes.NewReader(data))
}

func serve(g *Gateway, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	g.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, rec.Code, resp.StatusCode)
	return resp
}

func TestStartStop(t *testing.T) {
	g := newTestGateway(&mockNode{})

	err := g.Start(t.Context())
	require.NoError(t, err)

	// Verify server is running
	g.mu.Lock()
	assert.NotNil(t, g.httpServer)
	g.mu.Unlock()

	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	require.NoError(t, g.Stop(stopCtx))

	g.mu.Lock()
	assert.Nil(t, g.httpServer)
	g.mu.Unlock()
}

func TestStopOnContextCancel(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	g := newTestGateway(&mockNode{})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, g.Start(ctx))
	cancel()

	require.Eventually(t, func() bool {
		g.mu.Lock()
		defer g.mu.Unlock()
		return g.httpServer == nil
	}, 5*time.Second, 10*time.Millisecond)
}

func TestStartAlreadyStarted(t *testing.T) {
	g := newTestGateway(&mockNode{})

	ctx := t.Context()
	require.NoError(t, g.Start(ctx))
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = g.Stop(stopCtx)
	}()

	err := g.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestStopIdempotent(t *testing.T) {
	g := newTestGateway(&mockNode{})
	ctx, cancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer cancel()
	require.NoError(t, g.Stop(ctx))
	require.NoError(t, g.Stop(ctx))
}

func TestDefaults(t *testing.T) {
	g := New(GatewayConfig{}, &mockNode{}, nil, nil, nil)
	assert.NotNil(t, g.logger)
	assert.Equal(t, DefaultListenAddress, g.config.ListenAddress)
	assert.Equal(t, int64(DefaultMaxBodySize), g.config.MaxBodySize)
	assert.Equal(t, DefaultMaxClockSkew, g.config.MaxClockSkew)
}

func TestHandleRoot(t *testing.T) {
	node := &mockNode{state: &bridge.ProgramState{CollectionName: "Bridged"}}
	rec := serve(newTestGateway(node), httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp RootResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "nftbridge", resp.Name)
	assert.NotEmpty(t, resp.Version)
	assert.True(t, resp.Initialized)
	assert.Equal(t, "Bridged", resp.Collection)

	// Unknown paths do not fall through to the root handler
	rec = serve(newTestGateway(node), httptest.NewRequest(http.MethodGet, "/nope", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleHealth(t *testing.T) {
	tests := []struct {
		name        string
		node        *mockNode
		status      int
		healthy     bool
		initialized bool
	}{
		{
			name:        "initialized",
			node:        &mockNode{state: &bridge.ProgramState{}},
			status:      http.StatusOK,
			healthy:     true,
			initialized: true,
		},
		{
			name:    "not initialized",
			node:    &mockNode{},
			status:  http.StatusOK,
			healthy: true,
		},
		{
			name:   "store failure",
			node:   &mockNode{stateErr: errors.New("disk on fire")},
			status: http.StatusServiceUnavailable,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			rec := serve(newTestGateway(test.node), httptest.NewRequest(http.MethodGet, "/health", nil))
			require.Equal(t, test.status, rec.Code)
			var resp HealthResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
			assert.Equal(t, test.healthy, resp.IsHealthy)
			assert.Equal(t, test.initialized, resp.Initialized)
		})
	}
}

func TestHandleState(t *testing.T) {
	g := newTestGateway(&mockNode{})
	rec := serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/state", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, bridge.ErrNotInitialized.Error(), decodeError(t, rec).Message)

	state := &bridge.ProgramState{
		CollectionName:   "Bridged",
		CollectionSymbol: "BRG",
		NextTokenId:      1,
		Authority:        address.Address{0x01},
		RelayerIdentity:  address.Address{0x02},
	}
	g = newTestGateway(&mockNode{state: state})
	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/state", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp bridge.ProgramState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, *state, resp)
}

func TestHandleToken(t *testing.T) {
	node := &mockNode{
		tokens: []bridge.TokenState{
			{UniversalTokenId: 7, Name: "Alpha", Status: bridge.StatusActive},
		},
	}
	g := newTestGateway(node)

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/7", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var token bridge.TokenState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&token))
	assert.Equal(t, "Alpha", token.Name)
	assert.Equal(t, bridge.StatusActive, token.Status)

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/8", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTokenHolders(t *testing.T) {
	owner := address.Derive(address.Zero, []byte("owner"))
	node := &mockNode{
		tokens: []bridge.TokenState{
			{UniversalTokenId: 7, CurrentOwner: owner, Status: bridge.StatusActive},
			{UniversalTokenId: 8, CurrentOwner: owner, Status: bridge.StatusReturned},
		},
	}
	g := newTestGateway(node)

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/7/holders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var holders bridge.TokenHolders
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&holders))
	assert.Equal(t, uint64(1), holders.Supply)
	require.Len(t, holders.Holders, 1)
	assert.Equal(t, owner, holders.Holders[0].Owner)

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/8/holders", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	holders = bridge.TokenHolders{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&holders))
	assert.Equal(t, bridge.StatusReturned, holders.Status)
	assert.Zero(t, holders.Supply)
	assert.Empty(t, holders.Holders)

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/9/holders", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens/x/holders", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleTokensPagination(t *testing.T) {
	node := &mockNode{}
	for id := uint64(1); id <= 5; id++ {
		node.tokens = append(node.tokens, bridge.TokenState{
			UniversalTokenId: id,
			Status:           bridge.StatusActive,
		})
	}
	g := newTestGateway(node)

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens?after=1&limit=2", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var tokens []bridge.TokenState
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&tokens))
	require.Len(t, tokens, 2)
	assert.Equal(t, uint64(2), tokens[0].UniversalTokenId)
	assert.Equal(t, uint64(3), tokens[1].UniversalTokenId)
	assert.Equal(t, "3", rec.Header().Get("X-Cursor-Next"))
	assert.Equal(t, "true", rec.Header().Get("X-Cursor-More"))

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens?after=18446744073709551615", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, "[]", rec.Body.String())

	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/tokens?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleEvents(t *testing.T) {
	node := &mockNode{}
	for seq := uint64(1); seq <= 3; seq++ {
		node.events = append(node.events, testBurnEvent(seq, 40+seq))
	}
	g := newTestGateway(node)

	rec := serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/events?after=1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp []BurnEventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp, 2)
	assert.Equal(t, uint64(2), resp[0].Sequence)
	assert.Equal(t, uint64(42), resp[0].UniversalTokenId)
	assert.Equal(t, hex.EncodeToString([]byte("ethereum")), resp[0].DestinationChain)
	assert.Equal(t, "3", rec.Header().Get("X-Cursor-Next"))
	assert.Empty(t, rec.Header().Get("X-Cursor-More"))

	evt, err := resp[0].Event()
	require.NoError(t, err)
	assert.Equal(t, node.events[1], evt)
}

func TestHandleStats(t *testing.T) {
	rec := serve(newTestGateway(&mockNode{}), httptest.NewRequest(http.MethodGet, "/api/v0/stats", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var snap stats.Snapshot
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&snap))
	assert.Equal(t, uint64(3), snap.Minted)
	assert.Equal(t, uint64(2), snap.Active)

	g := New(GatewayConfig{}, &mockNode{}, nil, nil, nil)
	rec = serve(g, httptest.NewRequest(http.MethodGet, "/api/v0/stats", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandleCall(t *testing.T) {
	key := testKey(t)
	envelope := codec.NewInstruction(codec.UpdateMetadataPayload{
		UniversalTokenId: 42,
		NewUri:           "ipfs://y",
		NewName:          "Beta",
	}).Encode()
	body := CallRequest{Envelope: hex.EncodeToString(envelope)}

	t.Run("committed", func(t *testing.T) {
		node := &mockNode{}
		g := newTestGateway(node)
		rec := serve(g, signedRequest(t, key, "/api/v0/call", body, time.Now()))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var resp CallResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
		assert.Equal(t, "UpdateMetadata", resp.Instruction)
		assert.Equal(t, "committed", resp.Status)
		assert.Equal(t, key.Address(), node.lastCaller)
		assert.Equal(t, envelope, node.lastCall)
	})

	t.Run("unsigned", func(t *testing.T) {
		node := &mockNode{}
		req := httptest.NewRequest(
			http.MethodPost,
			"/api/v0/call",
			strings.NewReader(`{"envelope":"00"}`),
		)
		rec := serve(newTestGateway(node), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, node.lastCall)
	})

	t.Run("tampered body", func(t *testing.T) {
		node := &mockNode{}
		req := signedRequest(t, key, "/api/v0/call", body, time.Now())
		data, err := json.Marshal(CallRequest{Envelope: "00"})
		require.NoError(t, err)
		req.Body = httpBody(data)
		rec := serve(newTestGateway(node), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, node.lastCall)
	})

	t.Run("stale", func(t *testing.T) {
		node := &mockNode{}
		req := signedRequest(t, key, "/api/v0/call", body, time.Now().Add(-time.Hour))
		rec := serve(newTestGateway(node), req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, ErrStaleRequest.Error(), decodeError(t, rec).Message)
	})

	t.Run("malformed envelope", func(t *testing.T) {
		node := &mockNode{}
		bad := CallRequest{Envelope: hex.EncodeToString([]byte{0x01, 0xff})}
		rec := serve(newTestGateway(node), signedRequest(t, key, "/api/v0/call", bad, time.Now()))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Nil(t, node.lastCall)
	})

	t.Run("unauthorized caller", func(t *testing.T) {
		node := &mockNode{callErr: bridge.ErrUnauthorizedGateway}
		rec := serve(newTestGateway(node), signedRequest(t, key, "/api/v0/call", body, time.Now()))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("body too large", func(t *testing.T) {
		node := &mockNode{}
		g := New(GatewayConfig{MaxBodySize: 16}, node, nil, nil, nil)
		rec := serve(g, signedRequest(t, key, "/api/v0/call", body, time.Now()))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}

func TestHandleBurn(t *testing.T) {
	key := testKey(t)
	node := &mockNode{}
	g := newTestGateway(node)
	req := BurnRequest{
		UniversalTokenId: 42,
		DestinationChain: hex.EncodeToString([]byte("ethereum")),
		Receiver:         hex.EncodeToString([]byte{0xaa, 0xbb}),
	}
	rec := serve(g, signedRequest(t, key, "/api/v0/burn", req, time.Now()))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp BurnEventResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, uint64(1), resp.Sequence)
	assert.Equal(t, key.Address(), resp.Burner)
	assert.Equal(t, "aabb", resp.Receiver)

	// The payload field carries the committed wire encoding
	evt, err := resp.Event()
	require.NoError(t, err)
	assert.Equal(t, []byte("ethereum"), evt.Payload.DestinationChain)

	node.burnErr = fmt.Errorf("burn: %w", bridge.ErrTokenNotOwned)
	rec = serve(g, signedRequest(t, key, "/api/v0/burn", req, time.Now()))
	assert.Equal(t, http.StatusForbidden, rec.Code)

	req.Receiver = "zz"
	rec = serve(g, signedRequest(t, key, "/api/v0/burn", req, time.Now()))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatusForError(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{bridge.ErrUnauthorizedGateway, http.StatusForbidden},
		{bridge.ErrTokenNotOwned, http.StatusForbidden},
		{bridge.ErrUnauthorizedUpdateAuthority, http.StatusForbidden},
		{bridge.ErrInvalidInstructionData, http.StatusBadRequest},
		{bridge.ErrInvalidPayload, http.StatusBadRequest},
		{bridge.ErrLocationMismatch, http.StatusBadRequest},
		{bridge.ErrInvalidMetadataAccount, http.StatusBadRequest},
		{bridge.ErrNFTStateNotFound, http.StatusNotFound},
		{bridge.ErrNotInitialized, http.StatusNotFound},
		{bridge.ErrAlreadyMinted, http.StatusConflict},
		{bridge.ErrAlreadyInitialized, http.StatusConflict},
		{ErrBadSignature, http.StatusUnauthorized},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, test := range tests {
		t.Run(test.err.Error(), func(t *testing.T) {
			assert.Equal(t, test.status, statusForError(fmt.Errorf("wrapped: %w", test.err)))
		})
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	node := &mockNode{stateErr: errors.New("secret path /var/lib/x")}
	rec := serve(newTestGateway(node), httptest.NewRequest(http.MethodGet, "/api/v0/state", nil))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "secret")
}

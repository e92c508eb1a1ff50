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
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/internal/version"
)

const serviceName = "nftbridge"

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

func writeError(
	w http.ResponseWriter,
	status int,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      http.StatusText(status),
		Message:    message,
	})
}

// statusForError maps bridge failures onto HTTP status codes
func statusForError(err error) int {
	switch {
	case errors.Is(err, bridge.ErrUnauthorizedGateway),
		errors.Is(err, bridge.ErrTokenNotOwned),
		errors.Is(err, bridge.ErrUnauthorizedUpdateAuthority):
		return http.StatusForbidden
	case errors.Is(err, bridge.ErrInvalidInstructionData),
		errors.Is(err, bridge.ErrInvalidPayload),
		errors.Is(err, bridge.ErrLocationMismatch),
		errors.Is(err, bridge.ErrInvalidMetadataAccount),
		errors.Is(err, bridge.ErrInvalidConfig):
		return http.StatusBadRequest
	case errors.Is(err, bridge.ErrNFTStateNotFound),
		errors.Is(err, bridge.ErrNotInitialized):
		return http.StatusNotFound
	case errors.Is(err, bridge.ErrAlreadyMinted),
		errors.Is(err, bridge.ErrAlreadyInitialized):
		return http.StatusConflict
	case errors.Is(err, ErrMissingSignature),
		errors.Is(err, ErrBadSignature),
		errors.Is(err, ErrStaleRequest):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// writeBridgeError reports err with its mapped status. Internal errors are
// logged and their details withheld from the client.
func (g *Gateway) writeBridgeError(
	w http.ResponseWriter,
	r *http.Request,
	err error,
) {
	status := statusForError(err)
	if status == http.StatusInternalServerError {
		g.logger.Error(
			"request failed",
			"path", r.URL.Path,
			"error", err,
		)
		writeError(w, status, "internal error")
		return
	}
	g.logger.Debug(
		"request rejected",
		"path", r.URL.Path,
		"status", status,
		"error", err,
	)
	writeError(w, status, err.Error())
}

// readBody reads a size-limited request body, writing the error response
// itself on failure
func (g *Gateway) readBody(
	w http.ResponseWriter,
	r *http.Request,
) ([]byte, bool) {
	body, err := io.ReadAll(
		http.MaxBytesReader(w, r.Body, g.config.MaxBodySize),
	)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return nil, false
	}
	return body, true
}

// handleRoot handles GET / and returns API metadata.
func (g *Gateway) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	resp := RootResponse{
		Name:    serviceName,
		Version: version.GetVersionString(),
	}
	if state, err := g.node.ProgramState(); err == nil {
		resp.Initialized = true
		resp.Collection = state.CollectionName
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleHealth handles GET /health. An uninitialized bridge is healthy but
// a failing store is not.
func (g *Gateway) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	_, err := g.node.ProgramState()
	if err != nil && !errors.Is(err, bridge.ErrNotInitialized) {
		g.logger.Error(
			"health check failed",
			"error", err,
		)
		writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			IsHealthy: false,
		})
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy:   true,
		Initialized: err == nil,
	})
}

// handleState handles GET /api/v0/state
func (g *Gateway) handleState(
	w http.ResponseWriter,
	r *http.Request,
) {
	state, err := g.node.ProgramState()
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}

// handleToken handles GET /api/v0/tokens/{id}
func (g *Gateway) handleToken(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}
	token, err := g.node.Token(id)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

// handleTokenHolders handles GET /api/v0/tokens/{id}/holders
func (g *Gateway) handleTokenHolders(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}
	holders, err := g.node.Holders(id)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, holders)
}

// handleTokens handles GET /api/v0/tokens?after=&limit=. Tokens with an ID
// greater than after are listed in ID order.
func (g *Gateway) handleTokens(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParseCursor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	tokens := []bridge.TokenState{}
	if params.After < ^uint64(0) {
		tokens, err = g.node.Tokens(params.After+1, params.Limit)
		if err != nil {
			g.writeBridgeError(w, r, err)
			return
		}
	}
	var lastId uint64
	if len(tokens) > 0 {
		lastId = tokens[len(tokens)-1].UniversalTokenId
	}
	SetCursorHeaders(w, lastId, len(tokens), params)
	writeJSON(w, http.StatusOK, tokens)
}

// handleEvents handles GET /api/v0/events?after=&limit= and returns
// committed outbound burns in sequence order
func (g *Gateway) handleEvents(
	w http.ResponseWriter,
	r *http.Request,
) {
	params, err := ParseCursor(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := g.node.OutboundEvents(params.After, params.Limit)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	resp := make([]BurnEventResponse, 0, len(events))
	var lastId uint64
	for _, evt := range events {
		resp = append(resp, newBurnEventResponse(evt))
		lastId = evt.Sequence
	}
	SetCursorHeaders(w, lastId, len(resp), params)
	writeJSON(w, http.StatusOK, resp)
}

// handleStats handles GET /api/v0/stats
func (g *Gateway) handleStats(
	w http.ResponseWriter,
	_ *http.Request,
) {
	if g.stats == nil {
		writeError(w, http.StatusNotFound, "statistics are not enabled")
		return
	}
	writeJSON(w, http.StatusOK, g.stats.Snapshot())
}

// handleCall handles POST /api/v0/call, which delivers an inbound
// instruction envelope on behalf of the signing caller
func (g *Gateway) handleCall(
	w http.ResponseWriter,
	r *http.Request,
) {
	body, ok := g.readBody(w, r)
	if !ok {
		return
	}
	caller, err := authenticate(r, body, g.now(), g.config.MaxClockSkew)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	var req CallRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	envelope, err := hex.DecodeString(req.Envelope)
	if err != nil {
		writeError(w, http.StatusBadRequest, "envelope is not valid hex")
		return
	}
	inst, err := codec.DecodeInstruction(envelope)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	if err := g.node.OnCrossChainCall(r.Context(), caller, envelope); err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, CallResponse{
		Instruction: inst.Type.String(),
		Status:      "committed",
	})
}

// handleBurn handles POST /api/v0/burn. The signing caller must be the
// current owner of the token.
func (g *Gateway) handleBurn(
	w http.ResponseWriter,
	r *http.Request,
) {
	body, ok := g.readBody(w, r)
	if !ok {
		return
	}
	caller, err := authenticate(r, body, g.now(), g.config.MaxClockSkew)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	var req BurnRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	destChain, err := hex.DecodeString(req.DestinationChain)
	if err != nil {
		writeError(w, http.StatusBadRequest, "destination chain is not valid hex")
		return
	}
	receiver, err := hex.DecodeString(req.Receiver)
	if err != nil {
		writeError(w, http.StatusBadRequest, "receiver is not valid hex")
		return
	}
	evt, err := g.node.BurnToOrigin(
		r.Context(),
		caller,
		req.UniversalTokenId,
		destChain,
		receiver,
	)
	if err != nil {
		g.writeBridgeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newBurnEventResponse(*evt))
}

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
	"fmt"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/event"
)

// RootResponse is returned by GET /.
type RootResponse struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Collection  string `json:"collection,omitempty"`
	Initialized bool   `json:"initialized"`
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	IsHealthy   bool `json:"is_healthy"`
	Initialized bool `json:"initialized"`
}

// CallRequest carries a hex-encoded instruction envelope
type CallRequest struct {
	Envelope string `json:"envelope"`
}

// CallResponse reports a committed inbound instruction
type CallResponse struct {
	Instruction string `json:"instruction"`
	Status      string `json:"status"`
}

// BurnRequest asks the bridge to return a token to its origin chain
type BurnRequest struct {
	UniversalTokenId uint64 `json:"universal_token_id"`
	DestinationChain string `json:"destination_chain"`
	Receiver         string `json:"receiver"`
}

// BurnEventResponse is the JSON form of a committed outbound burn. Byte
// fields are hex-encoded and Payload holds the wire encoding that the
// relayer forwards verbatim.
type BurnEventResponse struct {
	Sequence         uint64          `json:"sequence"`
	UniversalTokenId uint64          `json:"universal_token_id"`
	DestinationChain string          `json:"destination_chain"`
	Receiver         string          `json:"receiver"`
	OriginalOwner    string          `json:"original_owner"`
	Uri              string          `json:"uri"`
	Name             string          `json:"name"`
	Creator          string          `json:"creator"`
	Burner           address.Address `json:"burner"`
	Payload          string          `json:"payload"`
}

// ErrorResponse is the error body for all failed requests
type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

func newBurnEventResponse(evt event.BurnToOriginEvent) BurnEventResponse {
	return BurnEventResponse{
		Sequence:         evt.Sequence,
		UniversalTokenId: evt.Payload.UniversalTokenId,
		DestinationChain: hex.EncodeToString(evt.Payload.DestinationChain),
		Receiver:         hex.EncodeToString(evt.Payload.Receiver),
		OriginalOwner:    hex.EncodeToString(evt.Payload.OriginalOwner),
		Uri:              evt.Uri,
		Name:             evt.Name,
		Creator:          hex.EncodeToString(evt.Creator),
		Burner:           evt.Burner,
		Payload:          hex.EncodeToString(evt.Payload.Encode()),
	}
}

// Event converts the response back into a bridge event. The payload is
// decoded from its wire form so that a relayer always acts on exactly what
// was committed.
func (r BurnEventResponse) Event() (event.BurnToOriginEvent, error) {
	var ret event.BurnToOriginEvent
	payloadBytes, err := hex.DecodeString(r.Payload)
	if err != nil {
		return ret, fmt.Errorf("decode payload: %w", err)
	}
	payload, err := codec.DecodeBurnToOrigin(payloadBytes)
	if err != nil {
		return ret, err
	}
	creator, err := hex.DecodeString(r.Creator)
	if err != nil {
		return ret, fmt.Errorf("decode creator: %w", err)
	}
	ret = event.BurnToOriginEvent{
		Payload:  *payload,
		Uri:      r.Uri,
		Name:     r.Name,
		Creator:  creator,
		Sequence: r.Sequence,
		Burner:   r.Burner,
	}
	return ret, nil
}

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
	"context"
	"fmt"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/database/models"
	"github.com/blinklabs-io/nftbridge/database/types"
	"github.com/blinklabs-io/nftbridge/event"
)

// BurnToOrigin burns the caller's local representation of a token and
// records the notification for the origin chain. The event is published
// after the transaction commits and is also returned.
func (b *Bridge) BurnToOrigin(
	ctx context.Context,
	caller address.Address,
	universalTokenId uint64,
	destinationChain []byte,
	receiver []byte,
) (*event.BurnToOriginEvent, error) {
	if err := validateBurnTarget(destinationChain, receiver); err != nil {
		b.recordResult(codec.InstructionBurnToOrigin.String(), err, 0)
		return nil, err
	}
	var ret event.BurnToOriginEvent
	err := b.transition(
		ctx,
		codec.InstructionBurnToOrigin.String(),
		caller,
		func(txn *database.Txn) (func(), error) {
			if _, err := b.loadProgramState(txn); err != nil {
				return nil, err
			}
			locs := DeriveLocations(b.config.ProgramId, universalTokenId)
			token, err := b.loadToken(txn, locs)
			if err != nil {
				return nil, err
			}
			if token.Status != StatusActive {
				return nil, ErrNFTStateNotFound
			}
			if token.CurrentOwner != caller {
				return nil, ErrTokenNotOwned
			}
			balance, err := b.units.Balance(txn, token.LocalAssetHandle, caller)
			if err != nil {
				return nil, err
			}
			if balance != 1 {
				return nil, fmt.Errorf("%w: balance is %d", ErrTokenNotOwned, balance)
			}
			if err := b.units.Burn(txn, token.LocalAssetHandle, caller, 1); err != nil {
				return nil, err
			}
			token.Status = StatusReturned
			if err := b.db.SetTokenState(locs.TokenState.Bytes(), token.record(), txn); err != nil {
				return nil, err
			}
			payload := codec.BurnToOriginPayload{
				UniversalTokenId: universalTokenId,
				DestinationChain: destinationChain,
				Receiver:         receiver,
				OriginalOwner:    token.OriginalOwner,
			}
			outEvt := &models.OutboundEvent{
				DestinationChain: destinationChain,
				Receiver:         receiver,
				OriginalOwner:    token.OriginalOwner,
				Creator:          token.Creator,
				Burner:           caller.Bytes(),
				Payload:          payload.Encode(),
				Uri:              token.Uri,
				Name:             token.Name,
				UniversalTokenId: types.Uint64(universalTokenId),
			}
			if err := b.db.AddOutboundEvent(outEvt, txn); err != nil {
				return nil, err
			}
			ret = event.BurnToOriginEvent{
				Payload:  payload,
				Uri:      token.Uri,
				Name:     token.Name,
				Creator:  token.Creator,
				Sequence: outEvt.ID,
				Burner:   caller,
			}
			return func() {
				b.logger.Info(
					"burned token to origin",
					"component", "bridge",
					"universal_token_id", universalTokenId,
					"destination_chain", string(destinationChain),
					"sequence", outEvt.ID,
				)
				if b.metrics != nil {
					b.metrics.active.Dec()
					b.metrics.returned.Inc()
				}
				b.emitter.Emit(ret)
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

func validateBurnTarget(destinationChain []byte, receiver []byte) error {
	switch {
	case len(destinationChain) == 0:
		return fmt.Errorf("%w: destination chain is required", ErrInvalidPayload)
	case len(destinationChain) > codec.MaxChainLength:
		return fmt.Errorf(
			"%w: destination chain exceeds %d bytes",
			ErrInvalidPayload,
			codec.MaxChainLength,
		)
	case len(receiver) == 0:
		return fmt.Errorf("%w: receiver is required", ErrInvalidPayload)
	case len(receiver) > codec.MaxReceiverLength:
		return fmt.Errorf(
			"%w: receiver exceeds %d bytes",
			ErrInvalidPayload,
			codec.MaxReceiverLength,
		)
	}
	return nil
}

// OutboundEvents returns committed burns after the given sequence number
func (b *Bridge) OutboundEvents(afterId uint64, limit int) ([]event.BurnToOriginEvent, error) {
	rows, err := b.db.OutboundEvents(afterId, limit, nil)
	if err != nil {
		return nil, err
	}
	ret := make([]event.BurnToOriginEvent, 0, len(rows))
	for _, row := range rows {
		evt, err := OutboundEventFromModel(row)
		if err != nil {
			return nil, err
		}
		ret = append(ret, evt)
	}
	return ret, nil
}

// OutboundEventFromModel rebuilds a burn event from its stored outbox row
func OutboundEventFromModel(row models.OutboundEvent) (event.BurnToOriginEvent, error) {
	payload, err := codec.DecodeBurnToOrigin(row.Payload)
	if err != nil {
		return event.BurnToOriginEvent{}, fmt.Errorf("outbox entry %d: %w", row.ID, err)
	}
	burner, err := address.FromBytes(row.Burner)
	if err != nil {
		return event.BurnToOriginEvent{}, fmt.Errorf("outbox entry %d: %w", row.ID, err)
	}
	return event.BurnToOriginEvent{
		Payload:  *payload,
		Uri:      row.Uri,
		Name:     row.Name,
		Creator:  row.Creator,
		Sequence: row.ID,
		Burner:   burner,
	}, nil
}

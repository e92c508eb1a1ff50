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
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/database"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/ledger"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/blinklabs-io/nftbridge/bridge"

type Config struct {
	Database       *database.Database
	EventBus       *event.EventBus
	Logger         *slog.Logger
	PromRegistry   prometheus.Registerer
	TracerProvider trace.TracerProvider
	ProgramId      address.Address
}

// Bridge is the cross-chain NFT lifecycle state machine. Transitions are
// serialized and each runs in a single database transaction.
type Bridge struct {
	config   Config
	logger   *slog.Logger
	db       *database.Database
	units    *ledger.Units
	registry *ledger.Registry
	emitter  *Emitter
	metrics  *bridgeMetrics
	tracer   trace.Tracer
	mu       sync.Mutex
}

func New(cfg Config) (*Bridge, error) {
	if cfg.Database == nil {
		return nil, errors.New("bridge: database is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = otel.GetTracerProvider()
	}
	b := &Bridge{
		config:   cfg,
		logger:   cfg.Logger,
		db:       cfg.Database,
		units:    ledger.NewUnits(cfg.Logger),
		registry: ledger.NewRegistry(cfg.Logger),
		emitter:  NewEmitter(cfg.EventBus),
		tracer:   cfg.TracerProvider.Tracer(tracerName),
	}
	if cfg.PromRegistry != nil {
		b.metrics = newBridgeMetrics(cfg.PromRegistry)
	}
	return b, nil
}

// ProgramId returns the identity all storage locations are derived from
func (b *Bridge) ProgramId() address.Address {
	return b.config.ProgramId
}

// ProgramStateLocation returns the location of the configuration record
func (b *Bridge) ProgramStateLocation() address.Address {
	return address.ProgramStateLocation(b.config.ProgramId)
}

func (b *Bridge) Units() *ledger.Units {
	return b.units
}

func (b *Bridge) Registry() *ledger.Registry {
	return b.registry
}

// Initialize creates the configuration record. It can only succeed once.
func (b *Bridge) Initialize(
	ctx context.Context,
	authority address.Address,
	collectionName string,
	collectionSymbol string,
	collectionUri string,
	relayer address.Address,
) (*ProgramState, error) {
	state := &ProgramState{
		Authority:        authority,
		CollectionName:   collectionName,
		CollectionSymbol: collectionSymbol,
		CollectionUri:    collectionUri,
		RelayerIdentity:  relayer,
		NextTokenId:      1,
	}
	if err := validateProgramState(state); err != nil {
		return nil, err
	}
	err := b.transition(
		ctx,
		"initialize",
		authority,
		func(txn *database.Txn) (func(), error) {
			location := b.ProgramStateLocation()
			_, err := b.db.GetProgramState(location.Bytes(), txn)
			if err == nil {
				return nil, ErrAlreadyInitialized
			}
			if !errors.Is(err, database.ErrRecordNotFound) {
				return nil, err
			}
			if err := b.db.SetProgramState(location.Bytes(), state.record(), txn); err != nil {
				return nil, err
			}
			return func() {
				b.logger.Info(
					"bridge initialized",
					"component", "bridge",
					"collection", state.CollectionName,
					"relayer", state.RelayerIdentity.String(),
				)
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func validateProgramState(state *ProgramState) error {
	switch {
	case state.Authority.IsZero():
		return fmt.Errorf("%w: authority is required", ErrInvalidConfig)
	case state.RelayerIdentity.IsZero():
		return fmt.Errorf("%w: relayer identity is required", ErrInvalidConfig)
	case len(state.CollectionName) > MaxCollectionNameLength:
		return fmt.Errorf(
			"%w: collection name exceeds %d bytes",
			ErrInvalidConfig,
			MaxCollectionNameLength,
		)
	case len(state.CollectionSymbol) > MaxCollectionSymbolLength:
		return fmt.Errorf(
			"%w: collection symbol exceeds %d bytes",
			ErrInvalidConfig,
			MaxCollectionSymbolLength,
		)
	case len(state.CollectionUri) > MaxCollectionUriLength:
		return fmt.Errorf(
			"%w: collection uri exceeds %d bytes",
			ErrInvalidConfig,
			MaxCollectionUriLength,
		)
	}
	return nil
}

// ProgramState returns the configuration record
func (b *Bridge) ProgramState() (*ProgramState, error) {
	txn := b.db.Transaction(false)
	defer txn.Release()
	return b.loadProgramState(txn)
}

func (b *Bridge) loadProgramState(txn *database.Txn) (*ProgramState, error) {
	rec, err := b.db.GetProgramState(b.ProgramStateLocation().Bytes(), txn)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrNotInitialized
		}
		return nil, err
	}
	return programStateFromRecord(rec)
}

// Token returns the record for a universal token ID. Returned tokens remain
// queryable.
func (b *Bridge) Token(universalTokenId uint64) (*TokenState, error) {
	txn := b.db.Transaction(false)
	defer txn.Release()
	return b.loadToken(txn, DeriveLocations(b.config.ProgramId, universalTokenId))
}

func (b *Bridge) loadToken(txn *database.Txn, locs Locations) (*TokenState, error) {
	rec, err := b.db.GetTokenState(locs.TokenState.Bytes(), txn)
	if err != nil {
		if errors.Is(err, database.ErrRecordNotFound) {
			return nil, ErrNFTStateNotFound
		}
		return nil, err
	}
	return tokenStateFromRecord(rec)
}

// Tokens returns up to limit token records starting at startId, in ID order
func (b *Bridge) Tokens(startId uint64, limit int) ([]TokenState, error) {
	txn := b.db.Transaction(false)
	defer txn.Release()
	recs, err := b.db.TokenStates(startId, limit, txn)
	if err != nil {
		return nil, err
	}
	ret := make([]TokenState, 0, len(recs))
	for i := range recs {
		tmp, err := tokenStateFromRecord(&recs[i])
		if err != nil {
			return nil, err
		}
		ret = append(ret, *tmp)
	}
	return ret, nil
}

// OnCrossChainCall handles an inbound instruction envelope from caller
func (b *Bridge) OnCrossChainCall(
	ctx context.Context,
	caller address.Address,
	envelope []byte,
) error {
	return b.OnCrossChainCallWithAccounts(ctx, caller, envelope, Accounts{})
}

// OnCrossChainCallWithAccounts handles an inbound instruction envelope and
// rejects any supplied location that differs from the derived one
func (b *Bridge) OnCrossChainCallWithAccounts(
	ctx context.Context,
	caller address.Address,
	envelope []byte,
	accts Accounts,
) error {
	inst, err := codec.DecodeInstruction(envelope)
	if err != nil {
		b.recordResult("envelope", err, 0)
		return err
	}
	return b.transition(
		ctx,
		inst.Type.String(),
		caller,
		func(txn *database.Txn) (func(), error) {
			state, err := b.loadProgramState(txn)
			if err != nil {
				return nil, err
			}
			if err := Authorize(caller, state); err != nil {
				return nil, err
			}
			payload, err := codec.DecodePayload(inst.Type, inst.Payload)
			if err != nil {
				return nil, err
			}
			switch p := payload.(type) {
			case *codec.MintFromOriginPayload:
				return b.mintFromOrigin(txn, p, accts)
			case *codec.UpdateMetadataPayload:
				return b.updateMetadata(txn, p, accts)
			default:
				return nil, fmt.Errorf(
					"%w: unhandled payload %T",
					ErrInvalidInstructionData,
					payload,
				)
			}
		},
	)
}

// transition runs fn in a serialized read-write transaction. The function
// returned by fn runs after a successful commit and before the next
// transition starts, so events are published in commit order.
func (b *Bridge) transition(
	ctx context.Context,
	name string,
	caller address.Address,
	fn func(*database.Txn) (func(), error),
) error {
	_, span := b.tracer.Start(
		ctx,
		"bridge."+name,
		trace.WithAttributes(attribute.String("bridge.caller", caller.String())),
	)
	defer span.End()
	if err := ctx.Err(); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	start := time.Now()
	b.mu.Lock()
	err := b.db.Transaction(true).Do(func(txn *database.Txn) error {
		afterCommit, err := fn(txn)
		if err != nil {
			return err
		}
		txn.OnCommit(afterCommit)
		return nil
	})
	b.mu.Unlock()
	b.recordResult(name, err, time.Since(start))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		b.logger.Debug(
			"bridge transition failed",
			"component", "bridge",
			"instruction", name,
			"caller", caller.String(),
			"error", err,
		)
		return err
	}
	return nil
}

func (b *Bridge) recordResult(name string, err error, elapsed time.Duration) {
	if b.metrics == nil {
		return
	}
	result := resultSuccess
	if err != nil {
		result = resultError
	}
	b.metrics.transitions.WithLabelValues(name, result).Inc()
	if elapsed > 0 {
		b.metrics.duration.WithLabelValues(name).Observe(elapsed.Seconds())
	}
}

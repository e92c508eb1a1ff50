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

package event_test

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/blinklabs-io/nftbridge/address"
	"github.com/blinklabs-io/nftbridge/codec"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/internal/test/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestEventBusSingleSubscriber(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, subCh := eb.Subscribe(event.UpdateMetadataEventType)
	eb.Publish(
		event.UpdateMetadataEventType,
		event.NewEvent(
			event.UpdateMetadataEventType,
			event.UpdateMetadataEvent{UniversalTokenId: 42, Uri: "ipfs://y", Name: "Beta"},
		),
	)
	evt := testutil.RequireReceive(t, subCh, time.Second, "update event")
	data, ok := evt.Data.(event.UpdateMetadataEvent)
	require.True(t, ok, "unexpected event data type %T", evt.Data)
	assert.Equal(t, uint64(42), data.UniversalTokenId)
	assert.Equal(t, event.UpdateMetadataEventType, evt.Type)
	assert.False(t, evt.Timestamp.IsZero())
}

func TestEventBusMultipleSubscribers(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	_, sub1Ch := eb.Subscribe(event.BurnToOriginEventType)
	_, sub2Ch := eb.Subscribe(event.BurnToOriginEventType)
	_, otherCh := eb.Subscribe(event.MintFromOriginEventType)
	burn := event.BurnToOriginEvent{
		Payload: codec.BurnToOriginPayload{
			UniversalTokenId: 42,
			DestinationChain: []byte("zeta"),
			Receiver:         []byte{0xaa},
		},
		Sequence: 1,
		Burner:   address.Address{0x01},
	}
	eb.Publish(event.BurnToOriginEventType, event.NewEvent(event.BurnToOriginEventType, burn))
	for _, ch := range []<-chan event.Event{sub1Ch, sub2Ch} {
		evt := testutil.RequireReceive(t, ch, time.Second, "burn event")
		assert.Equal(t, burn, evt.Data)
	}
	testutil.RequireNoReceive(t, otherCh, 50*time.Millisecond, "mint subscriber")
}

func TestEventBusUnsubscribe(t *testing.T) {
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	subId, subCh := eb.Subscribe(event.MintFromOriginEventType)
	eb.Unsubscribe(event.MintFromOriginEventType, subId)
	eb.Publish(event.MintFromOriginEventType, event.NewEvent(event.MintFromOriginEventType, 1))
	select {
	case _, ok := <-subCh:
		require.False(t, ok, "received unexpected event")
	case <-time.After(time.Second):
		t.Fatal("subscriber channel was not closed after Unsubscribe")
	}
}

func TestEventBusStop(t *testing.T) {
	defer goleak.VerifyNone(t)
	var testEvtType event.EventType = "test.event"
	eb := event.NewEventBus(nil, nil)

	_, subCh1 := eb.Subscribe(testEvtType)
	doneCh := make(chan bool, 1)
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		doneCh <- true
	})

	eb.Publish(testEvtType, event.NewEvent(testEvtType, "before"))
	testutil.RequireReceive(t, doneCh, time.Second, "handler before Stop")

	eb.Stop()

	// Drain buffered events until the channel closes
	require.Eventually(t, func() bool {
		for {
			select {
			case _, ok := <-subCh1:
				if !ok {
					return true
				}
			default:
				return false
			}
		}
	}, time.Second, 10*time.Millisecond)

	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after"))
	testutil.RequireNoReceive(t, doneCh, 100*time.Millisecond, "handler after Stop")

	// The bus is usable after Stop
	_, subCh3 := eb.Subscribe(testEvtType)
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "new"))
	testutil.RequireReceive(t, subCh3, time.Second, "subscriber after Stop")

	eb.Stop()
	_, ok := <-subCh3
	require.False(t, ok, "channel should be closed after second Stop")
}

func TestPublishAsync(t *testing.T) {
	defer goleak.VerifyNone(t)
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()
	var received atomic.Int32
	eb.SubscribeFunc(event.MintFromOriginEventType, func(event.Event) {
		received.Add(1)
	})
	for i := range 10 {
		require.True(
			t,
			eb.PublishAsync(
				event.MintFromOriginEventType,
				event.NewEvent(event.MintFromOriginEventType, i),
			),
		)
	}
	testutil.WaitForCondition(
		t,
		func() bool { return received.Load() == 10 },
		2*time.Second,
		"async events delivered",
	)

	// Workers restart after Stop
	eb.Stop()
	eb.SubscribeFunc(event.MintFromOriginEventType, func(event.Event) {
		received.Add(1)
	})
	require.True(
		t,
		eb.PublishAsync(
			event.MintFromOriginEventType,
			event.NewEvent(event.MintFromOriginEventType, 11),
		),
	)
	testutil.WaitForCondition(
		t,
		func() bool { return received.Load() == 11 },
		2*time.Second,
		"async event after restart",
	)
}

func TestSubscribeFuncPanicRecovery(t *testing.T) {
	var testEvtType event.EventType = "test.panic"
	eb := event.NewEventBus(nil, nil)
	defer eb.Stop()

	var received atomic.Int32
	eb.SubscribeFunc(testEvtType, func(evt event.Event) {
		if received.Add(1) == 1 {
			panic("intentional test panic")
		}
	})
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "panic"))
	eb.Publish(testEvtType, event.NewEvent(testEvtType, "after-panic"))
	require.Eventually(t, func() bool {
		return received.Load() >= 2
	}, 2*time.Second, 10*time.Millisecond,
		"handler should continue processing events after a panic",
	)
}

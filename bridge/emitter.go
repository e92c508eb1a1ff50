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
	"github.com/blinklabs-io/nftbridge/event"
)

// Emitter publishes committed transitions on the event bus. Delivery is
// fire-and-forget.
type Emitter struct {
	eventBus *event.EventBus
}

func NewEmitter(eventBus *event.EventBus) *Emitter {
	return &Emitter{eventBus: eventBus}
}

// Emit publishes a committed burn for the origin-chain relayer
func (e *Emitter) Emit(evt event.BurnToOriginEvent) {
	e.publish(event.BurnToOriginEventType, evt)
}

// Mint and update notices only feed statistics, so they go through the
// worker pool and fall back to inline delivery when its queue is full.
func (e *Emitter) emitMint(evt event.MintFromOriginEvent) {
	e.publishAsync(event.MintFromOriginEventType, evt)
}

func (e *Emitter) emitUpdate(evt event.UpdateMetadataEvent) {
	e.publishAsync(event.UpdateMetadataEventType, evt)
}

func (e *Emitter) publish(eventType event.EventType, data any) {
	if e == nil || e.eventBus == nil {
		return
	}
	e.eventBus.Publish(eventType, event.NewEvent(eventType, data))
}

func (e *Emitter) publishAsync(eventType event.EventType, data any) {
	if e == nil || e.eventBus == nil {
		return
	}
	evt := event.NewEvent(eventType, data)
	if !e.eventBus.PublishAsync(eventType, evt) {
		e.eventBus.Publish(eventType, evt)
	}
}

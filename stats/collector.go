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

package stats

import (
	"sync"

	"github.com/axiomhq/hyperloglog"
	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/event"
)

// Snapshot is a point-in-time view of bridge activity. Distinct counts are
// HyperLogLog estimates.
type Snapshot struct {
	ReturnsByChain     map[string]uint64 `json:"returns_by_chain"`
	Minted             uint64            `json:"minted"`
	Updated            uint64            `json:"updated"`
	Returned           uint64            `json:"returned"`
	Active             uint64            `json:"active"`
	DistinctRecipients uint64            `json:"distinct_recipients"`
	DistinctReceivers  uint64            `json:"distinct_receivers"`
}

// Collector aggregates bridge events from the event bus
type Collector struct {
	mu             sync.RWMutex
	eventBus       *event.EventBus
	subIds         map[event.EventType]event.EventSubscriberId
	recipientsHLL  *hyperloglog.Sketch
	receiversHLL   *hyperloglog.Sketch
	returnsByChain map[string]uint64
	minted         uint64
	updated        uint64
	returned       uint64
}

func NewCollector(eventBus *event.EventBus) *Collector {
	return &Collector{
		eventBus:       eventBus,
		subIds:         make(map[event.EventType]event.EventSubscriberId),
		recipientsHLL:  hyperloglog.New16(),
		receiversHLL:   hyperloglog.New14(),
		returnsByChain: make(map[string]uint64),
	}
}

// Seed loads counters from stored records so that statistics survive a restart
func (c *Collector) Seed(tokens []bridge.TokenState, returns []event.BurnToOriginEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, token := range tokens {
		c.minted++
		c.recipientsHLL.Insert(token.CurrentOwner.Bytes())
	}
	for _, evt := range returns {
		c.recordReturn(evt)
	}
}

// Start subscribes to bridge events
func (c *Collector) Start() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.eventBus == nil || len(c.subIds) > 0 {
		return
	}
	for _, eventType := range []event.EventType{
		event.MintFromOriginEventType,
		event.UpdateMetadataEventType,
		event.BurnToOriginEventType,
	} {
		c.subIds[eventType] = c.eventBus.SubscribeFunc(eventType, c.HandleEvent)
	}
}

func (c *Collector) Stop() {
	c.mu.Lock()
	subIds := c.subIds
	c.subIds = make(map[event.EventType]event.EventSubscriberId)
	c.mu.Unlock()
	for eventType, subId := range subIds {
		c.eventBus.Unsubscribe(eventType, subId)
	}
}

// HandleEvent records a single bridge event
func (c *Collector) HandleEvent(evt event.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch data := evt.Data.(type) {
	case event.MintFromOriginEvent:
		c.minted++
		c.recipientsHLL.Insert(data.Recipient.Bytes())
	case event.UpdateMetadataEvent:
		c.updated++
	case event.BurnToOriginEvent:
		c.recordReturn(data)
	}
}

func (c *Collector) recordReturn(evt event.BurnToOriginEvent) {
	c.returned++
	c.receiversHLL.Insert(evt.Payload.Receiver)
	c.returnsByChain[string(evt.Payload.DestinationChain)]++
}

func (c *Collector) Snapshot() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	ret := Snapshot{
		Minted:             c.minted,
		Updated:            c.updated,
		Returned:           c.returned,
		DistinctRecipients: c.recipientsHLL.Estimate(),
		DistinctReceivers:  c.receiversHLL.Estimate(),
		ReturnsByChain:     make(map[string]uint64, len(c.returnsByChain)),
	}
	if c.minted > c.returned {
		ret.Active = c.minted - c.returned
	}
	for chain, count := range c.returnsByChain {
		ret.ReturnsByChain[chain] = count
	}
	return ret
}

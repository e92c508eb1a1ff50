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
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/blinklabs-io/nftbridge/event"
	"github.com/gorilla/websocket"
)

const (
	feedWriteTimeout = 10 * time.Second
	feedPongTimeout  = 60 * time.Second
	feedPingInterval = 54 * time.Second
	feedMaxReadSize  = 512
	feedReplayPage   = 100
	feedLiveBuffer   = 64
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
}

// feed streams committed burns to one websocket client. It replays the
// outbox from the client's cursor, then follows live events from the bus.
// When the live buffer overflows the feed falls back to the outbox, so a
// slow client never misses a sequence number.
type feed struct {
	gw        *Gateway
	conn      *websocket.Conn
	live      chan event.BurnToOriginEvent
	lagged    chan struct{}
	done      chan struct{}
	closeOnce sync.Once
	lastSent  uint64
}

func newFeed(gw *Gateway, conn *websocket.Conn, after uint64) *feed {
	return &feed{
		gw:       gw,
		conn:     conn,
		live:     make(chan event.BurnToOriginEvent, feedLiveBuffer),
		lagged:   make(chan struct{}, 1),
		done:     make(chan struct{}),
		lastSent: after,
	}
}

// Deliver implements event.Subscriber
func (f *feed) Deliver(evt event.Event) error {
	data, ok := evt.Data.(event.BurnToOriginEvent)
	if !ok {
		return nil
	}
	select {
	case <-f.done:
		return nil
	case f.live <- data:
	default:
		select {
		case f.lagged <- struct{}{}:
		default:
		}
	}
	return nil
}

// Close implements event.Subscriber
func (f *feed) Close() {
	f.closeOnce.Do(func() {
		close(f.done)
	})
}

func (f *feed) write(evt event.BurnToOriginEvent) error {
	if err := f.conn.SetWriteDeadline(time.Now().Add(feedWriteTimeout)); err != nil {
		return err
	}
	if err := f.conn.WriteJSON(newBurnEventResponse(evt)); err != nil {
		return err
	}
	f.lastSent = evt.Sequence
	return nil
}

// replay sends every stored event after lastSent
func (f *feed) replay() error {
	for {
		select {
		case <-f.done:
			return nil
		default:
		}
		events, err := f.gw.node.OutboundEvents(f.lastSent, feedReplayPage)
		if err != nil {
			return err
		}
		for _, evt := range events {
			if err := f.write(evt); err != nil {
				return err
			}
		}
		if len(events) < feedReplayPage {
			return nil
		}
	}
}

// readPump consumes client frames so that pongs and close frames are
// processed. Any read error ends the feed.
func (f *feed) readPump() {
	defer f.Close()
	f.conn.SetReadLimit(feedMaxReadSize)
	//nolint:errcheck
	f.conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	f.conn.SetPongHandler(func(string) error {
		return f.conn.SetReadDeadline(time.Now().Add(feedPongTimeout))
	})
	for {
		if _, _, err := f.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(
				err,
				websocket.CloseGoingAway,
				websocket.CloseNormalClosure,
			) {
				f.gw.logger.Debug(
					"event feed read error",
					"error", err,
				)
			}
			return
		}
	}
}

func (f *feed) run() error {
	ticker := time.NewTicker(feedPingInterval)
	defer ticker.Stop()
	if err := f.replay(); err != nil {
		return err
	}
	for {
		select {
		case <-f.done:
			//nolint:errcheck
			f.conn.WriteControl(
				websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(feedWriteTimeout),
			)
			return nil
		case evt := <-f.live:
			// Already covered by replay
			if evt.Sequence <= f.lastSent {
				continue
			}
			if err := f.write(evt); err != nil {
				return err
			}
		case <-f.lagged:
			// Buffered live events are older than what the outbox holds now
			for len(f.live) > 0 {
				<-f.live
			}
			if err := f.replay(); err != nil {
				return err
			}
		case <-ticker.C:
			if err := f.conn.WriteControl(
				websocket.PingMessage,
				nil,
				time.Now().Add(feedWriteTimeout),
			); err != nil {
				return err
			}
		}
	}
}

// handleEventFeed handles GET /api/v0/events/ws?after= and upgrades the
// connection to a websocket stream of burn events
func (g *Gateway) handleEventFeed(
	w http.ResponseWriter,
	r *http.Request,
) {
	var after uint64
	if afterParam := r.URL.Query().Get("after"); afterParam != "" {
		var err error
		after, err = strconv.ParseUint(afterParam, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, ErrInvalidPaginationParameters.Error())
			return
		}
	}
	if g.eventBus == nil {
		writeError(w, http.StatusNotFound, "event streaming is not enabled")
		return
	}
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		// The upgrader has already written the error response
		g.logger.Debug(
			"event feed upgrade failed",
			"error", err,
		)
		return
	}
	f := newFeed(g, conn, after)
	if !g.addFeed(f) {
		conn.Close() //nolint:errcheck
		return
	}
	defer g.removeFeed(f)
	defer conn.Close() //nolint:errcheck
	// Subscribe before replay so that nothing committed in between is lost
	subId := g.eventBus.RegisterSubscriber(event.BurnToOriginEventType, f)
	defer g.eventBus.Unsubscribe(event.BurnToOriginEventType, subId)

	var readWg sync.WaitGroup
	readWg.Add(1)
	go func() {
		defer readWg.Done()
		f.readPump()
	}()
	g.logger.Debug(
		"event feed opened",
		"remote", r.RemoteAddr,
		"after", after,
	)
	if err := f.run(); err != nil {
		g.logger.Debug(
			"event feed closed",
			"remote", r.RemoteAddr,
			"error", err,
		)
	}
	f.Close()
	conn.Close() //nolint:errcheck
	readWg.Wait()
}

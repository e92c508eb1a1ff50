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
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/blinklabs-io/nftbridge/bridge"
	"github.com/blinklabs-io/nftbridge/event"
	"github.com/blinklabs-io/nftbridge/keystore"
	"github.com/blinklabs-io/nftbridge/stats"
	"github.com/gorilla/websocket"
)

// APIError is a non-2xx response from the gateway
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gateway returned %d: %s", e.StatusCode, e.Message)
}

// Client talks to a gateway. Requests that change state are signed with the
// client's key.
type Client struct {
	baseURL    *url.URL
	httpClient *http.Client
	key        *keystore.Key
}

// NewClient returns a client for the gateway at baseURL. The key may be nil
// for read-only use. A nil httpClient uses http.DefaultClient.
func NewClient(
	baseURL string,
	key *keystore.Key,
	httpClient *http.Client,
) (*Client, error) {
	u, err := url.Parse(strings.TrimSuffix(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported gateway url scheme: %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    u,
		httpClient: httpClient,
		key:        key,
	}, nil
}

func (c *Client) endpoint(path string, query url.Values) string {
	u := *c.baseURL
	u.Path += path
	u.RawQuery = query.Encode()
	return u.String()
}

func (c *Client) do(
	ctx context.Context,
	method string,
	path string,
	query url.Values,
	reqBody any,
	respBody any,
) error {
	var body []byte
	if reqBody != nil {
		var err error
		body, err = json.Marshal(reqBody)
		if err != nil {
			return err
		}
	}
	req, err := http.NewRequestWithContext(
		ctx,
		method,
		c.endpoint(path, query),
		bytes.NewReader(body),
	)
	if err != nil {
		return err
	}
	if reqBody != nil {
		if c.key == nil {
			return errors.New("a signing key is required for this request")
		}
		req.Header.Set("Content-Type", "application/json")
		SignRequest(req, c.key, body, time.Now())
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var errResp ErrorResponse
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		if err := json.Unmarshal(data, &errResp); err != nil || errResp.Message == "" {
			errResp.Message = strings.TrimSpace(string(data))
		}
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    errResp.Message,
		}
	}
	if respBody == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(respBody)
}

// Call submits an instruction envelope
func (c *Client) Call(ctx context.Context, envelope []byte) (*CallResponse, error) {
	var ret CallResponse
	err := c.do(
		ctx,
		http.MethodPost,
		"/api/v0/call",
		nil,
		CallRequest{Envelope: hex.EncodeToString(envelope)},
		&ret,
	)
	if err != nil {
		return nil, err
	}
	return &ret, nil
}

// Burn returns a token owned by the client's key to its origin chain
func (c *Client) Burn(
	ctx context.Context,
	universalTokenId uint64,
	destinationChain []byte,
	receiver []byte,
) (*event.BurnToOriginEvent, error) {
	var resp BurnEventResponse
	err := c.do(
		ctx,
		http.MethodPost,
		"/api/v0/burn",
		nil,
		BurnRequest{
			UniversalTokenId: universalTokenId,
			DestinationChain: hex.EncodeToString(destinationChain),
			Receiver:         hex.EncodeToString(receiver),
		},
		&resp,
	)
	if err != nil {
		return nil, err
	}
	evt, err := resp.Event()
	if err != nil {
		return nil, err
	}
	return &evt, nil
}

func (c *Client) State(ctx context.Context) (*bridge.ProgramState, error) {
	var ret bridge.ProgramState
	if err := c.do(ctx, http.MethodGet, "/api/v0/state", nil, nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

func (c *Client) Token(ctx context.Context, universalTokenId uint64) (*bridge.TokenState, error) {
	var ret bridge.TokenState
	path := "/api/v0/tokens/" + strconv.FormatUint(universalTokenId, 10)
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Holders returns the supply and balances of a token's local unit
func (c *Client) Holders(ctx context.Context, universalTokenId uint64) (*bridge.TokenHolders, error) {
	var ret bridge.TokenHolders
	path := "/api/v0/tokens/" + strconv.FormatUint(universalTokenId, 10) + "/holders"
	if err := c.do(ctx, http.MethodGet, path, nil, nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Tokens lists tokens with an ID greater than after
func (c *Client) Tokens(ctx context.Context, after uint64, limit int) ([]bridge.TokenState, error) {
	var ret []bridge.TokenState
	if err := c.do(ctx, http.MethodGet, "/api/v0/tokens", cursorQuery(after, limit), nil, &ret); err != nil {
		return nil, err
	}
	return ret, nil
}

// Events lists committed burns with a sequence number greater than after
func (c *Client) Events(ctx context.Context, after uint64, limit int) ([]event.BurnToOriginEvent, error) {
	var resp []BurnEventResponse
	if err := c.do(ctx, http.MethodGet, "/api/v0/events", cursorQuery(after, limit), nil, &resp); err != nil {
		return nil, err
	}
	ret := make([]event.BurnToOriginEvent, 0, len(resp))
	for _, item := range resp {
		evt, err := item.Event()
		if err != nil {
			return nil, err
		}
		ret = append(ret, evt)
	}
	return ret, nil
}

func (c *Client) Stats(ctx context.Context) (*stats.Snapshot, error) {
	var ret stats.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/v0/stats", nil, nil, &ret); err != nil {
		return nil, err
	}
	return &ret, nil
}

// Follow streams committed burns after the given sequence number to fn
// until ctx is canceled, fn returns an error or the connection drops
func (c *Client) Follow(
	ctx context.Context,
	after uint64,
	fn func(event.BurnToOriginEvent) error,
) error {
	u := *c.baseURL
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/v0/events/ws"
	u.RawQuery = url.Values{"after": {strconv.FormatUint(after, 10)}}.Encode()
	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close() //nolint:errcheck
	}
	if err != nil {
		return fmt.Errorf("connect event feed: %w", err)
	}
	defer conn.Close() //nolint:errcheck
	stop := context.AfterFunc(ctx, func() {
		conn.Close() //nolint:errcheck
	})
	defer stop()
	for {
		var item BurnEventResponse
		if err := conn.ReadJSON(&item); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return err
		}
		evt, err := item.Event()
		if err != nil {
			return err
		}
		if err := fn(evt); err != nil {
			return err
		}
	}
}

func cursorQuery(after uint64, limit int) url.Values {
	query := url.Values{}
	query.Set("after", strconv.FormatUint(after, 10))
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	return query
}

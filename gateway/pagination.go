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
	"errors"
	"net/http"
	"strconv"
)

const (
	DefaultPageLimit = 100
	MaxPageLimit     = 1000
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// CursorParams contains parsed cursor pagination query values
type CursorParams struct {
	After uint64
	Limit int
}

// ParseCursor parses the after and limit query parameters and applies
// defaults and bounds clamping
func ParseCursor(r *http.Request) (CursorParams, error) {
	params := CursorParams{
		Limit: DefaultPageLimit,
	}
	query := r.URL.Query()
	if afterParam := query.Get("after"); afterParam != "" {
		after, err := strconv.ParseUint(afterParam, 10, 64)
		if err != nil {
			return CursorParams{}, ErrInvalidPaginationParameters
		}
		params.After = after
	}
	if limitParam := query.Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			return CursorParams{}, ErrInvalidPaginationParameters
		}
		params.Limit = limit
	}
	if params.Limit < 1 {
		params.Limit = 1
	}
	if params.Limit > MaxPageLimit {
		params.Limit = MaxPageLimit
	}
	return params, nil
}

// SetCursorHeaders tells the client where the next page starts. A full page
// implies there may be more.
func SetCursorHeaders(
	w http.ResponseWriter,
	lastId uint64,
	count int,
	params CursorParams,
) {
	w.Header().Set("X-Cursor-Count", strconv.Itoa(count))
	if count > 0 {
		w.Header().Set("X-Cursor-Next", strconv.FormatUint(lastId, 10))
	}
	if count >= params.Limit {
		w.Header().Set("X-Cursor-More", "true")
	}
}

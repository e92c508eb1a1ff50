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
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCursorDefaultValues(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v0/events", nil)
	params, err := ParseCursor(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), params.After)
	assert.Equal(t, DefaultPageLimit, params.Limit)
}

func TestParseCursorValid(t *testing.T) {
	req := httptest.NewRequest(
		http.MethodGet,
		"/api/v0/events?after=18446744073709551615&limit=25",
		nil,
	)
	params, err := ParseCursor(req)
	require.NoError(t, err)
	assert.Equal(t, uint64(18446744073709551615), params.After)
	assert.Equal(t, 25, params.Limit)
}

func TestParseCursorClampBounds(t *testing.T) {
	for url, expected := range map[string]int{
		"/api/v0/events?limit=99999": MaxPageLimit,
		"/api/v0/events?limit=0":     1,
		"/api/v0/events?limit=-5":    1,
	} {
		req := httptest.NewRequest(http.MethodGet, url, nil)
		params, err := ParseCursor(req)
		require.NoError(t, err)
		assert.Equal(t, expected, params.Limit, url)
	}
}

func TestParseCursorInvalid(t *testing.T) {
	tests := []struct {
		name string
		url  string
	}{
		{name: "non-numeric after", url: "/api/v0/events?after=abc"},
		{name: "negative after", url: "/api/v0/events?after=-1"},
		{name: "non-numeric limit", url: "/api/v0/events?limit=abc"},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, test.url, nil)
			params, err := ParseCursor(req)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidPaginationParameters))
			assert.Equal(t, CursorParams{}, params)
		})
	}
}

func TestSetCursorHeaders(t *testing.T) {
	recorder := httptest.NewRecorder()
	SetCursorHeaders(recorder, 42, 10, CursorParams{Limit: 10})
	assert.Equal(t, "10", recorder.Header().Get("X-Cursor-Count"))
	assert.Equal(t, "42", recorder.Header().Get("X-Cursor-Next"))
	assert.Equal(t, "true", recorder.Header().Get("X-Cursor-More"))

	recorder = httptest.NewRecorder()
	SetCursorHeaders(recorder, 0, 0, CursorParams{Limit: 10})
	assert.Equal(t, "0", recorder.Header().Get("X-Cursor-Count"))
	assert.Empty(t, recorder.Header().Get("X-Cursor-Next"))
	assert.Empty(t, recorder.Header().Get("X-Cursor-More"))
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/datalabel/pkg/types"
)

type payload struct {
	Name string `json:"name"`
}

func TestDecodeJSON(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name": "x"}`))
	var p payload
	require.NoError(t, DecodeJSON(httptest.NewRecorder(), req, &p, 0))
	assert.Equal(t, "x", p.Name)
}

func TestDecodeJSONErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		limit   int64
		wantMsg string
	}{
		{"empty", "", 0, "empty"},
		{"malformed", `{"name":`, 0, "decoding request body"},
		{"trailing", `{"name": "x"} {"name": "y"}`, 0, "trailing data"},
		{"too large", `{"name": "` + strings.Repeat("a", 64) + `"}`, 16, "exceeds 16 bytes"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			var p payload
			err := DecodeJSON(httptest.NewRecorder(), req, &p, tt.limit)
			require.Error(t, err)
			assert.True(t, types.IsDataError(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestWriteError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, http.StatusBadRequest, "bad <input>")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "bad <input>", body.Error)
	assert.Contains(t, rec.Body.String(), "<input>")
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(types.DataError("x")))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(types.PreconditionError("x")))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("x")))
}

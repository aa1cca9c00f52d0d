// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides JSON request and response helpers for the HTTP
// surface.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/pdiddy/datalabel/pkg/types"
)

// DefaultMaxBodyBytes caps request bodies when no limit is configured.
const DefaultMaxBodyBytes int64 = 32 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error string `json:"error"`
}

// DecodeJSON reads a JSON request body into v. Bodies larger than limit
// (DefaultMaxBodyBytes when limit <= 0), malformed JSON, and trailing data
// are data errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v any, limit int64) error {
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return types.DataError("request body exceeds %d bytes", limit)
		case errors.Is(err, io.EOF):
			return types.DataError("request body is empty")
		default:
			return types.DataError("decoding request body: %v", err)
		}
	}
	if dec.More() {
		return types.DataError("request body has trailing data")
	}
	return nil
}

// WriteJSON writes v as JSON with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	// The status line is already sent; an encoding failure here can only
	// truncate the body.
	_ = enc.Encode(v)
}

// WriteError writes {"error": msg} with the given status.
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// StatusFor maps an error to an HTTP status: data errors are 400,
// precondition failures 422, anything else 500.
func StatusFor(err error) int {
	switch {
	case types.IsDataError(err):
		return http.StatusBadRequest
	case types.IsPreconditionError(err):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

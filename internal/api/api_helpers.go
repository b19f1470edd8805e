package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

// --- Query Parameters ---

// ParseFloatQuery parses a required float query parameter.
func ParseFloatQuery(r *http.Request, key string) (float64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, fmt.Errorf("%s: required query parameter", key)
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: must be a number", key)
	}
	return f, nil
}

// ParseLimitQuery parses an optional positive limit query parameter.
// Returns defaultVal when the parameter is not present.
func ParseLimitQuery(r *http.Request, defaultVal int) (int, error) {
	v := r.URL.Query().Get("limit")
	if v == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("limit: must be a positive integer")
	}
	return n, nil
}

// --- Body Decoding ---

// DecodeBody decodes the JSON request body into v, rejecting unknown fields.
func DecodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is required")
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return fmt.Errorf("invalid request body: must contain a single JSON value")
	}
	return nil
}

// --- Error writing ---

func writeInvalidArgument(w http.ResponseWriter, message string) {
	WriteError(w, http.StatusBadRequest, "INVALID_ARGUMENT", message)
}

// writeBundleError maps orchestrator errors to HTTP response codes.
func writeBundleError(w http.ResponseWriter, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		WriteError(w, http.StatusGatewayTimeout, "REFRESH_TIMEOUT", "refresh did not complete in time")
		return
	}
	WriteError(w, http.StatusServiceUnavailable, "NO_DATA", "no data from any domain and cache is empty")
}

package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"chaingate.org/internal/operation"
)

// OAuth-style error codes used across the API surface.
const (
	errInvalidRequest     = "invalid_request"
	errInvalidGrant       = "invalid_grant"
	errInvalidScope       = "invalid_scope"
	errUnauthorizedClient = "unauthorized_client"
	errServerError        = "server_error"
	errUnavailable        = "temporarily_unavailable"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError emits the OAuth error body every endpoint uses.
func writeError(w http.ResponseWriter, r *http.Request, status int, code, description string) {
	payload := map[string]any{
		"error":             code,
		"error_description": description,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, status, payload)
}

// writeFieldErrors reports validation diagnostics for one operation.
func writeFieldErrors(w http.ResponseWriter, r *http.Request, opType string, fields []operation.FieldError) {
	payload := map[string]any{
		"error":             errInvalidRequest,
		"error_description": "operation " + opType + " failed validation",
		"operation":         opType,
		"fields":            fields,
	}
	if rid := RequestIDFromContext(r.Context()); rid != "" {
		payload["request_id"] = rid
	}
	writeJSON(w, http.StatusBadRequest, payload)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	reader := http.MaxBytesReader(w, r.Body, 1<<20)
	defer reader.Close()
	dec := json.NewDecoder(reader)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body is required")
		}
		return err
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		if err == nil {
			return errors.New("unexpected data after JSON body")
		}
		return err
	}
	return nil
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	writeError(w, r, http.StatusMethodNotAllowed, errInvalidRequest, "method not allowed")
}

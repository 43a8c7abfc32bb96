// Copyright (c) 2025-2026 Yuno Lab
// SPDX-License-Identifier: MIT

package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gravitational/trace"
)

// writeJSON writes a JSON success response.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error envelope.
func writeJSONError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]any{
		"statusCode": statusCode,
		"message":    message,
	})
}

// writeError maps an error to its HTTP status. User-facing rejections
// keep their message; everything else is reported as a generic 500 so
// internals never leak to clients.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case trace.IsBadParameter(err):
		writeJSONError(w, http.StatusBadRequest, trace.UserMessage(err))
	case trace.IsAccessDenied(err):
		writeJSONError(w, http.StatusUnauthorized, trace.UserMessage(err))
	case trace.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, trace.UserMessage(err))
	default:
		writeJSONError(w, http.StatusInternalServerError, "Internal Server Error")
	}
}

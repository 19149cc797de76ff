// Package httputil writes the JSON envelopes every relief endpoint answers with.
package httputil

import (
	"encoding/json"
	"net/http"

	dErrors "relief/pkg/domain-errors"
)

// ErrorResponse is the failure envelope.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// WriteJSON encodes v with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to its status and writes the failure envelope.
// Internal errors never leak their text.
func WriteError(w http.ResponseWriter, err error) {
	WriteJSON(w, dErrors.Status(err), ErrorResponse{
		Success: false,
		Message: dErrors.PublicMessage(err),
	})
}

// WriteMessage writes a failure envelope with an explicit status and message.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	WriteJSON(w, status, ErrorResponse{Success: false, Message: message})
}

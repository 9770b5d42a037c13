package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// ErrorResponse is the body of every non-2xx response. Detail is optional
// context for the client; Error is the short machine-checkable message.
type ErrorResponse struct {
	Error  string `json:"error"`
	Detail string `json:"message,omitempty"`
}

// writeJSON encodes data as the response body. The status line is already on
// the wire when encoding runs, so an encode failure can only be logged.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg, detail string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Detail: detail})
}

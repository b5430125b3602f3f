package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// writeJSON writes v with status. Entries change under the same URL, so
// responses are never cached without revalidation.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("registry: json encode failed", slog.String("error", err.Error()))
	}
}

// errResponse is the body of every failed registry request.
type errResponse struct {
	Error string `json:"error"`
	Key   string `json:"key,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Error: msg}
}

func keyErrorBody(msg, key string) errResponse {
	return errResponse{Error: msg, Key: key}
}

package telemetry

import (
	"encoding/json"
	"net/http"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error      string   `json:"error"`
	Violations []string `json:"violations,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorBody{Error: message})
}

package gateway

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

func respondJSON(log *slog.Logger, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Error("Failed to encode response", "error", err)
	}
}

func respondError(log *slog.Logger, w http.ResponseWriter, status int, message string) {
	respondJSON(log, w, status, wireError{Error: message})
}

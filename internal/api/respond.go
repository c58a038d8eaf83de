// Package api exposes the HTTP surface: readings ingestion, history
// and analytics queries, import/export, alerts and the forecast
// integration, routed with chi.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/canalwise/irrigation-platform/internal/apperror"
)

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// writeError maps application errors onto their status codes; anything
// unrecognized is an internal error and gets logged with its cause.
func writeError(w http.ResponseWriter, logger *slog.Logger, err error) {
	status := apperror.StatusOf(err)
	message := err.Error()

	if status == http.StatusInternalServerError {
		logger.Error("Request failed", slog.String("error", err.Error()))
		message = "Internal server error"
	}

	writeJSON(w, status, map[string]string{"error": message})
}

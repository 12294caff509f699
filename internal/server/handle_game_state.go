package server

import (
	"log/slog"
	"net/http"
)

func handleGameState(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := gameFrom(r).View(r.Context())
		if err != nil {
			writeSessionError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

// handleHistory returns the full ordered event log.
func handleHistory(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		events, err := gameFrom(r).Events(r.Context())
		if err != nil {
			writeSessionError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusOK, events)
	}
}

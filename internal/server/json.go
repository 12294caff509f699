package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/playperu/monsterrace/internal/game"
	"github.com/playperu/monsterrace/internal/session"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}

// writeSessionError maps an error returned by an actor to a response.
// Rejections are expected and are not logged.
func writeSessionError(w http.ResponseWriter, logger *slog.Logger, err error) {
	var rej *game.Rejection
	switch {
	case errors.As(err, &rej):
		writeJSON(w, http.StatusConflict, ErrorResponse{Error: rej.Message, Code: rej.Code})
	case errors.Is(err, session.ErrGameNotFound):
		writeError(w, http.StatusNotFound, "game not found")
	case errors.Is(err, session.ErrClosed), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusServiceUnavailable, "game unavailable, try again")
	default:
		logger.Error("session failure", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

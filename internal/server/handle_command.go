package server

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/playperu/monsterrace/internal/game"
)

type CommandRequest struct {
	Name  game.CommandName `json:"name"`
	Input json.RawMessage  `json:"input,omitempty"`
}

// handleCommand runs one command for the bearer. Success has no body: the
// resulting events reach clients through their sockets.
func handleCommand(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		issuer, err := sessionFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid or missing session token")
			return
		}

		var req CommandRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		cmd, err := game.DecodeCommand(req.Name, req.Input)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		if err := gameFrom(r).Execute(r.Context(), issuer, cmd); err != nil {
			writeSessionError(w, logger, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

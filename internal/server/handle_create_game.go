package server

import (
	"log/slog"
	"net/http"

	"github.com/playperu/monsterrace/internal/game"
	"github.com/playperu/monsterrace/internal/payout"
	"github.com/playperu/monsterrace/internal/session"
)

type CreateGameRequest struct {
	Payout   payout.Model `json:"payout"`
	HandSize int          `json:"handSize"`
}

type CreateGameResponse struct {
	Code string `json:"code"`
}

type SessionResponse struct {
	SessionID game.SessionID `json:"sessionId"`
}

func handleCreateGame(logger *slog.Logger, games *session.Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateGameRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if req.Payout == "" {
			req.Payout = payout.ModelOdds
		}

		settings := game.Settings{Payout: req.Payout, HandSize: req.HandSize}
		if !settings.Valid() {
			writeError(w, http.StatusBadRequest, "payout must be odds or pool and handSize 0 or 3")
			return
		}

		actor, err := games.Create(r.Context(), settings)
		if err != nil {
			writeSessionError(w, logger, err)
			return
		}
		writeJSON(w, http.StatusCreated, CreateGameResponse{Code: actor.Code()})
	}
}

package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/playperu/monsterrace/internal/game"
)

var errNoSession = errors.New("no valid session")

// sessionFromRequest reads the caller's identity from the Authorization
// header. The system identity is never accepted from a client.
func sessionFromRequest(r *http.Request) (game.SessionID, error) {
	auth := r.Header.Get("Authorization")
	token, found := strings.CutPrefix(auth, "Bearer ")
	if !found || token == "" {
		return uuid.Nil, errNoSession
	}
	id, err := uuid.Parse(token)
	if err != nil || id == game.SystemID {
		return uuid.Nil, errNoSession
	}
	return id, nil
}

func handleNewSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, SessionResponse{SessionID: uuid.New()})
	}
}

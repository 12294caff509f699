package server

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/playperu/monsterrace/internal/session"
)

type ctxKey int

const ctxKeyGame ctxKey = iota

// gameMiddleware resolves {code} to a live actor.
func gameMiddleware(logger *slog.Logger, games *session.Registry) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			code := chi.URLParam(r, "code")
			if code == "" {
				writeError(w, http.StatusNotFound, "game not found")
				return
			}

			actor, err := games.Get(r.Context(), code)
			if err != nil {
				writeSessionError(w, logger, err)
				return
			}

			ctx := context.WithValue(r.Context(), ctxKeyGame, actor)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func gameFrom(r *http.Request) *session.Actor {
	return r.Context().Value(ctxKeyGame).(*session.Actor)
}

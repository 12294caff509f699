package server

import (
	"log/slog"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/playperu/monsterrace/internal/session"
)

func addRoutes(r chi.Router, logger *slog.Logger, games *session.Registry, opts Options) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Monster Race API", "/openapi.json", "/docs"))

	if opts.Mount != nil {
		opts.Mount(r)
	}

	r.Post("/api/sessions", handleNewSession())
	r.Post("/api/games", handleCreateGame(logger, games))

	r.Route("/api/games/{code}", func(r chi.Router) {
		r.Use(gameMiddleware(logger, games))
		r.Get("/", handleGameState(logger))
		r.Get("/events", handleHistory(logger))
		r.Post("/commands", handleCommand(logger))
		r.Get("/ws", handleSocket(logger, opts.AllowedOrigins))
		r.Get("/stream", handleStream(logger))
	})

	if opts.SPADir != "" {
		if info, err := os.Stat(opts.SPADir); err == nil && info.IsDir() {
			logger.Info("serving SPA", "dir", opts.SPADir)
			r.NotFound(handleSPA(opts.SPADir))
		}
	}
}

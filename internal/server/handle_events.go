package server

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/playperu/monsterrace/internal/session"
)

// handleStream is the Server-Sent Events variant of the game socket: the
// first message is the full history, later ones are committed batches.
func handleStream(logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			writeError(w, http.StatusInternalServerError, "streaming not supported")
			return
		}

		actor := gameFrom(r)
		sock := session.NewSocket()
		if err := actor.Connect(r.Context(), sock); err != nil {
			writeSessionError(w, logger, err)
			return
		}
		defer actor.Disconnect(sock)

		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		flusher.Flush()

		ping := time.NewTicker(30 * time.Second)
		defer ping.Stop()

		for {
			select {
			case <-r.Context().Done():
				return
			case <-sock.Done():
				logger.Debug("stream closed by game", "game", actor.Code())
				return
			case frame := <-sock.C():
				fmt.Fprintf(w, "event: events\ndata: %s\n\n", frame)
				flusher.Flush()
			case <-ping.C:
				fmt.Fprintf(w, ": ping\n\n")
				flusher.Flush()
			}
		}
	}
}

package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"

	"github.com/playperu/monsterrace/internal/session"
)

const writeTimeout = 5 * time.Second

// handleSocket attaches a websocket to the game. Every message is a JSON
// array of events; the first one holds the full history. Incoming messages
// are ignored: commands go through the HTTP API.
func handleSocket(logger *slog.Logger, origins []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			OriginPatterns:     origins,
			InsecureSkipVerify: len(origins) == 0,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		actor := gameFrom(r)
		sock := session.NewSocket()
		if err := actor.Connect(r.Context(), sock); err != nil {
			logger.Error("attaching socket failed", "game", actor.Code(), "error", err)
			conn.Close(websocket.StatusInternalError, "could not attach to game")
			return
		}
		defer actor.Disconnect(sock)

		ctx := conn.CloseRead(r.Context())
		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket closed", "game", actor.Code())
				return
			case <-sock.Done():
				conn.Close(websocket.StatusTryAgainLater, "fell behind, reconnect")
				return
			case frame := <-sock.C():
				if err := write(ctx, conn, frame); err != nil {
					logger.Debug("websocket write failed", "game", actor.Code(), "error", err)
					return
				}
			}
		}
	}
}

func write(ctx context.Context, conn *websocket.Conn, frame []byte) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, frame)
}

package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nhooyr.io/websocket"

	"github.com/playperu/monsterrace/internal/game"
)

func readFrame(ctx context.Context, t *testing.T, conn *websocket.Conn) []game.Event {
	t.Helper()
	_, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var events []game.Event
	if err := json.Unmarshal(data, &events); err != nil {
		t.Fatalf("decode frame: %v", err)
	}
	return events
}

func TestHandleSocket(t *testing.T) {
	r := newTestRouter(t)
	code := createGame(t, r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/api/games/" + code + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.CloseNow()

	history := readFrame(ctx, t, conn)
	if len(history) != 1 || history[0].Type() != game.EventGameCreated {
		t.Fatalf("history = %+v", history)
	}

	tok := newSession(t, r)
	if rec := command(t, r, code, tok, game.CommandJoinGame, game.JoinGame{Name: "Ann"}); rec.Code != http.StatusNoContent {
		t.Fatalf("join: expected 204, got %d", rec.Code)
	}

	live := readFrame(ctx, t, conn)
	if len(live) != 1 || live[0].Seq != 2 || live[0].Type() != game.EventPlayerJoined {
		t.Fatalf("live = %+v", live)
	}

	conn.Close(websocket.StatusNormalClosure, "done")
}

func TestHandleSocketUnknownGame(t *testing.T) {
	r := newTestRouter(t)
	srv := httptest.NewServer(r)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	wsURL := "ws" + srv.URL[len("http"):] + "/api/games/QQQQQQ/ws"
	_, resp, err := websocket.Dial(ctx, wsURL, nil)
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 response, got %+v", resp)
	}
}

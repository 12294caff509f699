package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/monsterrace/internal/game"
)

// ErrorResponse is returned for all error responses. Code is set for
// rejected commands.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// HealthResponse maps each checked dependency to its status.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

// EventDoc documents the wire form of one event.
type EventDoc struct {
	Seq  int             `json:"seq"`
	Type game.EventType  `json:"type"`
	Data json.RawMessage `json:"data"`
}

type gamePath struct {
	Code string `path:"code" description:"Join code of the game" pattern:"^[A-Z]{6}$"`
}

type commandInput struct {
	gamePath
	CommandRequest
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Monster Race API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Host API for monster race game sessions.")

	// GET /healthz
	getHealthz, _ := r.NewOperationContext(http.MethodGet, "/healthz")
	getHealthz.SetSummary("Health check")
	getHealthz.SetDescription("Returns the health status of the storage backend.")
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	getHealthz.AddRespStructure(HealthResponse{}, openapi.WithHTTPStatus(http.StatusServiceUnavailable))
	_ = r.AddOperation(getHealthz)

	// POST /api/sessions
	postSession, _ := r.NewOperationContext(http.MethodPost, "/api/sessions")
	postSession.SetSummary("New session")
	postSession.SetDescription("Issues an opaque session identity to use as Bearer token.")
	postSession.AddRespStructure(SessionResponse{}, openapi.WithHTTPStatus(http.StatusOK))
	_ = r.AddOperation(postSession)

	// POST /api/games
	postGame, _ := r.NewOperationContext(http.MethodPost, "/api/games")
	postGame.SetSummary("Create game")
	postGame.SetDescription("Creates a game with fixed settings and returns its join code.")
	postGame.AddReqStructure(CreateGameRequest{})
	postGame.AddRespStructure(CreateGameResponse{}, openapi.WithHTTPStatus(http.StatusCreated))
	postGame.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	_ = r.AddOperation(postGame)

	// GET /api/games/{code}
	getState, _ := r.NewOperationContext(http.MethodGet, "/api/games/{code}")
	getState.AddReqStructure(gamePath{})
	getState.SetSummary("Game state")
	getState.SetDescription("Returns every projection of the game: roster, accounts, hands, bets, monsters, odds and results.")
	getState.AddRespStructure(game.View{}, openapi.WithHTTPStatus(http.StatusOK))
	getState.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getState)

	// GET /api/games/{code}/events
	getEvents, _ := r.NewOperationContext(http.MethodGet, "/api/games/{code}/events")
	getEvents.AddReqStructure(gamePath{})
	getEvents.SetSummary("Event history")
	getEvents.SetDescription("Returns the full ordered event log.")
	getEvents.AddRespStructure([]EventDoc{}, openapi.WithHTTPStatus(http.StatusOK))
	getEvents.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	_ = r.AddOperation(getEvents)

	// POST /api/games/{code}/commands
	postCommand, _ := r.NewOperationContext(http.MethodPost, "/api/games/{code}/commands")
	postCommand.SetSummary("Run command")
	postCommand.SetDescription("Runs a command as the Bearer session. Resulting events are delivered over the game sockets.")
	postCommand.AddReqStructure(commandInput{})
	postCommand.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusNoContent))
	postCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusBadRequest))
	postCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusUnauthorized))
	postCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusNotFound))
	postCommand.AddRespStructure(ErrorResponse{}, openapi.WithHTTPStatus(http.StatusConflict))
	_ = r.AddOperation(postCommand)

	// GET /api/games/{code}/ws
	getWS, _ := r.NewOperationContext(http.MethodGet, "/api/games/{code}/ws")
	getWS.AddReqStructure(gamePath{})
	getWS.SetSummary("Game socket")
	getWS.SetDescription("Upgrades to a WebSocket. The first message is the full history, then one message per committed batch.")
	getWS.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusSwitchingProtocols),
		openapi.WithContentType("text/plain"))
	_ = r.AddOperation(getWS)

	// GET /api/games/{code}/stream
	getStream, _ := r.NewOperationContext(http.MethodGet, "/api/games/{code}/stream")
	getStream.AddReqStructure(gamePath{})
	getStream.SetSummary("Game event stream")
	getStream.SetDescription("Server-Sent Events variant of the game socket.")
	getStream.AddRespStructure(nil, openapi.WithHTTPStatus(http.StatusOK),
		openapi.WithContentType("text/event-stream"))
	_ = r.AddOperation(getStream)

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/playperu/monsterrace/internal/race"
)

// EventType names an event variant on the wire.
type EventType string

const (
	EventGameCreated    EventType = "GameCreated"
	EventPlayerJoined   EventType = "PlayerJoined"
	EventChangedProfile EventType = "ChangedProfile"
	EventPlayerReady    EventType = "PlayerReady"
	EventRoundStarted   EventType = "RoundStarted"
	EventPlacedBet      EventType = "PlacedBet"
	EventBoughtCard     EventType = "BoughtCard"
	EventPlayedCard     EventType = "PlayedCard"
	EventBorrowedMoney  EventType = "BorrowedMoney"
	EventPaidBackMoney  EventType = "PaidBackMoney"
	EventRaceStarted    EventType = "RaceStarted"
	EventRaceFinished   EventType = "RaceFinished"
	EventGameFinished   EventType = "GameFinished"
)

// Payload is the body of an event. The set of payloads is closed: only types
// in this package implement it.
type Payload interface {
	EventType() EventType
	sealed()
}

// Event is one fact in a game's log. Seq is the 1-based position in the log
// and is the only ordering key.
type Event struct {
	Seq     int
	Payload Payload
}

// Type returns the variant name of the payload.
func (e Event) Type() EventType {
	if e.Payload == nil {
		return ""
	}
	return e.Payload.EventType()
}

type GameCreated struct {
	Code     string   `json:"code"`
	Settings Settings `json:"settings"`
}

type PlayerJoined struct {
	SessionID   SessionID `json:"sessionId"`
	Name        string    `json:"name"`
	InitialHand []Card    `json:"initialHand"`
}

type ChangedProfile struct {
	SessionID SessionID `json:"sessionId"`
	Name      string    `json:"name"`
}

type PlayerReady struct {
	SessionID SessionID `json:"sessionId"`
}

type RoundStarted struct {
	Time  time.Time   `json:"time"`
	Round int         `json:"round"`
	Odds  []race.Odds `json:"odds"`
}

type PlacedBet struct {
	SessionID SessionID `json:"sessionId"`
	MonsterID int       `json:"monsterId"`
	Amount    int       `json:"amount"`
}

type BoughtCard struct {
	SessionID SessionID `json:"sessionId"`
	Card      Card      `json:"card"`
}

// Target is what a card was played on: a monster, or a player.
type Target struct {
	MonsterID int       `json:"monsterId,omitempty"`
	SessionID SessionID `json:"sessionId"`
}

type PlayedCard struct {
	SessionID SessionID `json:"sessionId"`
	Card      Card      `json:"card"`
	Target    Target    `json:"target"`
}

type BorrowedMoney struct {
	SessionID SessionID `json:"sessionId"`
	Amount    int       `json:"amount"`
}

type PaidBackMoney struct {
	SessionID SessionID `json:"sessionId"`
	Amount    int       `json:"amount"`
}

type RaceStarted struct {
	Time time.Time `json:"time"`
}

type RaceFinished struct {
	Time    time.Time   `json:"time"`
	Results race.Result `json:"results"`
}

type GameFinished struct {
	Time  time.Time `json:"time"`
	Early bool      `json:"early,omitempty"`
}

func (GameCreated) EventType() EventType    { return EventGameCreated }
func (PlayerJoined) EventType() EventType   { return EventPlayerJoined }
func (ChangedProfile) EventType() EventType { return EventChangedProfile }
func (PlayerReady) EventType() EventType    { return EventPlayerReady }
func (RoundStarted) EventType() EventType   { return EventRoundStarted }
func (PlacedBet) EventType() EventType      { return EventPlacedBet }
func (BoughtCard) EventType() EventType     { return EventBoughtCard }
func (PlayedCard) EventType() EventType     { return EventPlayedCard }
func (BorrowedMoney) EventType() EventType  { return EventBorrowedMoney }
func (PaidBackMoney) EventType() EventType  { return EventPaidBackMoney }
func (RaceStarted) EventType() EventType    { return EventRaceStarted }
func (RaceFinished) EventType() EventType   { return EventRaceFinished }
func (GameFinished) EventType() EventType   { return EventGameFinished }

func (GameCreated) sealed()    {}
func (PlayerJoined) sealed()   {}
func (ChangedProfile) sealed() {}
func (PlayerReady) sealed()    {}
func (RoundStarted) sealed()   {}
func (PlacedBet) sealed()      {}
func (BoughtCard) sealed()     {}
func (PlayedCard) sealed()     {}
func (BorrowedMoney) sealed()  {}
func (PaidBackMoney) sealed()  {}
func (RaceStarted) sealed()    {}
func (RaceFinished) sealed()   {}
func (GameFinished) sealed()   {}

type eventEnvelope struct {
	Seq  int             `json:"seq"`
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// MarshalJSON encodes the event as {"seq", "type", "data"}.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Payload == nil {
		return nil, fmt.Errorf("event %d has no payload", e.Seq)
	}
	data, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s: %w", e.Type(), err)
	}
	return json.Marshal(eventEnvelope{Seq: e.Seq, Type: e.Type(), Data: data})
}

// UnmarshalJSON decodes an envelope produced by MarshalJSON.
func (e *Event) UnmarshalJSON(b []byte) error {
	var env eventEnvelope
	if err := json.Unmarshal(b, &env); err != nil {
		return err
	}
	p, err := decodePayload(env.Type, env.Data)
	if err != nil {
		return err
	}
	e.Seq = env.Seq
	e.Payload = p
	return nil
}

func decodePayload(t EventType, data json.RawMessage) (Payload, error) {
	switch t {
	case EventGameCreated:
		return decodeAs[GameCreated](t, data)
	case EventPlayerJoined:
		return decodeAs[PlayerJoined](t, data)
	case EventChangedProfile:
		return decodeAs[ChangedProfile](t, data)
	case EventPlayerReady:
		return decodeAs[PlayerReady](t, data)
	case EventRoundStarted:
		return decodeAs[RoundStarted](t, data)
	case EventPlacedBet:
		return decodeAs[PlacedBet](t, data)
	case EventBoughtCard:
		return decodeAs[BoughtCard](t, data)
	case EventPlayedCard:
		return decodeAs[PlayedCard](t, data)
	case EventBorrowedMoney:
		return decodeAs[BorrowedMoney](t, data)
	case EventPaidBackMoney:
		return decodeAs[PaidBackMoney](t, data)
	case EventRaceStarted:
		return decodeAs[RaceStarted](t, data)
	case EventRaceFinished:
		return decodeAs[RaceFinished](t, data)
	case EventGameFinished:
		return decodeAs[GameFinished](t, data)
	default:
		return nil, fmt.Errorf("unknown event type %q", t)
	}
}

type payloadType interface {
	Payload
	GameCreated | PlayerJoined | ChangedProfile | PlayerReady | RoundStarted |
		PlacedBet | BoughtCard | PlayedCard | BorrowedMoney | PaidBackMoney |
		RaceStarted | RaceFinished | GameFinished
}

func decodeAs[T payloadType](t EventType, data json.RawMessage) (Payload, error) {
	var p T
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("decoding %s: %w", t, err)
	}
	return p, nil
}

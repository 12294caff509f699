package game

import (
	"encoding/json"
	"fmt"
)

// CommandName names a command on the wire.
type CommandName string

const (
	CommandCreateGame    CommandName = "create_game"
	CommandJoinGame      CommandName = "join_game"
	CommandChangeProfile CommandName = "change_profile"
	CommandReadyPlayer   CommandName = "ready_player"
	CommandPlaceBets     CommandName = "place_bets"
	CommandBuyCard       CommandName = "buy_card"
	CommandPlayCard      CommandName = "play_card"
	CommandBorrowMoney   CommandName = "borrow_money"

	CommandStartRound CommandName = "start_round"
	CommandStartRace  CommandName = "start_race"
	CommandFinishRace CommandName = "finish_race"
	CommandFinishGame CommandName = "finish_game"
)

// Command is an intent together with its input. Like Payload, the set of
// inputs is closed.
type Command interface {
	Kind() CommandName
	command()
}

type CreateGame struct {
	Code     string   `json:"code"`
	Settings Settings `json:"settings"`
}

type JoinGame struct {
	Name string `json:"name"`
}

type ChangeProfile struct {
	Name string `json:"name"`
}

type ReadyPlayer struct{}

// BetEntry is one stake inside PlaceBets.
type BetEntry struct {
	MonsterID int `json:"monsterId"`
	Amount    int `json:"amount"`
}

type PlaceBets struct {
	Bets []BetEntry `json:"bets"`
}

type BuyCard struct{}

type PlayCard struct {
	Card   Card   `json:"card"`
	Target Target `json:"target"`
}

// BorrowMoney borrows when Amount is positive and pays back when negative.
type BorrowMoney struct {
	Amount int `json:"amount"`
}

type StartRound struct{}

type StartRace struct{}

type FinishRace struct{}

type FinishGame struct{}

func (CreateGame) Kind() CommandName    { return CommandCreateGame }
func (JoinGame) Kind() CommandName      { return CommandJoinGame }
func (ChangeProfile) Kind() CommandName { return CommandChangeProfile }
func (ReadyPlayer) Kind() CommandName   { return CommandReadyPlayer }
func (PlaceBets) Kind() CommandName     { return CommandPlaceBets }
func (BuyCard) Kind() CommandName       { return CommandBuyCard }
func (PlayCard) Kind() CommandName      { return CommandPlayCard }
func (BorrowMoney) Kind() CommandName   { return CommandBorrowMoney }
func (StartRound) Kind() CommandName    { return CommandStartRound }
func (StartRace) Kind() CommandName     { return CommandStartRace }
func (FinishRace) Kind() CommandName    { return CommandFinishRace }
func (FinishGame) Kind() CommandName    { return CommandFinishGame }

func (CreateGame) command()    {}
func (JoinGame) command()      {}
func (ChangeProfile) command() {}
func (ReadyPlayer) command()   {}
func (PlaceBets) command()     {}
func (BuyCard) command()       {}
func (PlayCard) command()      {}
func (BorrowMoney) command()   {}
func (StartRound) command()    {}
func (StartRace) command()     {}
func (FinishRace) command()    {}
func (FinishGame) command()    {}

// DecodeCommand builds a command from its wire name and JSON input. An empty
// input is accepted for commands without fields.
func DecodeCommand(name CommandName, input json.RawMessage) (Command, error) {
	switch name {
	case CommandCreateGame:
		return decodeInput[CreateGame](name, input)
	case CommandJoinGame:
		return decodeInput[JoinGame](name, input)
	case CommandChangeProfile:
		return decodeInput[ChangeProfile](name, input)
	case CommandReadyPlayer:
		return decodeInput[ReadyPlayer](name, input)
	case CommandPlaceBets:
		return decodeInput[PlaceBets](name, input)
	case CommandBuyCard:
		return decodeInput[BuyCard](name, input)
	case CommandPlayCard:
		return decodeInput[PlayCard](name, input)
	case CommandBorrowMoney:
		return decodeInput[BorrowMoney](name, input)
	case CommandStartRound:
		return decodeInput[StartRound](name, input)
	case CommandStartRace:
		return decodeInput[StartRace](name, input)
	case CommandFinishRace:
		return decodeInput[FinishRace](name, input)
	case CommandFinishGame:
		return decodeInput[FinishGame](name, input)
	default:
		return nil, fmt.Errorf("unknown command %q", name)
	}
}

type commandType interface {
	Command
	CreateGame | JoinGame | ChangeProfile | ReadyPlayer | PlaceBets | BuyCard |
		PlayCard | BorrowMoney | StartRound | StartRace | FinishRace | FinishGame
}

func decodeInput[T commandType](name CommandName, input json.RawMessage) (Command, error) {
	var c T
	if len(input) == 0 || string(input) == "null" {
		return c, nil
	}
	if err := json.Unmarshal(input, &c); err != nil {
		return nil, fmt.Errorf("decoding %s input: %w", name, err)
	}
	return c, nil
}

// Rejection is a precondition failure. It is an expected outcome, not a
// fault: nothing is appended and the message is shown to the caller.
type Rejection struct {
	Code    string `json:"code"`
	Message string `json:"error"`
}

func (r *Rejection) Error() string {
	return r.Message
}

func reject(code, format string, args ...any) (Decision, error) {
	return Decision{}, &Rejection{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Effect inspects the log after the decision's events were committed and may
// ask for a follow-up system command.
type Effect func(events []Event) (Command, bool)

// Decision is the accepted outcome of a command. Events may be empty for
// idempotent no-ops.
type Decision struct {
	Events []Payload
	Effect Effect
}

func accept(events ...Payload) (Decision, error) {
	return Decision{Events: events}, nil
}

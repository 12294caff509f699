package game

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/playperu/monsterrace/internal/race"
)

// Rejection codes.
const (
	CodeGameExists       = "GAME_EXISTS"
	CodeGameNotCreated   = "GAME_NOT_CREATED"
	CodeInvalidSettings  = "INVALID_SETTINGS"
	CodeInvalidName      = "INVALID_NAME"
	CodeWrongPhase       = "WRONG_PHASE"
	CodeGameFull         = "GAME_FULL"
	CodeNotInGame        = "NOT_IN_GAME"
	CodeNoBets           = "NO_BETS"
	CodeNegativeBet      = "NEGATIVE_BET"
	CodeUnknownMonster   = "UNKNOWN_MONSTER"
	CodeInsufficientFund = "INSUFFICIENT_FUNDS"
	CodeHandFull         = "HAND_FULL"
	CodeCardNotInHand    = "CARD_NOT_IN_HAND"
	CodeUnknownCard      = "UNKNOWN_CARD"
	CodePlayLimit        = "PLAY_LIMIT"
	CodeInvalidTarget    = "INVALID_TARGET"
	CodeInvalidAmount    = "INVALID_AMOUNT"
	CodeDebtCeiling      = "DEBT_CEILING"
	CodeOverpay          = "OVERPAY"
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeNotAllReady      = "NOT_ALL_READY"
	CodeNoRace           = "NO_RACE"
	CodeGameNotOver      = "GAME_NOT_OVER"
)

// Decide validates cmd, issued by issuer, against the current log and returns
// the events to append. Preconditions are checked only against events; the
// returned events are never consulted. A failed precondition is reported as
// a *Rejection.
func Decide(events []Event, issuer SessionID, cmd Command, now time.Time) (Decision, error) {
	if c, ok := cmd.(CreateGame); ok {
		return decideCreate(events, issuer, c)
	}
	gc, ok := Created(events)
	if !ok {
		return reject(CodeGameNotCreated, "game does not exist")
	}

	switch c := cmd.(type) {
	case JoinGame:
		return decideJoin(events, gc, issuer, c)
	case ChangeProfile:
		return decideChangeProfile(events, issuer, c)
	case ReadyPlayer:
		return decideReady(events, issuer)
	case PlaceBets:
		return decidePlaceBets(events, issuer, c)
	case BuyCard:
		return decideBuyCard(events, gc, issuer)
	case PlayCard:
		return decidePlayCard(events, issuer, c)
	case BorrowMoney:
		return decideBorrow(events, issuer, c)
	case StartRound:
		return decideStartRound(events, gc, issuer, now)
	case StartRace:
		return decideStartRace(issuer, now)
	case FinishRace:
		return decideFinishRace(events, issuer, now)
	case FinishGame:
		return decideFinishGame(events, issuer, now)
	default:
		return reject(CodeUnauthorized, "unsupported command %q", cmd.Kind())
	}
}

func decideCreate(events []Event, issuer SessionID, c CreateGame) (Decision, error) {
	if issuer != SystemID {
		return reject(CodeUnauthorized, "games are created by the host")
	}
	if len(events) > 0 {
		return reject(CodeGameExists, "game %s already exists", c.Code)
	}
	if strings.TrimSpace(c.Code) == "" || !c.Settings.Valid() {
		return reject(CodeInvalidSettings, "invalid game settings")
	}
	return accept(GameCreated{Code: c.Code, Settings: c.Settings})
}

func normalizeName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	return name, n > 0 && n <= MaxNameLength
}

func decideJoin(events []Event, gc GameCreated, issuer SessionID, c JoinGame) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); ok {
		return accept()
	}
	if issuer == SystemID {
		return reject(CodeUnauthorized, "the system cannot join a game")
	}
	if CurrentPhase(events) != PhaseLobby {
		return reject(CodeWrongPhase, "game already started")
	}
	if len(Roster(events)) >= MaxPlayers {
		return reject(CodeGameFull, "game is full")
	}
	name, ok := normalizeName(c.Name)
	if !ok {
		return reject(CodeInvalidName, "name must be 1 to %d characters", MaxNameLength)
	}
	hand := drawCards(race.Seed("hand", gc.Code, issuer, gc.Settings.Payout, gc.Settings.HandSize), gc.Settings.HandSize)
	return accept(PlayerJoined{SessionID: issuer, Name: name, InitialHand: hand})
}

func decideChangeProfile(events []Event, issuer SessionID, c ChangeProfile) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); !ok {
		return reject(CodeNotInGame, "you have not joined this game")
	}
	name, ok := normalizeName(c.Name)
	if !ok {
		return reject(CodeInvalidName, "name must be 1 to %d characters", MaxNameLength)
	}
	return accept(ChangedProfile{SessionID: issuer, Name: name})
}

func decideReady(events []Event, issuer SessionID) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); !ok {
		return reject(CodeNotInGame, "you have not joined this game")
	}
	if CurrentPhase(events) != PhaseLobby {
		return reject(CodeWrongPhase, "game already started")
	}
	return accept(PlayerReady{SessionID: issuer})
}

func decidePlaceBets(events []Event, issuer SessionID, c PlaceBets) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); !ok {
		return reject(CodeNotInGame, "you have not joined this game")
	}
	if CurrentPhase(events) != PhaseBetting {
		return reject(CodeWrongPhase, "bets are closed")
	}
	if len(c.Bets) == 0 {
		return reject(CodeNoBets, "no bets given")
	}

	running := map[int]bool{}
	for _, m := range Monsters(events) {
		running[m.ID] = true
	}
	total := 0
	for _, b := range c.Bets {
		if b.Amount < 0 {
			return reject(CodeNegativeBet, "bet amounts cannot be negative")
		}
		if !running[b.MonsterID] {
			return reject(CodeUnknownMonster, "monster %d is not racing this round", b.MonsterID)
		}
		total += b.Amount
	}
	if total > Balances(events)[issuer] {
		return reject(CodeInsufficientFund, "not enough money for these bets")
	}

	d := Decision{Effect: startRaceWhenAllBet}
	for _, b := range c.Bets {
		d.Events = append(d.Events, PlacedBet{SessionID: issuer, MonsterID: b.MonsterID, Amount: b.Amount})
	}
	return d, nil
}

func startRaceWhenAllBet(events []Event) (Command, bool) {
	if CurrentPhase(events) == PhaseBetting && AllBet(events) {
		return StartRace{}, true
	}
	return nil, false
}

func decideBuyCard(events []Event, gc GameCreated, issuer SessionID) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); !ok {
		return reject(CodeNotInGame, "you have not joined this game")
	}
	switch CurrentPhase(events) {
	case PhaseRacing, PhaseFinished:
		return reject(CodeWrongPhase, "the shop is closed")
	}
	if len(Hands(events)[issuer]) >= MaxHand {
		return reject(CodeHandFull, "your hand is full")
	}
	if Balances(events)[issuer] < CardPrice {
		return reject(CodeInsufficientFund, "a card costs %d", CardPrice)
	}
	round := RoundsStarted(events)
	seed := race.Seed("buy", gc.Code, round, issuer, purchasesThisRound(events, issuer))
	return accept(BoughtCard{SessionID: issuer, Card: drawCards(seed, 1)[0]})
}

func decidePlayCard(events []Event, issuer SessionID, c PlayCard) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); !ok {
		return reject(CodeNotInGame, "you have not joined this game")
	}
	if CurrentPhase(events) != PhaseBetting {
		return reject(CodeWrongPhase, "cards can only be played while betting")
	}
	if !c.Card.Valid() {
		return reject(CodeUnknownCard, "unknown card %q", c.Card)
	}
	if !holds(Hands(events)[issuer], c.Card) {
		return reject(CodeCardNotInHand, "you do not hold %s", c.Card)
	}
	if RemainingPlays(events, issuer) <= 0 {
		return reject(CodePlayLimit, "no card plays left this round")
	}

	var target Target
	switch c.Card.Target() {
	case TargetMonster:
		running := false
		for _, m := range Monsters(events) {
			if m.ID == c.Target.MonsterID {
				running = true
			}
		}
		if !running {
			return reject(CodeInvalidTarget, "monster %d is not racing this round", c.Target.MonsterID)
		}
		target = Target{MonsterID: c.Target.MonsterID}
	case TargetPlayer:
		if c.Target.SessionID == issuer {
			return reject(CodeInvalidTarget, "%s cannot target yourself", c.Card)
		}
		if _, ok := FindPlayer(events, c.Target.SessionID); !ok {
			return reject(CodeInvalidTarget, "target is not in this game")
		}
		target = Target{SessionID: c.Target.SessionID}
	case TargetSelf:
		target = Target{SessionID: issuer}
	}
	return accept(PlayedCard{SessionID: issuer, Card: c.Card, Target: target})
}

func decideBorrow(events []Event, issuer SessionID, c BorrowMoney) (Decision, error) {
	if _, ok := FindPlayer(events, issuer); !ok {
		return reject(CodeNotInGame, "you have not joined this game")
	}
	if CurrentPhase(events) == PhaseFinished {
		return reject(CodeWrongPhase, "game is over")
	}
	if c.Amount == 0 {
		return reject(CodeInvalidAmount, "amount must not be zero")
	}
	acc := Accounts(events)[issuer]
	if c.Amount > 0 {
		ceiling := DebtCeiling(RoundsCompleted(events))
		if acc.Debt+c.Amount > ceiling {
			return reject(CodeDebtCeiling, "you can owe at most %d", ceiling)
		}
		return accept(BorrowedMoney{SessionID: issuer, Amount: c.Amount})
	}

	pay := -c.Amount
	if pay > acc.Debt {
		return reject(CodeOverpay, "you only owe %d", acc.Debt)
	}
	if pay > acc.Balance {
		return reject(CodeInsufficientFund, "not enough money to pay back %d", pay)
	}
	return accept(PaidBackMoney{SessionID: issuer, Amount: pay})
}

func decideStartRound(events []Event, gc GameCreated, issuer SessionID, now time.Time) (Decision, error) {
	if issuer != SystemID {
		return reject(CodeUnauthorized, "only the system can start a round")
	}
	switch CurrentPhase(events) {
	case PhaseLobby, PhaseSummary:
	default:
		return reject(CodeWrongPhase, "a round is already running")
	}
	if !AllReady(events) {
		return reject(CodeNotAllReady, "not every player is ready")
	}
	round := RoundsStarted(events) + 1
	if round > MaxRounds {
		return reject(CodeWrongPhase, "all %d rounds have been played", MaxRounds)
	}
	odds := race.EstimateOdds(gc.Code, round, race.Roster(gc.Code, round), race.DefaultTrials)
	return accept(RoundStarted{Time: now, Round: round, Odds: odds})
}

func decideStartRace(issuer SessionID, now time.Time) (Decision, error) {
	if issuer != SystemID {
		return reject(CodeUnauthorized, "only the system can start a race")
	}
	return accept(RaceStarted{Time: now})
}

func decideFinishRace(events []Event, issuer SessionID, now time.Time) (Decision, error) {
	if issuer != SystemID {
		return reject(CodeUnauthorized, "only the system can finish a race")
	}
	if CurrentPhase(events) != PhaseRacing {
		return reject(CodeNoRace, "no race in progress")
	}
	r, ok := CurrentRace(events)
	if !ok {
		return reject(CodeNoRace, "no race in progress")
	}
	return accept(RaceFinished{Time: now, Results: r.Result()})
}

func decideFinishGame(events []Event, issuer SessionID, now time.Time) (Decision, error) {
	if issuer != SystemID {
		return reject(CodeUnauthorized, "only the system can finish a game")
	}
	if CurrentPhase(events) == PhaseFinished {
		return accept()
	}
	if RoundsCompleted(events) >= MaxRounds {
		return accept(GameFinished{Time: now})
	}
	if Bankrupt(events) {
		return accept(GameFinished{Time: now, Early: true})
	}
	return reject(CodeGameNotOver, "the game is not over yet")
}

// Bankrupt reports whether, between rounds, every player has lost everything:
// each balance is zero and each debt reached the ceiling of the round just
// played.
func Bankrupt(events []Event) bool {
	if CurrentPhase(events) != PhaseSummary {
		return false
	}
	players := Roster(events)
	if len(players) == 0 {
		return false
	}
	ceiling := DebtCeiling(RoundsCompleted(events) - 1)
	accounts := Accounts(events)
	for _, p := range players {
		a := accounts[p.SessionID]
		if a.Balance > 0 || a.Debt < ceiling {
			return false
		}
	}
	return true
}

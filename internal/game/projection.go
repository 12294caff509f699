package game

import (
	"time"

	"github.com/playperu/monsterrace/internal/payout"
	"github.com/playperu/monsterrace/internal/race"
)

// Created returns the GameCreated event that opens the log.
func Created(events []Event) (GameCreated, bool) {
	if len(events) == 0 {
		return GameCreated{}, false
	}
	gc, ok := events[0].Payload.(GameCreated)
	return gc, ok
}

// CurrentPhase derives the phase from the most recent phase-changing event.
func CurrentPhase(events []Event) Phase {
	for i := len(events) - 1; i >= 0; i-- {
		switch events[i].Payload.(type) {
		case GameCreated:
			return PhaseLobby
		case RoundStarted:
			return PhaseBetting
		case RaceStarted:
			return PhaseRacing
		case RaceFinished:
			return PhaseSummary
		case GameFinished:
			return PhaseFinished
		}
	}
	return PhaseLobby
}

// RoundsStarted counts RoundStarted events; it is also the current round
// number once the first round has begun.
func RoundsStarted(events []Event) int {
	n := 0
	for _, e := range events {
		if _, ok := e.Payload.(RoundStarted); ok {
			n++
		}
	}
	return n
}

// RoundsCompleted counts finished races.
func RoundsCompleted(events []Event) int {
	n := 0
	for _, e := range events {
		if _, ok := e.Payload.(RaceFinished); ok {
			n++
		}
	}
	return n
}

// roundStart returns the index of the latest RoundStarted, or -1.
func roundStart(events []Event) int {
	for i := len(events) - 1; i >= 0; i-- {
		if _, ok := events[i].Payload.(RoundStarted); ok {
			return i
		}
	}
	return -1
}

// thisRound returns the events since the latest RoundStarted, inclusive.
// Before the first round it returns the whole log.
func thisRound(events []Event) []Event {
	if i := roundStart(events); i >= 0 {
		return events[i:]
	}
	return events
}

// lastOf returns the latest payload of type T.
func lastOf[T Payload](events []Event) (T, bool) {
	for i := len(events) - 1; i >= 0; i-- {
		if p, ok := events[i].Payload.(T); ok {
			return p, true
		}
	}
	var zero T
	return zero, false
}

// Player is a roster entry.
type Player struct {
	SessionID SessionID `json:"sessionId"`
	Name      string    `json:"name"`
	Ready     bool      `json:"ready"`
}

// Roster lists players in join order.
func Roster(events []Event) []Player {
	var players []Player
	index := map[SessionID]int{}
	for _, e := range events {
		switch p := e.Payload.(type) {
		case PlayerJoined:
			if _, ok := index[p.SessionID]; ok {
				continue
			}
			index[p.SessionID] = len(players)
			players = append(players, Player{SessionID: p.SessionID, Name: p.Name})
		case ChangedProfile:
			if i, ok := index[p.SessionID]; ok {
				players[i].Name = p.Name
			}
		case PlayerReady:
			if i, ok := index[p.SessionID]; ok {
				players[i].Ready = true
			}
		}
	}
	return players
}

// FindPlayer returns the roster entry of id.
func FindPlayer(events []Event, id SessionID) (Player, bool) {
	for _, p := range Roster(events) {
		if p.SessionID == id {
			return p, true
		}
	}
	return Player{}, false
}

// AllReady reports whether the roster is non-empty and everyone is ready.
func AllReady(events []Event) bool {
	players := Roster(events)
	if len(players) == 0 {
		return false
	}
	for _, p := range players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// Account is the money position of one player. Escrow is the sum of bets not
// settled yet.
type Account struct {
	Balance int `json:"balance"`
	Debt    int `json:"debt"`
	Escrow  int `json:"escrow"`
}

// Accounts folds every money-moving event, settling bets at each
// RaceFinished with the odds recorded when the round started.
func Accounts(events []Event) map[SessionID]Account {
	accounts := map[SessionID]Account{}
	var (
		model   payout.Model
		odds    []race.Odds
		pending []payout.Bet
	)
	update := func(id SessionID, fn func(*Account)) {
		a := accounts[id]
		fn(&a)
		accounts[id] = a
	}

	for _, e := range events {
		switch p := e.Payload.(type) {
		case GameCreated:
			model = p.Settings.Payout
		case PlayerJoined:
			if _, ok := accounts[p.SessionID]; !ok {
				accounts[p.SessionID] = Account{Balance: StartingBalance}
			}
		case BoughtCard:
			update(p.SessionID, func(a *Account) { a.Balance -= CardPrice })
		case BorrowedMoney:
			update(p.SessionID, func(a *Account) { a.Balance += p.Amount; a.Debt += p.Amount })
		case PaidBackMoney:
			update(p.SessionID, func(a *Account) { a.Balance -= p.Amount; a.Debt -= p.Amount })
		case RoundStarted:
			odds = p.Odds
		case PlacedBet:
			update(p.SessionID, func(a *Account) { a.Balance -= p.Amount; a.Escrow += p.Amount })
			pending = append(pending, payout.Bet{SessionID: p.SessionID, MonsterID: p.MonsterID, Amount: p.Amount})
		case PlayedCard:
			switch p.Card {
			case CardTheft:
				stolen := accounts[p.Target.SessionID].Balance * TheftPercent / 100
				update(p.Target.SessionID, func(a *Account) { a.Balance -= stolen })
				update(p.SessionID, func(a *Account) { a.Balance += stolen })
			case CardCrystals:
				update(p.Target.SessionID, func(a *Account) { a.Balance += CrystalsBonus })
			}
		case RaceFinished:
			// The model was validated when the game was created.
			credits, _ := payout.Settle(model, pending, p.Results.First, odds)
			for id, amount := range credits {
				update(id, func(a *Account) { a.Balance += amount })
			}
			for id := range accounts {
				update(id, func(a *Account) { a.Escrow = 0 })
			}
			pending = nil
		}
	}
	return accounts
}

// Balances returns each player's spendable balance.
func Balances(events []Event) map[SessionID]int {
	out := map[SessionID]int{}
	for id, a := range Accounts(events) {
		out[id] = a.Balance
	}
	return out
}

// Debts returns what each player owes.
func Debts(events []Event) map[SessionID]int {
	out := map[SessionID]int{}
	for id, a := range Accounts(events) {
		out[id] = a.Debt
	}
	return out
}

// Hands returns the cards held by each player.
func Hands(events []Event) map[SessionID][]Card {
	hands := map[SessionID][]Card{}
	for _, e := range events {
		switch p := e.Payload.(type) {
		case PlayerJoined:
			if _, ok := hands[p.SessionID]; !ok {
				hands[p.SessionID] = append([]Card{}, p.InitialHand...)
			}
		case BoughtCard:
			hands[p.SessionID] = append(hands[p.SessionID], p.Card)
		case PlayedCard:
			if p.Card == CardExtortion {
				victim := hands[p.Target.SessionID]
				n := min(2, len(victim))
				hands[p.SessionID] = append(hands[p.SessionID], victim[:n]...)
				hands[p.Target.SessionID] = append([]Card{}, victim[n:]...)
				continue
			}
			hands[p.SessionID] = removeCard(hands[p.SessionID], p.Card)
		}
	}
	return hands
}

func removeCard(hand []Card, c Card) []Card {
	for i, h := range hand {
		if h == c {
			out := make([]Card, 0, len(hand)-1)
			out = append(out, hand[:i]...)
			return append(out, hand[i+1:]...)
		}
	}
	return hand
}

func holds(hand []Card, c Card) bool {
	for _, h := range hand {
		if h == c {
			return true
		}
	}
	return false
}

// PlacedBets returns the bets escrowed since the last settlement.
func PlacedBets(events []Event) []payout.Bet {
	var bets []payout.Bet
	for _, e := range events {
		switch p := e.Payload.(type) {
		case PlacedBet:
			bets = append(bets, payout.Bet{SessionID: p.SessionID, MonsterID: p.MonsterID, Amount: p.Amount})
		case RaceFinished:
			bets = nil
		}
	}
	return bets
}

// HasBet reports whether id placed a bet in the current round.
func HasBet(events []Event, id SessionID) bool {
	for _, b := range PlacedBets(thisRound(events)) {
		if b.SessionID == id {
			return true
		}
	}
	return false
}

// AllBet reports whether every roster member bet in the current round.
func AllBet(events []Event) bool {
	players := Roster(events)
	if len(players) == 0 || roundStart(events) < 0 {
		return false
	}
	for _, p := range players {
		if !HasBet(events, p.SessionID) {
			return false
		}
	}
	return true
}

// CurrentOdds returns the odds recorded for the latest round.
func CurrentOdds(events []Event) []race.Odds {
	rs, _ := lastOf[RoundStarted](events)
	return rs.Odds
}

// RoundResult is the podium of one finished round.
type RoundResult struct {
	Round   int         `json:"round"`
	Time    time.Time   `json:"time"`
	Results race.Result `json:"results"`
}

// RaceResults lists every finished race in order.
func RaceResults(events []Event) []RoundResult {
	var out []RoundResult
	round := 0
	for _, e := range events {
		switch p := e.Payload.(type) {
		case RoundStarted:
			round = p.Round
		case RaceFinished:
			out = append(out, RoundResult{Round: round, Time: p.Time, Results: p.Results})
		}
	}
	return out
}

// Monsters returns the unmodified roster of the current round, or nil before
// the first round.
func Monsters(events []Event) []race.Monster {
	gc, ok := Created(events)
	round := RoundsStarted(events)
	if !ok || round == 0 {
		return nil
	}
	return race.Roster(gc.Code, round)
}

// Modifiers sums the monster cards played in the current round. Poison and
// Extra Rations cancel pairwise on the same monster, as do Psy Blast and
// Meditation; unmatched cards apply.
func Modifiers(events []Event) map[int]race.Modifier {
	if roundStart(events) < 0 {
		return map[int]race.Modifier{}
	}
	counts := map[int]map[Card]int{}
	for _, e := range thisRound(events) {
		p, ok := e.Payload.(PlayedCard)
		if !ok || p.Card.Target() != TargetMonster {
			continue
		}
		if counts[p.Target.MonsterID] == nil {
			counts[p.Target.MonsterID] = map[Card]int{}
		}
		counts[p.Target.MonsterID][p.Card]++
	}

	mods := map[int]race.Modifier{}
	for id, c := range counts {
		str := min(c[CardPoison], c[CardExtraRations])
		dex := min(c[CardPsyBlast], c[CardMeditation])
		mods[id] = race.Modifier{
			Strength:  -3*(c[CardPoison]-str) + 2*(c[CardExtraRations]-str),
			Dexterity: -3*(c[CardPsyBlast]-dex) + 2*(c[CardMeditation]-dex),
			Start:     1.5 * float64(c[CardNepotism]),
		}
	}
	return mods
}

// CurrentRace simulates the current round's race with this round's card
// effects. It reports false before the first round.
func CurrentRace(events []Event) (race.Race, bool) {
	gc, ok := Created(events)
	monsters := Monsters(events)
	if !ok || monsters == nil {
		return race.Race{}, false
	}
	return race.Simulate(gc.Code, RoundsStarted(events), race.Apply(monsters, Modifiers(events))), true
}

// PlaysThisRound counts the cards id played in the current round.
func PlaysThisRound(events []Event, id SessionID) int {
	if roundStart(events) < 0 {
		return 0
	}
	n := 0
	for _, e := range thisRound(events) {
		if p, ok := e.Payload.(PlayedCard); ok && p.SessionID == id {
			n++
		}
	}
	return n
}

// Scrutinized reports whether someone played Scrutiny on id this round.
func Scrutinized(events []Event, id SessionID) bool {
	if roundStart(events) < 0 {
		return false
	}
	for _, e := range thisRound(events) {
		if p, ok := e.Payload.(PlayedCard); ok && p.Card == CardScrutiny && p.Target.SessionID == id {
			return true
		}
	}
	return false
}

// RemainingPlays is how many more cards id may play this round.
func RemainingPlays(events []Event, id SessionID) int {
	if Scrutinized(events, id) {
		return 0
	}
	return max(0, PlayAllowance(len(Roster(events)))-PlaysThisRound(events, id))
}

// purchasesThisRound counts cards id bought since the round started.
func purchasesThisRound(events []Event, id SessionID) int {
	n := 0
	for _, e := range thisRound(events) {
		if p, ok := e.Payload.(BoughtCard); ok && p.SessionID == id {
			n++
		}
	}
	return n
}

// View bundles every projection of a game.
type View struct {
	Code            string                `json:"code"`
	Settings        Settings              `json:"settings"`
	Phase           Phase                 `json:"phase"`
	Round           int                   `json:"round"`
	RoundsCompleted int                   `json:"roundsCompleted"`
	Players         []Player              `json:"players"`
	Accounts        map[SessionID]Account `json:"accounts"`
	Hands           map[SessionID][]Card  `json:"hands"`
	Bets            []payout.Bet          `json:"bets"`
	Monsters        []race.Monster        `json:"monsters"`
	Odds            []race.Odds           `json:"odds"`
	Results         []RoundResult         `json:"results"`
	LastSeq         int                   `json:"lastSeq"`
}

// Project computes the full view of a game.
func Project(events []Event) View {
	gc, _ := Created(events)
	v := View{
		Code:            gc.Code,
		Settings:        gc.Settings,
		Phase:           CurrentPhase(events),
		Round:           RoundsStarted(events),
		RoundsCompleted: RoundsCompleted(events),
		Players:         Roster(events),
		Accounts:        Accounts(events),
		Hands:           Hands(events),
		Bets:            PlacedBets(events),
		Monsters:        race.Apply(Monsters(events), Modifiers(events)),
		Odds:            CurrentOdds(events),
		Results:         RaceResults(events),
	}
	if n := len(events); n > 0 {
		v.LastSeq = events[n-1].Seq
	}
	return v
}

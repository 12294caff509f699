// Package game holds the per-session rules of a monster race: the closed set
// of events and commands, the projections folding the event log into views,
// the command handlers and the process managers driving timed phases.
//
// Nothing in this package performs I/O. Every view is a pure function of the
// event log, so replaying the same log always yields the same state.
package game

import (
	"time"

	"github.com/google/uuid"

	"github.com/playperu/monsterrace/internal/payout"
)

// SessionID identifies a connected player. It is opaque to the game.
type SessionID = uuid.UUID

// SystemID is the identity used by process managers. No player can hold it.
var SystemID = uuid.Nil

const (
	StartingBalance = 1000
	CardPrice       = 100
	MaxHand         = 5
	MaxPlayers      = 15
	MaxRounds       = 10
	MaxNameLength   = 24

	// TheftPercent of the target's balance moves to the thief.
	TheftPercent = 20
	// CrystalsBonus is minted into the target's balance.
	CrystalsBonus = 1000

	BettingTimeout = 90 * time.Second
	SummaryPause   = 15 * time.Second
)

// Settings are fixed when a game is created.
type Settings struct {
	Payout   payout.Model `json:"payout"`
	HandSize int          `json:"handSize"`
}

// Valid reports whether s can be used to create a game.
func (s Settings) Valid() bool {
	return s.Payout.Valid() && (s.HandSize == 0 || s.HandSize == 3)
}

// Phase is the coarse state of a game.
type Phase string

const (
	PhaseLobby    Phase = "lobby"
	PhaseBetting  Phase = "betting"
	PhaseRacing   Phase = "racing"
	PhaseSummary  Phase = "summary"
	PhaseFinished Phase = "finished"
)

// DebtCeiling is the most a player may owe after completed rounds.
func DebtCeiling(roundsCompleted int) int {
	return 300 + 200*roundsCompleted
}

// PlayAllowance is how many cards each player may play per round.
func PlayAllowance(players int) int {
	switch {
	case players <= 3:
		return 3
	case players <= 8:
		return 2
	default:
		return 1
	}
}

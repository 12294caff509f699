// Package payout settles the bets of a finished race.
package payout

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/playperu/monsterrace/internal/race"
)

// Model selects how winners are paid.
type Model string

const (
	// ModelOdds pays stake / estimated win probability.
	ModelOdds Model = "odds"
	// ModelPool redistributes the losing stake to winners with a bonus.
	ModelPool Model = "pool"
)

// PoolBonus inflates the losing stake before it is shared among winners.
var PoolBonus = decimal.RequireFromString("1.10")

// Valid reports whether m is a known model.
func (m Model) Valid() bool {
	return m == ModelOdds || m == ModelPool
}

// Bet is an escrowed stake on one monster.
type Bet struct {
	SessionID uuid.UUID `json:"sessionId"`
	MonsterID int       `json:"monsterId"`
	Amount    int       `json:"amount"`
}

// Settle returns the amount credited to each player whose bet won. Losing
// stakes are forfeited and never appear in the result.
func Settle(m Model, bets []Bet, winner int, odds []race.Odds) (map[uuid.UUID]int, error) {
	switch m {
	case ModelOdds:
		return settleOdds(bets, winner, odds), nil
	case ModelPool:
		return settlePool(bets, winner), nil
	default:
		return nil, fmt.Errorf("unknown payout model %q", m)
	}
}

// settleOdds pays amount * trials / wins, floored. A monster that never won
// a trial is priced as if it had won once.
func settleOdds(bets []Bet, winner int, odds []race.Odds) map[uuid.UUID]int {
	var entry race.Odds
	for _, o := range odds {
		if o.MonsterID == winner {
			entry = o
			break
		}
	}
	trials := decimal.NewFromInt(int64(max(entry.Trials, 1)))
	wins := decimal.NewFromInt(int64(max(entry.Wins, 1)))

	out := map[uuid.UUID]int{}
	for _, b := range bets {
		if b.MonsterID != winner || b.Amount <= 0 {
			continue
		}
		amount := decimal.NewFromInt(int64(b.Amount))
		out[b.SessionID] += int(amount.Mul(trials).Div(wins).Floor().IntPart())
	}
	return out
}

// settlePool returns every winning stake plus its share of the inflated
// losing stake, floored per bet.
func settlePool(bets []Bet, winner int) map[uuid.UUID]int {
	var winning, losing int64
	for _, b := range bets {
		if b.Amount <= 0 {
			continue
		}
		if b.MonsterID == winner {
			winning += int64(b.Amount)
		} else {
			losing += int64(b.Amount)
		}
	}

	out := map[uuid.UUID]int{}
	if winning == 0 {
		return out
	}

	pot := decimal.NewFromInt(losing).Mul(PoolBonus)
	total := decimal.NewFromInt(winning)
	for _, b := range bets {
		if b.MonsterID != winner || b.Amount <= 0 {
			continue
		}
		stake := decimal.NewFromInt(int64(b.Amount))
		share := pot.Mul(stake).Div(total).Floor().IntPart()
		out[b.SessionID] += b.Amount + int(share)
	}
	return out
}

package payout

import (
	"math/rand"
	"testing"

	"github.com/google/uuid"

	"github.com/playperu/monsterrace/internal/race"
)

var (
	alice = uuid.MustParse("6f1c2b1e-0000-4000-8000-000000000001")
	bob   = uuid.MustParse("6f1c2b1e-0000-4000-8000-000000000002")
	carol = uuid.MustParse("6f1c2b1e-0000-4000-8000-000000000003")
)

func TestSettlePoolTwoPlayers(t *testing.T) {
	bets := []Bet{
		{SessionID: alice, MonsterID: 4, Amount: 100},
		{SessionID: bob, MonsterID: 7, Amount: 100},
	}
	got, err := Settle(ModelPool, bets, 4, nil)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if got[alice] != 210 {
		t.Fatalf("alice payout = %d, want 210", got[alice])
	}
	if _, ok := got[bob]; ok {
		t.Fatalf("bob should receive nothing, got %d", got[bob])
	}
}

func TestSettlePoolNoWinners(t *testing.T) {
	bets := []Bet{{SessionID: alice, MonsterID: 1, Amount: 50}}
	got, err := Settle(ModelPool, bets, 2, nil)
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no payouts, got %v", got)
	}
}

func TestSettlePoolNeverExceedsPot(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	players := []uuid.UUID{alice, bob, carol}

	for i := 0; i < 500; i++ {
		var bets []Bet
		for n := rng.Intn(8); n >= 0; n-- {
			bets = append(bets, Bet{
				SessionID: players[rng.Intn(len(players))],
				MonsterID: 1 + rng.Intn(3),
				Amount:    rng.Intn(1000),
			})
		}
		winner := 1 + rng.Intn(3)

		var winning, losing int
		for _, b := range bets {
			if b.MonsterID == winner {
				winning += b.Amount
			} else {
				losing += b.Amount
			}
		}

		got, err := Settle(ModelPool, bets, winner, nil)
		if err != nil {
			t.Fatalf("settle: %v", err)
		}
		paid := 0
		for _, v := range got {
			paid += v
		}
		limit := float64(losing)*1.10 + float64(winning)
		if float64(paid) > limit {
			t.Fatalf("case %d: paid %d exceeds %v", i, paid, limit)
		}
	}
}

func TestSettleOdds(t *testing.T) {
	odds := []race.Odds{
		{MonsterID: 1, Wins: 250, Trials: 1000},
		{MonsterID: 2, Wins: 0, Trials: 1000},
	}

	tests := []struct {
		name   string
		bets   []Bet
		winner int
		want   map[uuid.UUID]int
	}{
		{
			name:   "quarter probability pays four times",
			bets:   []Bet{{SessionID: alice, MonsterID: 1, Amount: 100}, {SessionID: bob, MonsterID: 2, Amount: 100}},
			winner: 1,
			want:   map[uuid.UUID]int{alice: 400},
		},
		{
			name:   "never-winning monster priced at one win",
			bets:   []Bet{{SessionID: bob, MonsterID: 2, Amount: 3}},
			winner: 2,
			want:   map[uuid.UUID]int{bob: 3000},
		},
		{
			name:   "multiple bets accumulate",
			bets:   []Bet{{SessionID: alice, MonsterID: 1, Amount: 10}, {SessionID: alice, MonsterID: 1, Amount: 15}},
			winner: 1,
			want:   map[uuid.UUID]int{alice: 100},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Settle(ModelOdds, tt.bets, tt.winner, odds)
			if err != nil {
				t.Fatalf("settle: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("payouts = %v, want %v", got, tt.want)
			}
			for id, v := range tt.want {
				if got[id] != v {
					t.Errorf("payout[%s] = %d, want %d", id, got[id], v)
				}
			}
		})
	}
}

func TestSettleUnknownModel(t *testing.T) {
	if _, err := Settle(Model("lottery"), nil, 1, nil); err == nil {
		t.Fatal("expected error for unknown model")
	}
}

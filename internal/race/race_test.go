package race

import (
	"reflect"
	"testing"
)

func TestRosterDeterministic(t *testing.T) {
	a := Roster("KQXWPT", 3)
	b := Roster("KQXWPT", 3)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("rosters differ: %v vs %v", a, b)
	}
	if len(a) != RosterSize {
		t.Fatalf("roster size = %d, want %d", len(a), RosterSize)
	}

	seen := map[int]bool{}
	for _, m := range a {
		if seen[m.ID] {
			t.Fatalf("monster %d drawn twice", m.ID)
		}
		seen[m.ID] = true
		if _, ok := Lookup(m.ID); !ok {
			t.Fatalf("monster %d not in catalog", m.ID)
		}
	}
}

func TestRosterVariesAcrossRounds(t *testing.T) {
	distinct := map[[RosterSize]int]bool{}
	for round := 1; round <= 10; round++ {
		var key [RosterSize]int
		for i, m := range Roster("ABCDEF", round) {
			key[i] = m.ID
		}
		distinct[key] = true
	}
	if len(distinct) < 2 {
		t.Fatalf("expected rosters to vary across rounds, got %d distinct", len(distinct))
	}
}

func TestSimulateDeterministic(t *testing.T) {
	monsters := Roster("HJKMNP", 2)
	a := Simulate("HJKMNP", 2, monsters)
	b := Simulate("HJKMNP", 2, monsters)
	if !reflect.DeepEqual(a, b) {
		t.Fatal("same code and round produced different races")
	}
}

func TestSimulateFinishLine(t *testing.T) {
	monsters := Apply(Roster("RACE01", 1), map[int]Modifier{})
	r := Simulate("RACE01", 1, monsters)

	if len(r.Placings) != RosterSize {
		t.Fatalf("placings = %v, want %d entries", r.Placings, RosterSize)
	}
	if len(r.Lanes) != len(monsters) {
		t.Fatalf("lanes = %d, want %d", len(r.Lanes), len(monsters))
	}

	finish := map[int]float64{}
	for _, lane := range r.Lanes {
		last := lane.Jumps[len(lane.Jumps)-1]
		if last.Time != lane.FinishTime {
			t.Errorf("monster %d last jump at %v, finish time %v", lane.MonsterID, last.Time, lane.FinishTime)
		}
		if diff := last.Position - TrackLength; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("monster %d ends at %v, want %v", lane.MonsterID, last.Position, TrackLength)
		}
		prev := -1.0
		for _, j := range lane.Jumps {
			if j.Time <= prev {
				t.Fatalf("monster %d jump times not increasing", lane.MonsterID)
			}
			prev = j.Time
		}
		finish[lane.MonsterID] = lane.FinishTime
	}

	for i := 1; i < len(r.Placings); i++ {
		if finish[r.Placings[i-1]] >= finish[r.Placings[i]] {
			t.Fatalf("placing %d finished no earlier than placing %d", i-1, i)
		}
	}
	if r.Duration != finish[r.Placings[len(r.Placings)-1]] {
		t.Fatalf("duration = %v, want last finish time", r.Duration)
	}

	res := r.Result()
	if res.First != r.Placings[0] || res.Second != r.Placings[1] || res.Third != r.Placings[2] {
		t.Fatalf("result %+v does not match placings %v", res, r.Placings)
	}
}

func TestApplyDoesNotMutateCatalog(t *testing.T) {
	before := Catalog()
	roster := Roster("MUTATE", 1)
	mods := map[int]Modifier{roster[0].ID: {Strength: -30, Dexterity: 2, Start: 1.5}}

	got := Apply(roster, mods)
	if got[0].Strength != 1 {
		t.Fatalf("strength = %d, want floor of 1", got[0].Strength)
	}
	if got[0].Start != 1.5 {
		t.Fatalf("start = %v, want 1.5", got[0].Start)
	}
	if !reflect.DeepEqual(before, Catalog()) {
		t.Fatal("catalog mutated")
	}
	if orig, _ := Lookup(roster[0].ID); orig.Strength == 1 {
		t.Fatal("lookup returned modified monster")
	}
}

func TestEstimateOdds(t *testing.T) {
	monsters := Roster("ODDSXY", 4)
	odds := EstimateOdds("ODDSXY", 4, monsters, DefaultTrials)
	if len(odds) != len(monsters) {
		t.Fatalf("odds entries = %d, want %d", len(odds), len(monsters))
	}

	total := 0
	for i, o := range odds {
		if o.MonsterID != monsters[i].ID {
			t.Fatalf("odds[%d] monster = %d, want %d", i, o.MonsterID, monsters[i].ID)
		}
		if o.Trials != DefaultTrials {
			t.Fatalf("trials = %d, want %d", o.Trials, DefaultTrials)
		}
		total += o.Wins
	}
	if total != DefaultTrials {
		t.Fatalf("wins sum = %d, want %d", total, DefaultTrials)
	}

	again := EstimateOdds("ODDSXY", 4, monsters, DefaultTrials)
	if !reflect.DeepEqual(odds, again) {
		t.Fatal("odds not reproducible")
	}
}

func TestStrongerMonsterWinsMoreOften(t *testing.T) {
	weak := Monster{ID: 1, Strength: 1, Dexterity: 1}
	strong := Monster{ID: 2, Strength: 9, Dexterity: 9}
	odds := EstimateOdds("BIAS", 1, []Monster{weak, strong}, 500)
	if odds[1].Wins <= odds[0].Wins {
		t.Fatalf("strong wins %d, weak wins %d", odds[1].Wins, odds[0].Wins)
	}
}

func TestSeedStable(t *testing.T) {
	if Seed("a", 1) != Seed("a", 1) {
		t.Fatal("seed not stable")
	}
	if Seed("a", 1) == Seed("a", 2) {
		t.Fatal("seed ignores parts")
	}
	if Seed("ab", "c") == Seed("a", "bc") {
		t.Fatal("seed parts not separated")
	}
}

package race

import (
	"math"
	"math/rand"
)

const (
	// TrackLength is the distance every monster has to cover.
	TrackLength = 10.0

	// DefaultTrials is the number of simulated races used to estimate odds.
	DefaultTrials = 1000

	firstFinishMin    = 9.0
	firstFinishSpread = 1.5
	finishGapMin      = 0.5
	finishGapSpread   = 1.0
)

// Jump is one hop of a monster along the track.
type Jump struct {
	Time     float64 `json:"time"`
	Position float64 `json:"position"`
	Height   float64 `json:"height"`
}

// Lane is the full trajectory of one monster.
type Lane struct {
	MonsterID  int     `json:"monsterId"`
	FinishTime float64 `json:"finishTime"`
	Jumps      []Jump  `json:"jumps"`
}

// Result holds the podium of a race.
type Result struct {
	First  int `json:"first"`
	Second int `json:"second"`
	Third  int `json:"third"`
}

// Race is a fully simulated race.
type Race struct {
	Lanes    []Lane  `json:"lanes"`
	Placings []int   `json:"placings"`
	Duration float64 `json:"duration"`
}

// Result returns the first three placings. Missing places are zero.
func (r Race) Result() Result {
	var res Result
	places := []*int{&res.First, &res.Second, &res.Third}
	for i, id := range r.Placings {
		if i >= len(places) {
			break
		}
		*places[i] = id
	}
	return res
}

// Simulate runs the race of a round. monsters should already carry card
// effects (see Apply).
func Simulate(code string, round int, monsters []Monster) Race {
	return simulate(rand.New(rand.NewSource(Seed("race", code, round))), monsters)
}

func simulate(rng *rand.Rand, monsters []Monster) Race {
	order := finishingOrder(rng, monsters)

	finish := make(map[int]float64, len(order))
	t := firstFinishMin + rng.Float64()*firstFinishSpread
	for _, id := range order {
		finish[id] = t
		t += finishGapMin + rng.Float64()*finishGapSpread
	}

	r := Race{Placings: order}
	for _, m := range monsters {
		lane := runLane(rng, m, finish[m.ID])
		if last := lane.Jumps[len(lane.Jumps)-1].Time; last > r.Duration {
			r.Duration = last
		}
		r.Lanes = append(r.Lanes, lane)
	}
	return r
}

// finishingOrder draws monsters without replacement, weighted by strength
// plus dexterity.
func finishingOrder(rng *rand.Rand, monsters []Monster) []int {
	pool := make([]Monster, len(monsters))
	copy(pool, monsters)

	order := make([]int, 0, len(pool))
	for len(pool) > 0 {
		total := 0
		for _, m := range pool {
			total += weight(m)
		}
		pick := rng.Intn(total)
		i := 0
		for ; i < len(pool)-1; i++ {
			pick -= weight(pool[i])
			if pick < 0 {
				break
			}
		}
		order = append(order, pool[i].ID)
		pool = append(pool[:i], pool[i+1:]...)
	}
	return order
}

func weight(m Monster) int {
	return max(1, m.Strength+m.Dexterity)
}

// runLane lays jumps along p(t) = start + (L-start)*(t/T)^k so that the last
// jump lands on the finish line exactly at T.
func runLane(rng *rand.Rand, m Monster, finishAt float64) Lane {
	start := math.Min(m.Start, TrackLength-1)
	k := curveExponent(m.Strength)
	interval := 1.8 / float64(m.Dexterity+3)

	lane := Lane{MonsterID: m.ID, FinishTime: finishAt}
	t := 0.0
	for {
		t += interval * (0.7 + rng.Float64()*0.6)
		if t >= finishAt {
			t = finishAt
		}
		pos := start + (TrackLength-start)*math.Pow(t/finishAt, k)
		height := (0.2 + rng.Float64()*0.4) * float64(m.Strength) / 5
		lane.Jumps = append(lane.Jumps, Jump{Time: t, Position: pos, Height: height})
		if t == finishAt {
			return lane
		}
	}
}

// Strong monsters accelerate early, weak ones finish with a sprint.
func curveExponent(strength int) float64 {
	return math.Max(0.6, math.Min(1.4, 1.6-0.1*float64(strength)))
}

// Odds is the estimated win rate of one monster.
type Odds struct {
	MonsterID int `json:"monsterId"`
	Wins      int `json:"wins"`
	Trials    int `json:"trials"`
}

// Probability returns Wins/Trials.
func (o Odds) Probability() float64 {
	if o.Trials == 0 {
		return 0
	}
	return float64(o.Wins) / float64(o.Trials)
}

// EstimateOdds simulates trials independent races, each re-seeded, and counts
// how often every monster wins. The result follows the order of monsters.
func EstimateOdds(code string, round int, monsters []Monster, trials int) []Odds {
	wins := make(map[int]int, len(monsters))
	for i := 0; i < trials; i++ {
		rng := rand.New(rand.NewSource(Seed("odds", code, round, i)))
		r := simulate(rng, monsters)
		if len(r.Placings) > 0 {
			wins[r.Placings[0]]++
		}
	}

	out := make([]Odds, 0, len(monsters))
	for _, m := range monsters {
		out = append(out, Odds{MonsterID: m.ID, Wins: wins[m.ID], Trials: trials})
	}
	return out
}

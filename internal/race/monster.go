// Package race simulates monster races. Everything here is deterministic: the
// same seed and the same monsters always produce the same roster, jumps and
// placings.
package race

import (
	"encoding/binary"
	"fmt"
	"math/rand"

	"golang.org/x/crypto/blake2b"
)

// RosterSize is the number of monsters drawn for each round.
const RosterSize = 3

// Monster is a racer. Catalog entries are never mutated; card effects are
// applied to copies returned by Apply.
type Monster struct {
	ID        int     `json:"id"`
	Name      string  `json:"name"`
	Dexterity int     `json:"dexterity"`
	Strength  int     `json:"strength"`
	Start     float64 `json:"start"`
}

var catalog = [...]Monster{
	{ID: 1, Name: "Blorb", Dexterity: 4, Strength: 8},
	{ID: 2, Name: "Snarlfang", Dexterity: 7, Strength: 5},
	{ID: 3, Name: "Gribble", Dexterity: 6, Strength: 6},
	{ID: 4, Name: "Quillback", Dexterity: 5, Strength: 7},
	{ID: 5, Name: "Mudwump", Dexterity: 3, Strength: 9},
	{ID: 6, Name: "Zephyx", Dexterity: 9, Strength: 3},
	{ID: 7, Name: "Krakkle", Dexterity: 8, Strength: 4},
	{ID: 8, Name: "Toadstool", Dexterity: 5, Strength: 5},
	{ID: 9, Name: "Vexling", Dexterity: 7, Strength: 6},
}

// Catalog returns a copy of all monsters.
func Catalog() []Monster {
	out := make([]Monster, len(catalog))
	copy(out, catalog[:])
	return out
}

// Lookup returns the catalog entry with the given id.
func Lookup(id int) (Monster, bool) {
	for _, m := range catalog {
		if m.ID == id {
			return m, true
		}
	}
	return Monster{}, false
}

// Roster picks RosterSize monsters for a round of the game with the given
// join code.
func Roster(code string, round int) []Monster {
	rng := rand.New(rand.NewSource(Seed("roster", code, round)))
	perm := rng.Perm(len(catalog))
	out := make([]Monster, 0, RosterSize)
	for _, i := range perm[:RosterSize] {
		out = append(out, catalog[i])
	}
	return out
}

// Modifier is the net effect of cards played on one monster in one round.
type Modifier struct {
	Strength  int
	Dexterity int
	Start     float64
}

// Apply returns modified copies of monsters. Stats never drop below 1.
func Apply(monsters []Monster, mods map[int]Modifier) []Monster {
	out := make([]Monster, len(monsters))
	for i, m := range monsters {
		mod := mods[m.ID]
		m.Strength = max(1, m.Strength+mod.Strength)
		m.Dexterity = max(1, m.Dexterity+mod.Dexterity)
		m.Start += mod.Start
		out[i] = m
	}
	return out
}

// Seed hashes parts into a stable RNG seed. Parts are formatted with %v, so
// anything with a stable string form (ints, strings, UUIDs) may be used.
func Seed(parts ...any) int64 {
	h, err := blake2b.New256(nil)
	if err != nil {
		panic(fmt.Sprintf("blake2b: %v", err))
	}
	for _, p := range parts {
		fmt.Fprintf(h, "%v\x1f", p)
	}
	sum := h.Sum(nil)
	return int64(binary.LittleEndian.Uint64(sum[:8]))
}

package game

import "math/rand"

// Card is a playable card kind.
type Card string

const (
	CardPoison       Card = "poison"
	CardExtraRations Card = "extra_rations"
	CardPsyBlast     Card = "psy_blast"
	CardMeditation   Card = "meditation"
	CardNepotism     Card = "nepotism"
	CardTheft        Card = "theft"
	CardExtortion    Card = "extortion"
	CardScrutiny     Card = "scrutiny"
	CardCrystals     Card = "crystals"
)

// TargetKind says what a card may be played on.
type TargetKind int

const (
	TargetMonster TargetKind = iota
	// TargetPlayer is another player; playing it on yourself is not allowed.
	TargetPlayer
	TargetSelf
)

type cardInfo struct {
	target TargetKind
	weight int
}

// deck lists cards in draw order; weights are relative.
var deck = []struct {
	card Card
	cardInfo
}{
	{CardPoison, cardInfo{TargetMonster, 14}},
	{CardExtraRations, cardInfo{TargetMonster, 14}},
	{CardPsyBlast, cardInfo{TargetMonster, 14}},
	{CardMeditation, cardInfo{TargetMonster, 14}},
	{CardNepotism, cardInfo{TargetMonster, 8}},
	{CardTheft, cardInfo{TargetPlayer, 10}},
	{CardExtortion, cardInfo{TargetPlayer, 8}},
	{CardScrutiny, cardInfo{TargetPlayer, 8}},
	{CardCrystals, cardInfo{TargetSelf, 4}},
}

var deckWeight = func() int {
	total := 0
	for _, c := range deck {
		total += c.weight
	}
	return total
}()

// Valid reports whether c is a known card.
func (c Card) Valid() bool {
	_, ok := c.info()
	return ok
}

// Target returns what c may be played on.
func (c Card) Target() TargetKind {
	info, _ := c.info()
	return info.target
}

func (c Card) info() (cardInfo, bool) {
	for _, d := range deck {
		if d.card == c {
			return d.cardInfo, true
		}
	}
	return cardInfo{}, false
}

// drawCard picks one card from the weighted deck.
func drawCard(rng *rand.Rand) Card {
	pick := rng.Intn(deckWeight)
	for _, d := range deck {
		pick -= d.weight
		if pick < 0 {
			return d.card
		}
	}
	return deck[len(deck)-1].card
}

// drawCards draws n cards from a deck seeded with seed.
func drawCards(seed int64, n int) []Card {
	rng := rand.New(rand.NewSource(seed))
	out := make([]Card, 0, n)
	for range n {
		out = append(out, drawCard(rng))
	}
	return out
}

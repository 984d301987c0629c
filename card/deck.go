package card

import (
	"errors"
	"fmt"
	"math/rand"
)

// Size is the number of cards in a full deck: 52 suited cards and 2 jokers.
const Size = 54

var ErrDeckEmpty = errors.New("deck empty")

// BuildDeck returns an ordered 54-card deck. Suited cards are c0..c51 and the
// jokers j52 and j53.
func BuildDeck() []Card {
	deck := make([]Card, 0, Size)
	id := 0
	for _, suit := range Suits {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, New(fmt.Sprintf("c%d", id), rank, suit))
			id++
		}
	}
	for i := 0; i < 2; i++ {
		deck = append(deck, Joker(fmt.Sprintf("j%d", id)))
		id++
	}
	return deck
}

// Shuffle returns a uniformly permuted copy of deck (Fisher-Yates).
func Shuffle(deck []Card, rng *rand.Rand) []Card {
	out := make([]Card, len(deck))
	copy(out, deck)
	for i := len(out) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}

// Draw takes the tail card. The returned slice shares storage with deck.
func Draw(deck []Card) (Card, []Card, error) {
	if len(deck) == 0 {
		return Card{}, deck, ErrDeckEmpty
	}
	last := len(deck) - 1
	return deck[last], deck[:last], nil
}

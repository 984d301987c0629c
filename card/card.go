// card/card.go
package card

import (
	"encoding/json"
	"strconv"
)

// Suit 花色
type Suit string

const (
	Spade   Suit = "S"
	Heart   Suit = "H"
	Diamond Suit = "D"
	Club    Suit = "C"
)

// Suits lists the four suits in deck construction order.
var Suits = []Suit{Spade, Heart, Diamond, Club}

// Rank 点数, Ace is 1 and King is 13.
type Rank int

const (
	Ace   Rank = 1
	Jack  Rank = 11
	Queen Rank = 12
	King  Rank = 13
)

// Card is a single physical card. Rank and Suit are zero for jokers.
type Card struct {
	ID      string
	Rank    Rank
	Suit    Suit
	IsJoker bool
}

// Joker returns a joker with the given id.
func Joker(id string) Card {
	return Card{ID: id, IsJoker: true}
}

// New returns a suited card.
func New(id string, rank Rank, suit Suit) Card {
	return Card{ID: id, Rank: rank, Suit: suit}
}

// Points is the card's contribution to a hand total.
func (c Card) Points() int {
	switch {
	case c.IsJoker:
		return 2
	case c.Rank == Ace:
		return 1
	default:
		return int(c.Rank)
	}
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return strconv.Itoa(int(r))
	}
}

func (c Card) String() string {
	if c.IsJoker {
		return "JOKER"
	}
	return c.Rank.String() + string(c.Suit)
}

type cardJSON struct {
	ID      string `json:"id"`
	Rank    *Rank  `json:"rank"`
	Suit    *Suit  `json:"suit"`
	IsJoker bool   `json:"isJoker"`
}

// MarshalJSON writes rank and suit as null for jokers.
func (c Card) MarshalJSON() ([]byte, error) {
	out := cardJSON{ID: c.ID, IsJoker: c.IsJoker}
	if !c.IsJoker {
		rank, suit := c.Rank, c.Suit
		out.Rank, out.Suit = &rank, &suit
	}
	return json.Marshal(out)
}

func (c *Card) UnmarshalJSON(data []byte) error {
	var in cardJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = Card{ID: in.ID, IsJoker: in.IsJoker}
	if in.Rank != nil && !in.IsJoker {
		c.Rank = *in.Rank
	}
	if in.Suit != nil && !in.IsJoker {
		c.Suit = *in.Suit
	}
	return nil
}

// IDs returns the ids of the given cards in order.
func IDs(cards []Card) []string {
	ids := make([]string, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
	}
	return ids
}

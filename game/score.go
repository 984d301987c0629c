package game

import "github.com/wfunc/dhumbal/card"

// Total sums a hand: jokers 2, aces 1, everything else its rank. Lower is better.
func Total(hand []card.Card) int {
	sum := 0
	for _, c := range hand {
		sum += c.Points()
	}
	return sum
}

// Outcome of a show.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLose Outcome = "lose"
)

// ShowOutcome 摊牌结果. Opponent fields are only set when the shower loses.
// Seats index the ended room's Players; names are not unique.
type ShowOutcome struct {
	Result        Outcome `json:"result"`
	Player        string  `json:"player"`
	MyTotal       int     `json:"myTotal"`
	Opponent      string  `json:"opponent,omitempty"`
	OpponentTotal int     `json:"opponentTotal,omitempty"`
	ShowerSeat    int     `json:"-"`
	WinnerSeat    int     `json:"-"`
}

// resolveShow compares the shower's total against every other player in seat
// order. The first opponent at or below the shower's total wins the game.
func resolveShow(players []Player, shower int) ShowOutcome {
	me := players[shower]
	myTotal := Total(me.Hand)
	for i, p := range players {
		if i == shower {
			continue
		}
		if t := Total(p.Hand); t <= myTotal {
			return ShowOutcome{
				Result:        OutcomeLose,
				Player:        me.Name,
				MyTotal:       myTotal,
				Opponent:      p.Name,
				OpponentTotal: t,
				ShowerSeat:    shower,
				WinnerSeat:    i,
			}
		}
	}
	return ShowOutcome{Result: OutcomeWin, Player: me.Name, MyTotal: myTotal, ShowerSeat: shower, WinnerSeat: shower}
}

// game/ops.go
package game

import (
	"fmt"

	"github.com/wfunc/dhumbal/card"
	"github.com/wfunc/dhumbal/meld"
)

// AddPlayer seats a new player. Adding a ref that is already seated is a no-op.
func (r *Room) AddPlayer(ref, name string) (*Room, error) {
	if r.Phase() != PhaseLobby {
		return nil, ErrGameAlreadyStarted
	}
	if r.seatOf(ref) >= 0 {
		return r, nil
	}
	if r.MaxPlayers > 0 && len(r.Players) >= r.MaxPlayers {
		return nil, ErrRoomFull
	}

	next := r.clone()
	next.Players = append(next.Players, Player{Ref: ref, Name: name})
	next.logf(fmt.Sprintf("%s joined.", name))
	return next, nil
}

// RemovePlayer drops a player from the room. Their cards go back under the
// deck and the turn pointer is kept on a valid seat. The phase and the floor
// are left alone. It reports false if ref was not seated.
func (r *Room) RemovePlayer(ref string) (*Room, bool) {
	seat := r.seatOf(ref)
	if seat < 0 {
		return r, false
	}

	next := r.clone()
	leaving := next.Players[seat]
	next.Players = append(next.Players[:seat], next.Players[seat+1:]...)
	if len(leaving.Hand) > 0 {
		next.Deck = append(leaving.Hand, next.Deck...)
	}

	switch {
	case len(next.Players) == 0:
		next.TurnIndex = 0
	case seat < next.TurnIndex:
		next.TurnIndex--
	case seat == next.TurnIndex:
		if next.TurnIndex >= len(next.Players) {
			next.TurnIndex = 0
		}
		if next.Phase() == PhasePlaying {
			next.Turn = TurnState{}
		}
	}

	next.logf(fmt.Sprintf("%s left.", leaving.Name))
	return next, true
}

// StartGame shuffles a fresh deck, deals every hand and opens the first turn.
func (r *Room) StartGame() (*Room, error) {
	switch r.Phase() {
	case PhasePlaying:
		return nil, ErrGameAlreadyStarted
	case PhaseEnded:
		return nil, ErrGameEnded
	}
	if len(r.Players) < minPlayers {
		return nil, ErrInsufficientPlayers
	}
	if len(r.Players)*r.HandSize > card.Size {
		return nil, card.ErrDeckEmpty
	}

	next := r.clone()
	deck := card.Shuffle(card.BuildDeck(), next.env.rng)
	for i := range next.Players {
		next.Players[i].Hand = make([]card.Card, 0, next.HandSize+1)
	}
	for round := 0; round < next.HandSize; round++ {
		for i := range next.Players {
			var c card.Card
			c, deck, _ = card.Draw(deck)
			next.Players[i].Hand = append(next.Players[i].Hand, c)
		}
	}

	next.Deck = deck
	next.Floor = nil
	next.TurnIndex = 0
	next.Turn = TurnState{}
	if err := next.phase.ChangeState(PhasePlaying); err != nil {
		return nil, err
	}
	next.logf("Game started.")
	return next, nil
}

// DropMeld moves a legal meld from the current player's hand to the floor.
func (r *Room) DropMeld(ref string, cardIDs []string) (*Room, meld.Result, error) {
	seat, err := r.requireTurn(ref)
	if err != nil {
		return nil, nil, err
	}
	cards, ok := pick(r.Players[seat].Hand, cardIDs)
	if !ok {
		return nil, nil, ErrCardsNotInHand
	}
	res, err := meld.Validate(cards)
	if err != nil {
		return nil, nil, err
	}

	next := r.clone()
	player := &next.Players[seat]
	player.Hand = without(player.Hand, cardIDs...)
	next.Floor = append(next.Floor, newMeld(next.env.newID(), meld.SortForDisplay(cards, res)))
	next.Turn.DroppedThisTurn = true
	next.logf(fmt.Sprintf("%s dropped a meld.", player.Name))
	return next, res, nil
}

// GrabFromFloor swaps one hand card for one floor card. The hand card becomes
// a new single-card meld on the floor.
func (r *Room) GrabFromFloor(ref, meldID, grabID, dropID string) (*Room, error) {
	seat, err := r.requireTurn(ref)
	if err != nil {
		return nil, err
	}
	if !r.Turn.DroppedThisTurn {
		return nil, ErrMustDropFirst
	}
	if r.Turn.GrabbedThisTurn {
		return nil, ErrAlreadyGrabbed
	}

	meldIdx := -1
	for i, m := range r.Floor {
		if m.ID == meldID {
			meldIdx = i
			break
		}
	}
	if meldIdx < 0 {
		return nil, ErrMeldNotFound
	}
	grabbed, ok := find(r.Floor[meldIdx].Cards, grabID)
	if !ok {
		return nil, ErrCardNotFound
	}
	if grabbed.IsJoker {
		return nil, ErrCannotGrabJoker
	}
	dropped, ok := find(r.Players[seat].Hand, dropID)
	if !ok {
		return nil, ErrCardNotInHand
	}

	next := r.clone()
	player := &next.Players[seat]
	player.Hand = append(without(player.Hand, dropID), grabbed)

	target := &next.Floor[meldIdx]
	target.Cards = without(target.Cards, grabID)
	if len(target.Cards) == 0 {
		next.Floor = append(next.Floor[:meldIdx], next.Floor[meldIdx+1:]...)
	}
	next.Floor = append(next.Floor, newMeld(next.env.newID(), []card.Card{dropped}))

	next.Turn.GrabbedThisTurn = true
	next.logf(fmt.Sprintf("%s grabbed from floor.", player.Name))
	return next, nil
}

// CanDraw reports whether ref may end their turn by drawing right now.
func (r *Room) CanDraw(ref string) bool {
	if _, err := r.requireTurn(ref); err != nil {
		return false
	}
	return !meld.HandHasAnyMeld(r.Players[r.TurnIndex].Hand)
}

// DrawAndEndTurn draws one card and passes the turn. It is refused while the
// player still holds a meld they could drop.
func (r *Room) DrawAndEndTurn(ref string) (*Room, error) {
	seat, err := r.requireTurn(ref)
	if err != nil {
		return nil, err
	}
	if meld.HandHasAnyMeld(r.Players[seat].Hand) {
		return nil, ErrMustDropExistingMeld
	}
	if len(r.Deck) == 0 {
		return nil, card.ErrDeckEmpty
	}

	next := r.clone()
	var drawn card.Card
	drawn, next.Deck, _ = card.Draw(next.Deck)
	player := &next.Players[seat]
	player.Hand = append(player.Hand, drawn)
	next.logf(fmt.Sprintf("%s drew 1 card.", player.Name))

	next.Turn = TurnState{}
	next.TurnIndex = (seat + 1) % len(next.Players)
	return next, nil
}

// ShowHand ends the game by comparing hand totals.
func (r *Room) ShowHand(ref string) (*Room, ShowOutcome, error) {
	seat, err := r.requireTurn(ref)
	if err != nil {
		return nil, ShowOutcome{}, err
	}

	next := r.clone()
	outcome := resolveShow(next.Players, seat)
	if err := next.phase.ChangeState(PhaseEnded); err != nil {
		return nil, ShowOutcome{}, err
	}
	if outcome.Result == OutcomeLose {
		next.logf(fmt.Sprintf("%s SHOWED (%d) and LOST to %s (%d).", outcome.Player, outcome.MyTotal, outcome.Opponent, outcome.OpponentTotal))
	} else {
		next.logf(fmt.Sprintf("%s SHOWED (%d) and WON!", outcome.Player, outcome.MyTotal))
	}
	return next, outcome, nil
}

// pick resolves ids against hand. It fails on unknown or repeated ids.
func pick(hand []card.Card, ids []string) ([]card.Card, bool) {
	seen := make(map[string]bool, len(ids))
	cards := make([]card.Card, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			return nil, false
		}
		seen[id] = true
		c, ok := find(hand, id)
		if !ok {
			return nil, false
		}
		cards = append(cards, c)
	}
	return cards, true
}

func find(cards []card.Card, id string) (card.Card, bool) {
	for _, c := range cards {
		if c.ID == id {
			return c, true
		}
	}
	return card.Card{}, false
}

// without returns cards minus the given ids in a new slice.
func without(cards []card.Card, ids ...string) []card.Card {
	out := make([]card.Card, 0, len(cards))
outer:
	for _, c := range cards {
		for _, id := range ids {
			if c.ID == id {
				continue outer
			}
		}
		out = append(out, c)
	}
	return out
}

package game

import (
	"errors"
	"testing"

	"github.com/wfunc/dhumbal/card"
	"github.com/wfunc/dhumbal/meld"
)

func c(id string, rank card.Rank, suit card.Suit) card.Card { return card.New(id, rank, suit) }

// withHands replaces the dealt hands, skipping nil ones. Card conservation
// does not hold afterwards.
func withHands(r *Room, hands ...[]card.Card) *Room {
	next := r.clone()
	for i, h := range hands {
		if h != nil {
			next.Players[i].Hand = h
		}
	}
	return next
}

func handIDs(p Player) []string { return card.IDs(p.Hand) }

func TestTurnGating(t *testing.T) {
	lobby := newLobby(t, "A", "B")
	if _, _, err := lobby.DropMeld("sA", []string{"x"}); !errors.Is(err, ErrGameNotStarted) {
		t.Errorf("Expected ErrGameNotStarted, got %v", err)
	}

	r := newPlaying(t, "A", "B")
	if _, err := r.DrawAndEndTurn("sB"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	if _, _, err := r.ShowHand("sB"); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("Expected ErrNotYourTurn, got %v", err)
	}
	if r.CanDraw("sB") {
		t.Errorf("Expected CanDraw false for the waiting player")
	}

	ended, _, _ := r.ShowHand("sA")
	if _, err := ended.DrawAndEndTurn("sB"); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded, got %v", err)
	}
	if _, err := ended.GrabFromFloor("sA", "m1", "c1", "c2"); !errors.Is(err, ErrGameEnded) {
		t.Errorf("Expected ErrGameEnded, got %v", err)
	}
}

func TestDropMeld(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B"),
		[]card.Card{c("h3", 3, card.Heart), c("h4", 4, card.Heart), c("h5", 5, card.Heart), c("s9", 9, card.Spade)},
	)

	next, res, err := r.DropMeld("sA", []string{"h5", "h3", "h4"})
	if err != nil {
		t.Fatalf("DropMeld failed: %v", err)
	}
	run, ok := res.(meld.RunResult)
	if !ok || run.Suit != card.Heart {
		t.Fatalf("Expected a heart run, got %#v", res)
	}
	if got := handIDs(next.Players[0]); len(got) != 1 || got[0] != "s9" {
		t.Errorf("Expected only s9 left in hand, got %v", got)
	}
	if len(next.Floor) != 1 {
		t.Fatalf("Expected one floor meld, got %d", len(next.Floor))
	}
	floor := next.Floor[0]
	if floor.ID != "m1" || floor.ContainsJoker {
		t.Errorf("Unexpected floor meld %+v", floor)
	}
	if got := card.IDs(floor.Cards); got[0] != "h3" || got[1] != "h4" || got[2] != "h5" {
		t.Errorf("Expected the run sorted for display, got %v", got)
	}
	if !next.Turn.DroppedThisTurn {
		t.Errorf("Expected DroppedThisTurn to be set")
	}
	if len(r.Players[0].Hand) != 4 || len(r.Floor) != 0 {
		t.Errorf("DropMeld modified the receiver")
	}
	if got := lastLog(next); got != "A dropped a meld." {
		t.Errorf("Expected log 'A dropped a meld.', got %q", got)
	}
}

func TestDropMeld_Errors(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B"),
		[]card.Card{c("h3", 3, card.Heart), c("h4", 4, card.Heart), c("s9", 9, card.Spade)},
	)

	tests := []struct {
		name string
		ids  []string
		want error
	}{
		{"unknown card", []string{"h3", "zz"}, ErrCardsNotInHand},
		{"repeated card", []string{"h3", "h3"}, ErrCardsNotInHand},
		{"not a meld", []string{"h3", "s9"}, meld.ErrInvalidMeld},
		{"empty", nil, meld.ErrInvalidMeld},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next, res, err := r.DropMeld("sA", tt.ids)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Expected %v, got %v", tt.want, err)
			}
			if next != nil || res != nil {
				t.Errorf("Expected nothing back on failure")
			}
		})
	}
}

func TestGrabFromFloor(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B"),
		[]card.Card{c("h3", 3, card.Heart), c("h4", 4, card.Heart), c("h5", 5, card.Heart), c("s9", 9, card.Spade), c("dk", card.King, card.Diamond)},
	)

	if _, err := r.GrabFromFloor("sA", "m1", "h5", "s9"); !errors.Is(err, ErrMustDropFirst) {
		t.Errorf("Expected ErrMustDropFirst, got %v", err)
	}

	r, _, err := r.DropMeld("sA", []string{"h3", "h4", "h5"})
	if err != nil {
		t.Fatalf("DropMeld failed: %v", err)
	}

	next, err := r.GrabFromFloor("sA", "m1", "h5", "s9")
	if err != nil {
		t.Fatalf("GrabFromFloor failed: %v", err)
	}
	hand := handIDs(next.Players[0])
	if len(hand) != 2 || hand[0] != "dk" || hand[1] != "h5" {
		t.Errorf("Expected hand [dk h5], got %v", hand)
	}
	if len(next.Floor) != 2 {
		t.Fatalf("Expected two floor melds, got %d", len(next.Floor))
	}
	if got := card.IDs(next.Floor[0].Cards); len(got) != 2 {
		t.Errorf("Expected the run to lose a card, got %v", got)
	}
	single := next.Floor[1]
	if single.ID != "m2" || len(single.Cards) != 1 || single.Cards[0].ID != "s9" {
		t.Errorf("Expected s9 as a new single meld, got %+v", single)
	}
	if !next.Turn.GrabbedThisTurn {
		t.Errorf("Expected GrabbedThisTurn to be set")
	}

	if _, err := next.GrabFromFloor("sA", "m2", "s9", "dk"); !errors.Is(err, ErrAlreadyGrabbed) {
		t.Errorf("Expected ErrAlreadyGrabbed, got %v", err)
	}
}

func TestGrabFromFloor_Errors(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B"),
		[]card.Card{c("h3", 3, card.Heart), card.Joker("j52"), c("s9", 9, card.Spade)},
	)
	r, _, err := r.DropMeld("sA", []string{"h3", "j52"})
	if err != nil {
		t.Fatalf("DropMeld failed: %v", err)
	}
	if !r.Floor[0].ContainsJoker {
		t.Errorf("Expected the floor meld to be marked as containing a joker")
	}

	tests := []struct {
		name   string
		meldID string
		grabID string
		dropID string
		want   error
	}{
		{"unknown meld", "nope", "h3", "s9", ErrMeldNotFound},
		{"card not in meld", "m1", "s9", "s9", ErrCardNotFound},
		{"joker", "m1", "j52", "s9", ErrCannotGrabJoker},
		{"drop card not held", "m1", "h3", "h3", ErrCardNotInHand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := r.GrabFromFloor("sA", tt.meldID, tt.grabID, tt.dropID); !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestGrabFromFloor_EmptiesMeld(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B"),
		[]card.Card{c("h3", 3, card.Heart), c("s3", 3, card.Spade), c("d9", 9, card.Diamond)},
		[]card.Card{c("h8", 8, card.Heart), c("s8", 8, card.Spade), c("c5", 5, card.Club)},
	)
	r, _, _ = r.DropMeld("sA", []string{"h3", "s3"})
	r, _ = r.GrabFromFloor("sA", "m1", "h3", "d9")
	r, err := r.DrawAndEndTurn("sA")
	if err != nil {
		t.Fatalf("DrawAndEndTurn failed: %v", err)
	}

	r, _, err = r.DropMeld("sB", []string{"h8", "s8"})
	if err != nil {
		t.Fatalf("DropMeld failed: %v", err)
	}
	// m2 holds only d9
	next, err := r.GrabFromFloor("sB", "m2", "d9", "c5")
	if err != nil {
		t.Fatalf("GrabFromFloor failed: %v", err)
	}
	for _, m := range next.Floor {
		if m.ID == "m2" {
			t.Errorf("Expected the emptied meld to be removed")
		}
	}
	if len(next.Floor) != 3 {
		t.Errorf("Expected floor m1, m3 and the new single, got %d melds", len(next.Floor))
	}
}

func TestDrawAndEndTurn(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B", "C"),
		[]card.Card{c("s9", 9, card.Spade), c("dk", card.King, card.Diamond)},
	)
	top := r.Deck[len(r.Deck)-1]

	if !r.CanDraw("sA") {
		t.Fatalf("Expected CanDraw for a hand with no meld")
	}
	next, err := r.DrawAndEndTurn("sA")
	if err != nil {
		t.Fatalf("DrawAndEndTurn failed: %v", err)
	}
	hand := next.Players[0].Hand
	if len(hand) != 3 || hand[2].ID != top.ID {
		t.Errorf("Expected %s drawn onto the hand, got %v", top.ID, card.IDs(hand))
	}
	if len(next.Deck) != len(r.Deck)-1 {
		t.Errorf("Expected deck to shrink by one")
	}
	if next.TurnIndex != 1 || next.Turn != (TurnState{}) {
		t.Errorf("Expected B's fresh turn, got index=%d turn=%+v", next.TurnIndex, next.Turn)
	}
	if got := lastLog(next); got != "A drew 1 card." {
		t.Errorf("Expected log 'A drew 1 card.', got %q", got)
	}

	// wraps around
	next.TurnIndex = 2
	wrapped, err := withHands(next, nil, nil, []card.Card{c("s2", 2, card.Spade)}).DrawAndEndTurn("sC")
	if err != nil {
		t.Fatalf("DrawAndEndTurn failed: %v", err)
	}
	if wrapped.TurnIndex != 0 {
		t.Errorf("Expected turn to wrap to 0, got %d", wrapped.TurnIndex)
	}
}

func TestDrawAndEndTurn_Errors(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B"),
		[]card.Card{c("s9", 9, card.Spade), c("h9", 9, card.Heart)},
	)
	if r.CanDraw("sA") {
		t.Errorf("Expected CanDraw false while holding a pair")
	}
	if _, err := r.DrawAndEndTurn("sA"); !errors.Is(err, ErrMustDropExistingMeld) {
		t.Errorf("Expected ErrMustDropExistingMeld, got %v", err)
	}

	empty := withHands(r, []card.Card{c("s9", 9, card.Spade)})
	empty.Deck = nil
	if _, err := empty.DrawAndEndTurn("sA"); !errors.Is(err, card.ErrDeckEmpty) {
		t.Errorf("Expected ErrDeckEmpty, got %v", err)
	}
}

// A full turn: 7 cards, drop a run, swap one card off the floor, then draw.
func TestFullTurn(t *testing.T) {
	start := newPlaying(t, "A", "B")
	r := withHands(start, []card.Card{
		c("h3", 3, card.Heart), c("h4", 4, card.Heart), c("h5", 5, card.Heart),
		c("s9", 9, card.Spade), c("dk", card.King, card.Diamond), c("c2", 2, card.Club), c("d7", 7, card.Diamond),
	})
	sizes := []int{len(r.Players[0].Hand)}

	r, _, err := r.DropMeld("sA", []string{"h3", "h4", "h5"})
	if err != nil {
		t.Fatalf("DropMeld failed: %v", err)
	}
	sizes = append(sizes, len(r.Players[0].Hand))

	r, err = r.GrabFromFloor("sA", r.Floor[0].ID, "h5", "s9")
	if err != nil {
		t.Fatalf("GrabFromFloor failed: %v", err)
	}
	sizes = append(sizes, len(r.Players[0].Hand))

	r, err = r.DrawAndEndTurn("sA")
	if err != nil {
		t.Fatalf("DrawAndEndTurn failed: %v", err)
	}
	sizes = append(sizes, len(r.Players[0].Hand))

	want := []int{7, 4, 4, 5}
	for i := range want {
		if sizes[i] != want[i] {
			t.Fatalf("Expected hand sizes %v, got %v", want, sizes)
		}
	}
	if r.TurnIndex != 1 {
		t.Errorf("Expected B to be up, got turn index %d", r.TurnIndex)
	}
	if r.Version != start.Version+4 {
		t.Errorf("Expected four version bumps, got %d", r.Version-start.Version)
	}
}

func TestCardConservation(t *testing.T) {
	r := newPlaying(t, "A", "B", "C")
	assertConserved(t, r)

	for i := 0; i < 12; i++ {
		p, _ := r.CurrentPlayer()
		if cards, _, ok := meld.FindMeld(p.Hand); ok {
			next, _, err := r.DropMeld(p.Ref, card.IDs(cards))
			if err != nil {
				t.Fatalf("DropMeld of a found meld failed: %v", err)
			}
			r = next
			assertConserved(t, r)
			continue
		}
		next, err := r.DrawAndEndTurn(p.Ref)
		if err != nil {
			t.Fatalf("DrawAndEndTurn failed: %v", err)
		}
		r = next
		assertConserved(t, r)
	}

	r, _ = r.RemovePlayer("sB")
	assertConserved(t, r)
}

func TestShowHand(t *testing.T) {
	base := newPlaying(t, "A", "B")

	t.Run("win", func(t *testing.T) {
		r := withHands(base,
			[]card.Card{c("s2", 2, card.Spade), c("h2", 2, card.Heart)},
			[]card.Card{c("s9", 9, card.Spade)},
		)
		ended, out, err := r.ShowHand("sA")
		if err != nil {
			t.Fatalf("ShowHand failed: %v", err)
		}
		if out.Result != OutcomeWin || out.MyTotal != 4 || out.Opponent != "" {
			t.Errorf("Expected a win with 4, got %+v", out)
		}
		if out.ShowerSeat != 0 || out.WinnerSeat != 0 {
			t.Errorf("Expected seat 0 to show and win, got %+v", out)
		}
		if ended.Phase() != PhaseEnded {
			t.Errorf("Expected phase ended, got %s", ended.Phase())
		}
		if got := lastLog(ended); got != "A SHOWED (4) and WON!" {
			t.Errorf("Unexpected log %q", got)
		}
	})

	t.Run("tie loses", func(t *testing.T) {
		r := withHands(base,
			[]card.Card{c("s6", 6, card.Spade)},
			[]card.Card{c("h4", 4, card.Heart), card.Joker("j52")},
		)
		ended, out, err := r.ShowHand("sA")
		if err != nil {
			t.Fatalf("ShowHand failed: %v", err)
		}
		if out.Result != OutcomeLose || out.Opponent != "B" || out.OpponentTotal != 6 {
			t.Errorf("Expected a loss to B with 6, got %+v", out)
		}
		if got := lastLog(ended); got != "A SHOWED (6) and LOST to B (6)." {
			t.Errorf("Unexpected log %q", got)
		}
		if _, _, err := ended.ShowHand("sA"); !errors.Is(err, ErrGameEnded) {
			t.Errorf("Expected ErrGameEnded on a second show, got %v", err)
		}
	})
}

func TestShowHand_FirstLowerOpponentWins(t *testing.T) {
	r := withHands(newPlaying(t, "A", "B", "C"),
		[]card.Card{c("s8", 8, card.Spade)},
		[]card.Card{c("s5", 5, card.Spade)},
		[]card.Card{c("sa", card.Ace, card.Spade)},
	)
	_, out, err := r.ShowHand("sA")
	if err != nil {
		t.Fatalf("ShowHand failed: %v", err)
	}
	if out.Opponent != "B" || out.OpponentTotal != 5 {
		t.Errorf("Expected the first qualifying opponent B, got %+v", out)
	}
	if out.WinnerSeat != 1 {
		t.Errorf("Expected winner seat 1, got %d", out.WinnerSeat)
	}
}

func TestRemovePlayer(t *testing.T) {
	t.Run("unknown", func(t *testing.T) {
		r := newLobby(t, "A")
		next, ok := r.RemovePlayer("nobody")
		if ok || next != r {
			t.Errorf("Expected no change for an unknown ref")
		}
	})

	t.Run("lobby", func(t *testing.T) {
		r, ok := newLobby(t, "A", "B").RemovePlayer("sA")
		if !ok || len(r.Players) != 1 || r.Players[0].Name != "B" {
			t.Fatalf("Expected only B left, got %+v", r.Players)
		}
		if got := lastLog(r); got != "A left." {
			t.Errorf("Expected log 'A left.', got %q", got)
		}
	})

	t.Run("seat before turn", func(t *testing.T) {
		r := newPlaying(t, "A", "B", "C")
		r.TurnIndex = 2
		next, _ := r.RemovePlayer("sA")
		if cur, _ := next.CurrentPlayer(); cur.Name != "C" {
			t.Errorf("Expected C to keep the turn, got %s", cur.Name)
		}
		if len(next.Deck) != len(r.Deck)+7 {
			t.Errorf("Expected A's hand returned to the deck")
		}
		if next.Deck[0].ID != r.Players[0].Hand[0].ID {
			t.Errorf("Expected returned cards at the bottom of the deck")
		}
	})

	t.Run("current player last seat", func(t *testing.T) {
		r := newPlaying(t, "A", "B", "C")
		r.TurnIndex = 2
		r.Turn = TurnState{DroppedThisTurn: true}
		next, _ := r.RemovePlayer("sC")
		if next.TurnIndex != 0 {
			t.Errorf("Expected turn to wrap to 0, got %d", next.TurnIndex)
		}
		if next.Turn != (TurnState{}) {
			t.Errorf("Expected turn state reset, got %+v", next.Turn)
		}
		if next.Phase() != PhasePlaying {
			t.Errorf("Expected the game to keep going, got %s", next.Phase())
		}
	})

	t.Run("everyone leaves", func(t *testing.T) {
		r := newPlaying(t, "A", "B")
		r, _ = r.RemovePlayer("sA")
		r, _ = r.RemovePlayer("sB")
		if len(r.Players) != 0 || r.TurnIndex != 0 {
			t.Errorf("Expected an empty room, got %+v", r.Players)
		}
		if len(r.Deck) != card.Size {
			t.Errorf("Expected every card back in the deck, got %d", len(r.Deck))
		}
	})
}

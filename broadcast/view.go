package broadcast

import (
	"github.com/wfunc/dhumbal/card"
	"github.com/wfunc/dhumbal/game"
	"github.com/wfunc/dhumbal/meld"
)

// View is what one player is allowed to see of a room.
type View struct {
	RoomCode          string          `json:"roomCode"`
	Phase             game.Phase      `json:"phase"`
	HandSize          int             `json:"handSize"`
	TurnIndex         int             `json:"turnIndex"`
	CurrentPlayerName string          `json:"currentPlayerName,omitempty"`
	YouAreCurrent     bool            `json:"youAreCurrent"`
	Players           []PlayerView    `json:"players"`
	YourHand          []card.Card     `json:"yourHand"`
	Floor             []game.Meld     `json:"floor"`
	CanDraw           bool            `json:"canDraw"`
	Hint              []string        `json:"hint,omitempty"`
	Log               []game.LogEntry `json:"log"`
	Version           uint64          `json:"version"`
}

type PlayerView struct {
	Name      string `json:"name"`
	HandCount int    `json:"handCount"`
	IsTurn    bool   `json:"isTurn"`
}

// Project builds viewer's view of r. Other players' cards are only counted.
func Project(r *game.Room, viewer string) View {
	v := View{
		RoomCode:  r.Code,
		Phase:     r.Phase(),
		HandSize:  r.HandSize,
		TurnIndex: r.TurnIndex,
		Players:   make([]PlayerView, 0, len(r.Players)),
		YourHand:  []card.Card{},
		Floor:     r.Floor,
		Log:       r.Log,
		Version:   r.Version,
	}
	if v.Floor == nil {
		v.Floor = []game.Meld{}
	}

	current, hasCurrent := r.CurrentPlayer()
	if hasCurrent {
		v.CurrentPlayerName = current.Name
		v.YouAreCurrent = current.Ref == viewer
	}
	for i, p := range r.Players {
		v.Players = append(v.Players, PlayerView{
			Name:      p.Name,
			HandCount: len(p.Hand),
			IsTurn:    hasCurrent && i == r.TurnIndex,
		})
	}
	if me, ok := r.PlayerByRef(viewer); ok && me.Hand != nil {
		v.YourHand = me.Hand
	}

	if r.Phase() == game.PhasePlaying {
		v.CanDraw = r.CanDraw(viewer)
		if v.YouAreCurrent {
			if cards, _, ok := meld.FindMeld(v.YourHand); ok {
				v.Hint = card.IDs(cards)
			}
		}
	}
	return v
}

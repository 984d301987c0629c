package main

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
	"github.com/wfunc/dhumbal/broadcast"
	"github.com/wfunc/dhumbal/card"
	"github.com/wfunc/dhumbal/game"
)

var suitSymbols = map[card.Suit]string{
	card.Spade:   "♠",
	card.Heart:   "♥",
	card.Diamond: "♦",
	card.Club:    "♣",
}

// cardLabel prints a card with its id, red suits in red.
func cardLabel(c card.Card) string {
	if c.IsJoker {
		return pterm.LightMagenta("JOKER") + pterm.Gray("("+c.ID+")")
	}
	face := c.Rank.String() + suitSymbols[c.Suit]
	if c.Suit == card.Heart || c.Suit == card.Diamond {
		face = pterm.LightRed(face)
	}
	return face + pterm.Gray("("+c.ID+")")
}

func cardLabels(cards []card.Card) string {
	labels := make([]string, 0, len(cards))
	for _, c := range cards {
		labels = append(labels, cardLabel(c))
	}
	return strings.Join(labels, " ")
}

func renderState(v broadcast.View) {
	pterm.DefaultSection.Printfln("Room %s  |  %s  |  v%d", v.RoomCode, v.Phase, v.Version)

	rows := [][]string{{"Player", "Cards", ""}}
	for _, p := range v.Players {
		turn := ""
		if p.IsTurn && v.Phase == game.PhasePlaying {
			turn = pterm.LightGreen("◀ turn")
		}
		rows = append(rows, []string{p.Name, fmt.Sprint(p.HandCount), turn})
	}
	pterm.DefaultTable.WithHasHeader().WithData(rows).Render()

	if len(v.Floor) > 0 {
		items := make([]pterm.BulletListItem, 0, len(v.Floor))
		for _, m := range v.Floor {
			items = append(items, pterm.BulletListItem{Level: 0, Text: pterm.Cyan(m.ID) + "  " + cardLabels(m.Cards)})
		}
		pterm.Println(pterm.Bold.Sprint("Floor"))
		pterm.DefaultBulletList.WithItems(items).Render()
	}

	if v.Phase != game.PhaseLobby {
		pterm.Println(pterm.Bold.Sprint("Your hand: ") + cardLabels(v.YourHand))
	}

	switch {
	case v.Phase != game.PhasePlaying:
	case v.YouAreCurrent && len(v.Hint) > 0:
		pterm.Info.Printfln("Your turn. You hold a meld: drop %s", strings.Join(v.Hint, " "))
	case v.YouAreCurrent:
		pterm.Info.Println("Your turn. No meld left: draw or show.")
	default:
		pterm.Info.Printfln("Waiting for %s.", v.CurrentPlayerName)
	}

	if n := len(v.Log); n > 0 {
		from := n - 5
		if from < 0 {
			from = 0
		}
		for _, e := range v.Log[from:] {
			pterm.Println(pterm.Gray(e.At.Format("15:04:05") + " " + e.Msg))
		}
	}
}

func renderShowResult(out game.ShowOutcome) {
	box := pterm.DefaultBox.WithLeftPadding(4).WithRightPadding(4).WithTopPadding(1).WithBottomPadding(1)
	if out.Result == game.OutcomeWin {
		box.WithTitle(pterm.LightGreen("|SHOW|")).WithTitleTopCenter().Println(
			fmt.Sprintf("%s showed %d and won", out.Player, out.MyTotal))
		return
	}
	box.WithTitle(pterm.LightRed("|SHOW|")).WithTitleTopCenter().Println(
		fmt.Sprintf("%s showed %d and lost to %s (%d)", out.Player, out.MyTotal, out.Opponent, out.OpponentTotal))
}

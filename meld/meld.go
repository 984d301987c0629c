// meld/meld.go
package meld

import (
	"errors"
	"sort"

	"github.com/wfunc/dhumbal/card"
)

// Kind distinguishes the two meld shapes.
type Kind int

const (
	KindSet Kind = iota + 1
	KindRun
)

func (k Kind) String() string {
	switch k {
	case KindSet:
		return "set"
	case KindRun:
		return "run"
	default:
		return "unknown"
	}
}

// Pattern describes how a run's ranks line up.
type Pattern string

const (
	PatternNormal Pattern = "normal"
	PatternQKA    Pattern = "QKA"
)

// Result is the outcome of a successful validation. It is either a SetResult
// or a RunResult.
type Result interface {
	Kind() Kind
}

// SetResult 同点数组合
type SetResult struct {
	Rank card.Rank `json:"rank"`
}

func (SetResult) Kind() Kind { return KindSet }

// RunResult 同花顺子. JokerRanks lists the ranks the jokers stand in for, ascending.
type RunResult struct {
	Suit       card.Suit   `json:"suit"`
	Pattern    Pattern     `json:"pattern"`
	JokerRanks []card.Rank `json:"jokerRanks,omitempty"`
}

func (RunResult) Kind() Kind { return KindRun }

// ErrInvalidMeld is matched by every InvalidMeldError.
var ErrInvalidMeld = errors.New("invalid meld")

// InvalidMeldError carries the rejection reason shown to the player.
type InvalidMeldError struct {
	Reason string
}

func (e *InvalidMeldError) Error() string {
	return "invalid meld: " + e.Reason
}

func (e *InvalidMeldError) Unwrap() error {
	return ErrInvalidMeld
}

func invalid(reason string) error {
	return &InvalidMeldError{Reason: reason}
}

const (
	ReasonSetSize      = "set size must be 2-4"
	ReasonSetAllJokers = "set cannot be all jokers"
	ReasonSetRanks     = "set ranks mismatch"
	ReasonSetSuits     = "set suit rule violated"
	ReasonRunSize      = "run size must be 3-7"
	ReasonRunAllJokers = "run cannot be all jokers"
	ReasonRunSuit      = "run must be same suit"
	ReasonRunDuplicate = "duplicate rank in run"
	ReasonRunGap       = "run not consecutive"
	ReasonRunJokers    = "jokers cannot form a valid run"
	ReasonRunAceHigh   = "ace-high run must be exactly Q-K-A"
)

const (
	minSet, maxSet = 2, 4
	minRun, maxRun = 3, 7
)

// MaxSize is the largest meld of either kind.
const MaxSize = maxRun

func split(cards []card.Card) (naturals []card.Card, jokers int) {
	for _, c := range cards {
		if c.IsJoker {
			jokers++
			continue
		}
		naturals = append(naturals, c)
	}
	return naturals, jokers
}

// ValidateSet checks a same-rank group. Jokers fill any slot and are ignored by
// the suit rule.
func ValidateSet(cards []card.Card) (SetResult, error) {
	if len(cards) < minSet || len(cards) > maxSet {
		return SetResult{}, invalid(ReasonSetSize)
	}
	naturals, _ := split(cards)
	if len(naturals) == 0 {
		return SetResult{}, invalid(ReasonSetAllJokers)
	}

	rank := naturals[0].Rank
	suits := make(map[card.Suit]struct{}, len(naturals))
	for _, c := range naturals {
		if c.Rank != rank {
			return SetResult{}, invalid(ReasonSetRanks)
		}
		suits[c.Suit] = struct{}{}
	}

	allSame := len(suits) == 1
	allDifferent := len(suits) == len(naturals)
	if !allSame && !allDifferent {
		return SetResult{}, invalid(ReasonSetSuits)
	}
	return SetResult{Rank: rank}, nil
}

// ValidateRun checks a same-suit sequence. Ace is low except in the 3-card
// Q-K-A pattern.
func ValidateRun(cards []card.Card) (RunResult, error) {
	n := len(cards)
	if n < minRun || n > maxRun {
		return RunResult{}, invalid(ReasonRunSize)
	}
	naturals, jokers := split(cards)
	if len(naturals) == 0 {
		return RunResult{}, invalid(ReasonRunAllJokers)
	}

	suit := naturals[0].Suit
	present := make(map[card.Rank]bool, len(naturals))
	for _, c := range naturals {
		if c.Suit != suit {
			return RunResult{}, invalid(ReasonRunSuit)
		}
		if present[c.Rank] {
			return RunResult{}, invalid(ReasonRunDuplicate)
		}
		present[c.Rank] = true
	}

	if res, ok := qka(suit, present, n, jokers); ok {
		return res, nil
	}

	for start := 1; start <= 14-n; start++ {
		var missing []card.Rank
		for r := card.Rank(start); r < card.Rank(start+n); r++ {
			if !present[r] {
				missing = append(missing, r)
			}
		}
		if len(missing) == jokers {
			return RunResult{Suit: suit, Pattern: PatternNormal, JokerRanks: missing}, nil
		}
	}

	switch {
	case present[card.Ace] && (present[card.King] || present[card.Queen]):
		return RunResult{}, invalid(ReasonRunAceHigh)
	case jokers == 0:
		return RunResult{}, invalid(ReasonRunGap)
	default:
		return RunResult{}, invalid(ReasonRunJokers)
	}
}

// qka matches Q-K-A, and Q-?-A or ?-K-A with a single joker. A joker never
// turns Q-K into Q-K-A because J-Q-K is found by the normal window scan.
func qka(suit card.Suit, present map[card.Rank]bool, n, jokers int) (RunResult, bool) {
	if n != 3 || jokers > 1 || !present[card.Ace] {
		return RunResult{}, false
	}
	for r := range present {
		if r != card.Ace && r != card.Queen && r != card.King {
			return RunResult{}, false
		}
	}
	if jokers == 0 {
		return RunResult{Suit: suit, Pattern: PatternQKA}, true
	}

	var missing []card.Rank
	for _, r := range []card.Rank{card.Queen, card.King} {
		if !present[r] {
			missing = append(missing, r)
		}
	}
	if len(missing) != 1 {
		return RunResult{}, false
	}
	return RunResult{Suit: suit, Pattern: PatternQKA, JokerRanks: missing}, true
}

// Validate tries a run first and then a set.
func Validate(cards []card.Card) (Result, error) {
	run, runErr := ValidateRun(cards)
	if runErr == nil {
		return run, nil
	}
	set, setErr := ValidateSet(cards)
	if setErr == nil {
		return set, nil
	}
	if preferSetReason(cards) {
		return nil, setErr
	}
	return nil, runErr
}

// preferSetReason reports whether the group looks more like an attempted set
// than an attempted run.
func preferSetReason(cards []card.Card) bool {
	n := len(cards)
	if n < minRun {
		return true
	}
	if n > maxSet {
		return false
	}
	naturals, _ := split(cards)
	if len(naturals) == 0 {
		return false
	}
	for _, c := range naturals[1:] {
		if c.Rank != naturals[0].Rank {
			return false
		}
	}
	return true
}

// SortForDisplay orders a meld's cards by the rank each one represents.
func SortForDisplay(cards []card.Card, res Result) []card.Card {
	out := append([]card.Card(nil), cards...)
	run, ok := res.(RunResult)
	if !ok {
		return out
	}

	value := func(r card.Rank) int {
		if run.Pattern == PatternQKA && r == card.Ace {
			return 14
		}
		return int(r)
	}
	jokerSlots := append([]card.Rank(nil), run.JokerRanks...)
	keys := make(map[string]int, len(out))
	for _, c := range out {
		if c.IsJoker {
			if len(jokerSlots) > 0 {
				keys[c.ID] = value(jokerSlots[0])
				jokerSlots = jokerSlots[1:]
			}
			continue
		}
		keys[c.ID] = value(c.Rank)
	}
	sort.SliceStable(out, func(i, j int) bool {
		return keys[out[i].ID] < keys[out[j].ID]
	})
	return out
}

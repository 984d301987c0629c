// game/room.go
package game

import (
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/wfunc/dhumbal/card"
	"github.com/wfunc/dhumbal/state"
)

// Phase 房间阶段
type Phase string

const (
	PhaseLobby   Phase = "lobby"
	PhasePlaying Phase = "playing"
	PhaseEnded   Phase = "ended"
)

// phases only ever move forward.
var phases = state.NewTable[Phase]().
	AddTransition(PhaseLobby, PhasePlaying).
	AddTransition(PhasePlaying, PhaseEnded)

const (
	// LogCap is the number of log entries a room keeps.
	LogCap = 40
	// DefaultHandSize is used by callers that let players omit the hand size.
	DefaultHandSize = 7
	minPlayers      = 2
)

// TurnState 当前回合状态, reset at the start of every turn.
type TurnState struct {
	DroppedThisTurn bool `json:"droppedThisTurn"`
	GrabbedThisTurn bool `json:"grabbedThisTurn"`
}

// Player 玩家. Ref is the opaque session reference supplied by the caller.
type Player struct {
	Ref  string      `json:"-"`
	Name string      `json:"name"`
	Hand []card.Card `json:"hand"`
}

// Meld is a group of cards on the floor.
type Meld struct {
	ID            string      `json:"meldId"`
	Cards         []card.Card `json:"cards"`
	ContainsJoker bool        `json:"containsJoker"`
}

func newMeld(id string, cards []card.Card) Meld {
	m := Meld{ID: id, Cards: cards}
	for _, c := range cards {
		if c.IsJoker {
			m.ContainsJoker = true
			break
		}
	}
	return m
}

type LogEntry struct {
	At  time.Time `json:"t"`
	Msg string    `json:"msg"`
}

type env struct {
	rng   *rand.Rand
	newID func() string
	now   func() time.Time
}

// Option configures a new room.
type Option func(*Room)

// WithRand sets the source used to shuffle the deck.
func WithRand(rng *rand.Rand) Option {
	return func(r *Room) { r.env.rng = rng }
}

// WithIDGenerator sets the generator for floor meld ids.
func WithIDGenerator(fn func() string) Option {
	return func(r *Room) { r.env.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(r *Room) { r.env.now = fn }
}

// WithMaxPlayers caps the number of seats. Zero means no cap.
func WithMaxPlayers(n int) Option {
	return func(r *Room) { r.MaxPlayers = n }
}

// Room 是一局游戏的完整状态.
//
// A Room is treated as an immutable snapshot: every operation that changes the
// game returns a new Room with Version incremented and leaves the receiver
// untouched. Failed operations return a nil Room and change nothing.
type Room struct {
	Code       string      `json:"roomCode"`
	HandSize   int         `json:"handSize"`
	MaxPlayers int         `json:"maxPlayers"`
	Players    []Player    `json:"players"`
	TurnIndex  int         `json:"turnIndex"`
	Deck       []card.Card `json:"-"`
	Floor      []Meld      `json:"floor"`
	Turn       TurnState   `json:"turn"`
	Log        []LogEntry  `json:"log"`
	Version    uint64      `json:"version"`

	phase state.Machine[Phase]
	env   *env
}

// NewRoom creates an empty room in the lobby.
func NewRoom(code string, handSize int, opts ...Option) (*Room, error) {
	if handSize < 1 {
		return nil, ErrInvalidHandSize
	}
	r := &Room{
		Code:     code,
		HandSize: handSize,
		phase:    state.NewMachine(phases, PhaseLobby),
		env: &env{
			rng:   rand.New(rand.NewSource(time.Now().UnixNano())),
			newID: uuid.NewString,
			now:   time.Now,
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

func (r *Room) Phase() Phase {
	return r.phase.Current()
}

// CurrentPlayer returns the player whose turn it is.
func (r *Room) CurrentPlayer() (Player, bool) {
	if r.TurnIndex < 0 || r.TurnIndex >= len(r.Players) {
		return Player{}, false
	}
	return r.Players[r.TurnIndex], true
}

// PlayerByRef finds a player by session reference.
func (r *Room) PlayerByRef(ref string) (Player, bool) {
	if i := r.seatOf(ref); i >= 0 {
		return r.Players[i], true
	}
	return Player{}, false
}

func (r *Room) seatOf(ref string) int {
	for i, p := range r.Players {
		if p.Ref == ref {
			return i
		}
	}
	return -1
}

// clone deep-copies everything an operation may modify.
func (r *Room) clone() *Room {
	next := *r
	next.Players = make([]Player, len(r.Players))
	for i, p := range r.Players {
		p.Hand = append([]card.Card(nil), p.Hand...)
		next.Players[i] = p
	}
	next.Deck = append([]card.Card(nil), r.Deck...)
	next.Floor = make([]Meld, len(r.Floor))
	for i, m := range r.Floor {
		m.Cards = append([]card.Card(nil), m.Cards...)
		next.Floor[i] = m
	}
	next.Log = append([]LogEntry(nil), r.Log...)
	next.Version++
	return &next
}

func (r *Room) logf(msg string) {
	r.Log = append(r.Log, LogEntry{At: r.env.now(), Msg: msg})
	if over := len(r.Log) - LogCap; over > 0 {
		r.Log = append([]LogEntry(nil), r.Log[over:]...)
	}
}

// requireTurn checks that the game is running and that ref holds the turn.
func (r *Room) requireTurn(ref string) (int, error) {
	switch r.Phase() {
	case PhaseLobby:
		return -1, ErrGameNotStarted
	case PhaseEnded:
		return -1, ErrGameEnded
	}
	current, ok := r.CurrentPlayer()
	if !ok || current.Ref != ref {
		return -1, ErrNotYourTurn
	}
	return r.TurnIndex, nil
}

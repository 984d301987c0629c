package game

import "errors"

// 错误定义. Messages are shown verbatim to the acting player.
var (
	ErrGameAlreadyStarted   = errors.New("game already started")
	ErrInsufficientPlayers  = errors.New("need at least 2 players")
	ErrGameNotStarted       = errors.New("game has not started")
	ErrGameEnded            = errors.New("game has ended")
	ErrNotYourTurn          = errors.New("not your turn")
	ErrCardsNotInHand       = errors.New("one or more cards not in hand")
	ErrCardNotInHand        = errors.New("drop card not in hand")
	ErrMustDropFirst        = errors.New("must drop before grabbing")
	ErrAlreadyGrabbed       = errors.New("already grabbed this turn")
	ErrMeldNotFound         = errors.New("meld not found")
	ErrCardNotFound         = errors.New("card not found")
	ErrCannotGrabJoker      = errors.New("cannot grab joker")
	ErrMustDropExistingMeld = errors.New("you still have a legal meld; must drop it first")
	ErrRoomFull             = errors.New("room is full")
	ErrInvalidHandSize      = errors.New("hand size must be at least 1")
)

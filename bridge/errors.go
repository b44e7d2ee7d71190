package bridge

import "errors"

var (
	ErrNotYourTurn     = errors.New("not your turn")
	ErrIllegalCard     = errors.New("card not in hand")
	ErrMustFollowSuit  = errors.New("must follow suit")
	ErrInvalidBid      = errors.New("invalid bid")
	ErrWrongPhase      = errors.New("action not permitted in current phase")
	ErrGameComplete    = errors.New("game already complete")
	ErrUnknownPlayer   = errors.New("player not seated in this game")
)

// InvalidStateError signals an engine invariant violation — a bug, not a
// player mistake — and is never expected in normal play.
type InvalidStateError string

func (e InvalidStateError) Error() string { return "bridge: invalid state: " + string(e) }

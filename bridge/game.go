package bridge

import (
	"sync"

	"german-bridge/card"
)

// TrickCompleted reports a resolved trick for the caller to broadcast.
type TrickCompleted struct {
	Winner PlayerID
}

// RoundCompleted reports a finished round's scoring.
type RoundCompleted struct {
	Result      RoundResult
	NextStarter PlayerID // who may call StartNextRound
}

// GameCompleted reports the terminal state.
type GameCompleted struct {
	FinalScores map[PlayerID]int
}

// ActionResult is everything a caller needs to turn one accepted action
// into outbound protocol events: which sub-events fired, and who the new
// current player is (empty once the game is complete).
type ActionResult struct {
	TrickCompleted *TrickCompleted
	RoundCompleted *RoundCompleted
	GameCompleted  *GameCompleted
	NextPlayer     PlayerID
}

// Game is the mutex-guarded state machine for one German Bridge game. All
// mutating operations take the lock, validate against the current phase,
// and either mutate state and return, or leave state untouched and return
// an error. There is no partial-application path.
type Game struct {
	mu sync.Mutex

	id       string
	seating  []PlayerID // immutable for the life of the game
	settings Settings

	roundNumber int
	phase       Phase
	current     *round

	currentPlayer PlayerID
	totalScores   map[PlayerID]int
	history       []RoundResult
}

// NewGame seats players in the given order, deals round 1, and leaves the
// game in Bidding with current_player = first bidder.
func NewGame(id string, seating []PlayerID, settings Settings) (*Game, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	if len(seating) != settings.MaxPlayers() {
		return nil, InvalidStateError("seating length must equal settings.player_count")
	}
	g := &Game{
		id:          id,
		seating:     append([]PlayerID(nil), seating...),
		settings:    settings,
		roundNumber: 1,
		totalScores: make(map[PlayerID]int, len(seating)),
	}
	for _, pid := range seating {
		g.totalScores[pid] = 0
	}
	g.current = g.startRound(1, 0)
	g.phase = PhaseBidding
	g.currentPlayer, _ = g.current.nextBidder()
	return g, nil
}

func (g *Game) seatIndex(pid PlayerID) int {
	for i, s := range g.seating {
		if s == pid {
			return i
		}
	}
	return -1
}

func (g *Game) isSeated(pid PlayerID) bool {
	return g.seatIndex(pid) >= 0
}

// SubmitBid records pid's bid. Returns the updated ActionResult; on the
// final bid it transitions the game into Playing.
func (g *Game) SubmitBid(pid PlayerID, n int) (ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isSeated(pid) {
		return ActionResult{}, ErrUnknownPlayer
	}
	if g.phase == PhaseGameComplete {
		return ActionResult{}, ErrGameComplete
	}
	if g.phase != PhaseBidding {
		return ActionResult{}, ErrWrongPhase
	}
	if g.currentPlayer != pid {
		return ActionResult{}, ErrNotYourTurn
	}
	if !legalBidContains(g.current.legalBids(pid), n) {
		return ActionResult{}, ErrInvalidBid
	}

	g.current.bids[pid] = n
	g.current.bidCount++

	if next, ok := g.current.nextBidder(); ok {
		g.currentPlayer = next
		return ActionResult{NextPlayer: g.currentPlayer}, nil
	}

	g.phase = PhasePlaying
	g.currentPlayer = g.current.firstBidderID()
	return ActionResult{NextPlayer: g.currentPlayer}, nil
}

// PlayCard plays a card from pid's hand. It resolves tricks, rounds, and
// game completion inline, returning whichever of those fired.
func (g *Game) PlayCard(pid PlayerID, c card.Card) (ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isSeated(pid) {
		return ActionResult{}, ErrUnknownPlayer
	}
	if g.phase == PhaseGameComplete {
		return ActionResult{}, ErrGameComplete
	}
	if g.phase != PhasePlaying {
		return ActionResult{}, ErrWrongPhase
	}
	if g.currentPlayer != pid {
		return ActionResult{}, ErrNotYourTurn
	}

	hand := g.current.hands[pid]
	if !containsCard(hand, c) {
		return ActionResult{}, ErrIllegalCard
	}
	legal := g.current.legalCardsForHand(hand)
	if !containsCard(legal, c) {
		if g.current.leadSuit != nil && c.Suit != *g.current.leadSuit && handHasSuit(hand, *g.current.leadSuit) {
			return ActionResult{}, ErrMustFollowSuit
		}
		return ActionResult{}, ErrIllegalCard
	}

	newHand, ok := removeCard(hand, c)
	if !ok {
		return ActionResult{}, ErrIllegalCard
	}
	g.current.hands[pid] = newHand

	if g.current.leadSuit == nil {
		lead := c.Suit
		g.current.leadSuit = &lead
	}
	g.current.currentTrick = append(g.current.currentTrick, card.Play[PlayerID]{Player: pid, Card: c})

	if len(g.current.currentTrick) < len(g.seating) {
		g.currentPlayer = g.nextSeat(pid)
		return ActionResult{NextPlayer: g.currentPlayer}, nil
	}

	winner := card.TrickWinner(g.current.currentTrick, *g.current.leadSuit, g.current.trumpSuit)
	g.current.tricksWon[winner]++
	g.current.currentTrick = g.current.currentTrick[:0]
	g.current.leadSuit = nil
	g.current.tricksPlayed++
	g.currentPlayer = winner

	result := ActionResult{
		TrickCompleted: &TrickCompleted{Winner: winner},
		NextPlayer:     winner,
	}

	if g.current.tricksPlayed < g.current.k {
		return result, nil
	}

	roundResult := g.scoreRound()
	g.history = append(g.history, roundResult)
	for pid, delta := range roundResult.ScoreDeltas {
		g.totalScores[pid] += delta
	}
	result.RoundCompleted = &RoundCompleted{Result: roundResult, NextStarter: winner}
	g.phase = PhaseRoundComplete
	g.currentPlayer = winner

	nextK := g.current.k + 1
	if nextK*len(g.seating) > 52 {
		g.phase = PhaseGameComplete
		g.currentPlayer = ""
		result.GameCompleted = &GameCompleted{FinalScores: copyScores(g.totalScores)}
		result.NextPlayer = ""
	}

	return result, nil
}

// StartNextRound advances from RoundComplete to a fresh Bidding phase. Only
// the winner of the prior round's last trick may call it.
func (g *Game) StartNextRound(pid PlayerID) (ActionResult, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !g.isSeated(pid) {
		return ActionResult{}, ErrUnknownPlayer
	}
	if g.phase == PhaseGameComplete {
		return ActionResult{}, ErrGameComplete
	}
	if g.phase != PhaseRoundComplete {
		return ActionResult{}, ErrWrongPhase
	}
	if g.currentPlayer != pid {
		return ActionResult{}, ErrNotYourTurn
	}

	nextDealer := (g.current.dealerIndex + 1) % len(g.seating)
	g.roundNumber++
	g.current = g.startRound(g.current.k+1, nextDealer)
	g.phase = PhaseBidding
	g.currentPlayer, _ = g.current.nextBidder()
	return ActionResult{NextPlayer: g.currentPlayer}, nil
}

// DefaultBid reports the turn scheduler's fallback bid for pid, for use
// when a bidding deadline fires. Callers still submit it via SubmitBid.
func (g *Game) DefaultBid(pid PlayerID) (int, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhaseBidding || g.currentPlayer != pid {
		return 0, ErrWrongPhase
	}
	return g.current.defaultBid(pid), nil
}

// DefaultCard reports the turn scheduler's fallback card for pid, for use
// when a play deadline fires. Callers still submit it via PlayCard.
func (g *Game) DefaultCard(pid PlayerID) (card.Card, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.phase != PhasePlaying || g.currentPlayer != pid {
		return card.Card{}, ErrWrongPhase
	}
	return g.current.defaultCard(g.current.hands[pid]), nil
}

// CurrentPlayer reports who the engine expects to act next, or "" once the
// game is complete.
func (g *Game) CurrentPlayer() PlayerID {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.currentPlayer
}

// Phase reports the game's top-level state.
func (g *Game) Phase() Phase {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.phase
}

func (g *Game) nextSeat(pid PlayerID) PlayerID {
	i := g.seatIndex(pid)
	return g.seating[(i+1)%len(g.seating)]
}

func (g *Game) scoreRound() RoundResult {
	r := RoundResult{
		RoundNumber: g.roundNumber,
		Bids:        copyScores(g.current.bids),
		TricksWon:   copyScores(g.current.tricksWon),
		ScoreDeltas: make(map[PlayerID]int, len(g.seating)),
	}
	for _, pid := range g.seating {
		r.ScoreDeltas[pid] = card.ScoreRound(g.current.bids[pid], g.current.tricksWon[pid])
	}
	return r
}

func copyScores(m map[PlayerID]int) map[PlayerID]int {
	out := make(map[PlayerID]int, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func legalBidContains(legal []int, n int) bool {
	for _, v := range legal {
		if v == n {
			return true
		}
	}
	return false
}

func containsCard(cards []card.Card, c card.Card) bool {
	for _, v := range cards {
		if v == c {
			return true
		}
	}
	return false
}

func handHasSuit(hand []card.Card, s card.Suit) bool {
	for _, c := range hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

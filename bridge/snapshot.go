package bridge

import "german-bridge/card"

// BidSpec is the payload of a Bid valid-action / client bid message.
type BidSpec struct {
	Tricks int `json:"tricks"`
}

// ValidAction is a tagged union: exactly one field is set, matching the
// wire shape `{"PlayCard": card}` or `{"Bid": {"tricks": n}}`.
type ValidAction struct {
	Bid      *BidSpec   `json:"Bid,omitempty"`
	PlayCard *card.Card `json:"PlayCard,omitempty"`
}

// TrickEntry is one (player, card) pair in the wire current_trick array.
type TrickEntry struct {
	Player PlayerID  `json:"player_id"`
	Card   card.Card `json:"card"`
}

// State is the GameState.state wire payload from one player's point of
// view: YourHand is populated only when State is built for its owner.
type State struct {
	GameID        string            `json:"game_id"`
	Phase         Phase             `json:"phase"`
	YourHand      []card.Card       `json:"your_hand"`
	CurrentTrick  []TrickEntry      `json:"current_trick"`
	Scores        map[PlayerID]int  `json:"scores"`
	History       []RoundResult     `json:"history"`
	RoundNumber   int               `json:"round_number"`
	TrumpSuit     *card.Suit        `json:"trump_suit"`
	CurrentPlayer PlayerID          `json:"current_player"`
	YourTurn      bool              `json:"your_turn"`
}

// StateFor builds the GameState.state payload as seen by viewer. An unknown
// viewer still gets a spectator-free view with an empty hand.
func (g *Game) StateFor(viewer PlayerID) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	trick := make([]TrickEntry, 0, len(g.current.currentTrick))
	for _, p := range g.current.currentTrick {
		trick = append(trick, TrickEntry{Player: p.Player, Card: p.Card})
	}

	var hand []card.Card
	if h, ok := g.current.hands[viewer]; ok {
		hand = append([]card.Card(nil), h...)
	}

	return State{
		GameID:        g.id,
		Phase:         g.phase,
		YourHand:      hand,
		CurrentTrick:  trick,
		Scores:        copyScores(g.totalScores),
		History:       append([]RoundResult(nil), g.history...),
		RoundNumber:   g.roundNumber,
		TrumpSuit:     g.current.trumpSuit,
		CurrentPlayer: g.currentPlayer,
		YourTurn:      viewer != "" && viewer == g.currentPlayer,
	}
}

// ValidActions reports the actions pid may legally submit right now. It is
// a pure projection of current state: empty once the game is complete or
// when it isn't pid's turn.
func (g *Game) ValidActions(pid PlayerID) []ValidAction {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.currentPlayer != pid {
		return nil
	}
	switch g.phase {
	case PhaseBidding:
		legal := g.current.legalBids(pid)
		actions := make([]ValidAction, 0, len(legal))
		for _, n := range legal {
			actions = append(actions, ValidAction{Bid: &BidSpec{Tricks: n}})
		}
		return actions
	case PhasePlaying:
		legal := g.current.legalCardsForHand(g.current.hands[pid])
		actions := make([]ValidAction, 0, len(legal))
		for _, c := range legal {
			c := c
			actions = append(actions, ValidAction{PlayCard: &c})
		}
		return actions
	default:
		return nil
	}
}

// Seating returns the immutable seat order.
func (g *Game) Seating() []PlayerID {
	return append([]PlayerID(nil), g.seating...)
}

// ID returns the game's identifier.
func (g *Game) ID() string { return g.id }

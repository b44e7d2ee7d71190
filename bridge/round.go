package bridge

import "german-bridge/card"

// round holds everything scoped to a single deal. It is rebuilt from
// scratch by (*Game).startRound at the top of every round.
type round struct {
	k                int
	dealerIndex      int
	firstBidderIndex int
	trumpSuit        *card.Suit

	hands     map[PlayerID][]card.Card
	bidOrder  []PlayerID // clockwise starting at firstBidderIndex, len N
	bids      map[PlayerID]int
	bidCount  int

	tricksWon    map[PlayerID]int
	currentTrick []card.Play[PlayerID]
	leadSuit     *card.Suit
	tricksPlayed int
}

// startRound deals a fresh round: k cards per seated player, rotating from
// left-of-dealer, trump drawn from the next undealt card (none if the
// dealt+trump cards would exceed 52, i.e. k*N == 52 exactly).
func (g *Game) startRound(k, dealerIndex int) *round {
	n := len(g.seating)
	deck := card.NewShuffledDeck()

	// Rotate the seating so Deal's round-robin starts left of the dealer;
	// dealing order determines nothing about play order beyond that.
	rotated := make([]PlayerID, n)
	for i := 0; i < n; i++ {
		rotated[i] = g.seating[(dealerIndex+1+i)%n]
	}

	hands, remainder, err := card.Deal(deck, n, k)
	if err != nil {
		panic(InvalidStateError("deal failed: " + err.Error()))
	}

	r := &round{
		k:            k,
		dealerIndex:  dealerIndex,
		hands:        make(map[PlayerID][]card.Card, n),
		bids:         make(map[PlayerID]int, n),
		tricksWon:    make(map[PlayerID]int, n),
		currentTrick: make([]card.Play[PlayerID], 0, n),
	}
	for i, pid := range rotated {
		r.hands[pid] = hands[i]
		r.tricksWon[pid] = 0
	}

	if len(remainder) > 0 {
		trump := remainder[0].Suit
		r.trumpSuit = &trump
	}

	r.firstBidderIndex = (dealerIndex + 1) % n
	r.bidOrder = make([]PlayerID, n)
	for i := 0; i < n; i++ {
		r.bidOrder[i] = g.seating[(r.firstBidderIndex+i)%n]
	}
	return r
}

// isLastBidder reports whether pid is the round's dealer — the bidder
// forbidden from making the bid sum equal k.
func (r *round) isLastBidder(pid PlayerID) bool {
	return len(r.bidOrder) > 0 && r.bidOrder[len(r.bidOrder)-1] == pid
}

func (r *round) bidSumSoFar() int {
	total := 0
	for _, b := range r.bids {
		total += b
	}
	return total
}

// legalBids returns the bids pid may currently choose, applying the
// last-bidder rule when pid is the dealer bidding last.
func (r *round) legalBids(pid PlayerID) []int {
	legal := make([]int, 0, r.k+1)
	forbidden := -1
	if r.isLastBidder(pid) {
		forbidden = r.k - r.bidSumSoFar()
	}
	for n := 0; n <= r.k; n++ {
		if n == forbidden {
			continue
		}
		legal = append(legal, n)
	}
	return legal
}

func (r *round) nextBidder() (PlayerID, bool) {
	if r.bidCount >= len(r.bidOrder) {
		return "", false
	}
	return r.bidOrder[r.bidCount], true
}

func (r *round) allBidsPlaced() bool {
	return r.bidCount == len(r.bidOrder)
}

// firstBidderID is the player who, per spec.md §4.2, becomes current_player
// when bidding transitions into play.
func (r *round) firstBidderID() PlayerID {
	return r.bidOrder[0]
}

func (r *round) legalCardsForHand(hand []card.Card) []card.Card {
	if r.leadSuit == nil {
		return append([]card.Card(nil), hand...)
	}
	followers := make([]card.Card, 0, len(hand))
	for _, c := range hand {
		if c.Suit == *r.leadSuit {
			followers = append(followers, c)
		}
	}
	if len(followers) > 0 {
		return followers
	}
	return append([]card.Card(nil), hand...)
}

// defaultBid implements the turn scheduler's deterministic bid fallback:
// bid 0 if legal, otherwise 1 (the dealer's only remaining choice when 0 is
// the forbidden sum-completing bid).
func (r *round) defaultBid(pid PlayerID) int {
	legal := r.legalBids(pid)
	if legalBidContains(legal, 0) {
		return 0
	}
	return 1
}

// defaultCard implements the turn scheduler's deterministic play fallback:
// the lowest-rank legal card, tiebroken by suit order Clubs < Diamonds <
// Hearts < Spades (Suit's zero-value ordering already matches this).
func (r *round) defaultCard(hand []card.Card) card.Card {
	legal := r.legalCardsForHand(hand)
	best := legal[0]
	for _, c := range legal[1:] {
		if c.Rank < best.Rank || (c.Rank == best.Rank && c.Suit < best.Suit) {
			best = c
		}
	}
	return best
}

func removeCard(hand []card.Card, c card.Card) ([]card.Card, bool) {
	for i, h := range hand {
		if h == c {
			out := append([]card.Card(nil), hand[:i]...)
			out = append(out, hand[i+1:]...)
			return out, true
		}
	}
	return hand, false
}

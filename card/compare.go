package card

// Ordering mirrors the three-way comparator result used by CompareInTrick.
type Ordering int

const (
	Less Ordering = -1
	Equal Ordering = 0
	Greater Ordering = 1
)

// beats reports whether a beats b when both are known to be candidates in
// the same trick (a is "the challenger", b is "the card currently winning",
// as TrickWinner calls it). trump is nil when the round has no trump suit.
func beats(a, b Card, leadSuit Suit, trump *Suit) bool {
	aTrump := trump != nil && a.Suit == *trump
	bTrump := trump != nil && b.Suit == *trump
	if aTrump != bTrump {
		return aTrump
	}
	if aTrump && bTrump {
		return a.Rank > b.Rank
	}
	aLead := a.Suit == leadSuit
	bLead := b.Suit == leadSuit
	if aLead != bLead {
		return aLead
	}
	if aLead && bLead {
		return a.Rank > b.Rank
	}
	// Neither is lead suit nor trump: a does not beat b. In TrickWinner's
	// fold b is the card currently winning, which is always lead suit or
	// trump, so this case does not arise there.
	return false
}

// CompareInTrick ranks two cards as they'd be compared while resolving a
// trick: a card of the lead suit beats any non-lead, non-trump card; a
// trump beats any non-trump card; among cards sharing a suit, higher rank
// wins. Every card in a round is unique so ties never occur.
func CompareInTrick(a, b Card, leadSuit Suit, trump *Suit) Ordering {
	if a == b {
		return Equal
	}
	if beats(a, b, leadSuit, trump) {
		return Greater
	}
	return Less
}

// Play pairs a card with whoever played it, for trick resolution.
type Play[P comparable] struct {
	Player P
	Card   Card
}

// TrickWinner resolves a completed trick (one card per seated player, in
// play order) to the player who takes it.
func TrickWinner[P comparable](plays []Play[P], leadSuit Suit, trump *Suit) P {
	best := plays[0]
	for _, p := range plays[1:] {
		if beats(p.Card, best.Card, leadSuit, trump) {
			best = p
		}
	}
	return best.Player
}

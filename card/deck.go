package card

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	mrand "math/rand"
)

// Deck is an ordered sequence of cards, consumed from the front as it is
// dealt out.
type Deck []Card

var allSuits = [...]Suit{Clubs, Diamonds, Hearts, Spades}
var allRanks = [...]Rank{Two, Three, Four, Five, Six, Seven, Eight, Nine, Ten, Jack, Queen, King, Ace}

// NewShuffledDeck builds the 52-card deck and returns it in a
// cryptographically-seeded uniform random permutation (Fisher-Yates via
// math/rand, seeded from crypto/rand so outcomes can't be predicted from
// the server's PID/start time the way a time-seeded RNG could be).
func NewShuffledDeck() Deck {
	d := make(Deck, 0, 52)
	for _, s := range allSuits {
		for _, r := range allRanks {
			d = append(d, Card{Suit: s, Rank: r})
		}
	}
	cryptoRand().Shuffle(len(d), func(i, j int) {
		d[i], d[j] = d[j], d[i]
	})
	return d
}

func cryptoRand() *mrand.Rand {
	var seed [8]byte
	if _, err := rand.Read(seed[:]); err != nil {
		panic(fmt.Sprintf("card: failed to seed RNG: %v", err))
	}
	return mrand.New(mrand.NewSource(int64(binary.LittleEndian.Uint64(seed[:]))))
}

// Deal distributes k cards to each of the given number of players in
// rotation, starting at seat 0 of the rotation the caller passes in
// (callers rotate the deck or the seat order upstream to start left of the
// dealer). It returns one hand per player in seat order and the
// undealt remainder.
func Deal(deck Deck, players int, k int) (hands [][]Card, remainder Deck, err error) {
	if players <= 0 {
		return nil, nil, fmt.Errorf("card: players must be > 0")
	}
	if k < 0 {
		return nil, nil, fmt.Errorf("card: k must be >= 0")
	}
	need := players * k
	if need > len(deck) {
		return nil, nil, fmt.Errorf("card: deck has %d cards, need %d", len(deck), need)
	}
	hands = make([][]Card, players)
	idx := 0
	for round := 0; round < k; round++ {
		for p := 0; p < players; p++ {
			hands[p] = append(hands[p], deck[idx])
			idx++
		}
	}
	remainder = append(Deck(nil), deck[idx:]...)
	return hands, remainder, nil
}

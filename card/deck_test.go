package card

import "testing"

func TestNewShuffledDeck_Has52UniqueCards(t *testing.T) {
	d := NewShuffledDeck()
	if len(d) != 52 {
		t.Fatalf("expected 52 cards, got %d", len(d))
	}
	seen := make(map[Card]bool, 52)
	for _, c := range d {
		if seen[c] {
			t.Fatalf("duplicate card in deck: %v", c)
		}
		seen[c] = true
	}
}

func TestDeal_RoundRobinAndRemainder(t *testing.T) {
	d := NewShuffledDeck()
	hands, remainder, err := Deal(d, 4, 5)
	if err != nil {
		t.Fatalf("Deal err: %v", err)
	}
	if len(hands) != 4 {
		t.Fatalf("expected 4 hands, got %d", len(hands))
	}
	for i, h := range hands {
		if len(h) != 5 {
			t.Fatalf("hand %d: expected 5 cards, got %d", i, len(h))
		}
	}
	if len(remainder) != 52-20 {
		t.Fatalf("expected %d remaining cards, got %d", 52-20, len(remainder))
	}

	all := make(map[Card]bool, 52)
	for _, h := range hands {
		for _, c := range h {
			if all[c] {
				t.Fatalf("card dealt twice: %v", c)
			}
			all[c] = true
		}
	}
	for _, c := range remainder {
		if all[c] {
			t.Fatalf("remainder card already dealt: %v", c)
		}
		all[c] = true
	}
}

func TestDeal_NotEnoughCards(t *testing.T) {
	d := NewShuffledDeck()
	if _, _, err := Deal(d, 4, 14); err == nil {
		t.Fatalf("expected error when k*players exceeds deck size")
	}
}

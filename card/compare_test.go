package card

import "testing"

func TestTrickWinner_TrumpBeatsLead(t *testing.T) {
	trump := Diamonds
	plays := []Play[string]{
		{Player: "P1", Card: Card{Suit: Hearts, Rank: King}},
		{Player: "P2", Card: Card{Suit: Hearts, Rank: Ace}},
		{Player: "P3", Card: Card{Suit: Diamonds, Rank: Two}},
		{Player: "P4", Card: Card{Suit: Clubs, Rank: Ace}},
	}
	winner := TrickWinner(plays, Hearts, &trump)
	if winner != "P3" {
		t.Fatalf("expected P3 to win with the only trump, got %s", winner)
	}
}

func TestTrickWinner_NoTrumpHighestLeadWins(t *testing.T) {
	plays := []Play[int]{
		{Player: 1, Card: Card{Suit: Spades, Rank: Five}},
		{Player: 2, Card: Card{Suit: Spades, Rank: Nine}},
		{Player: 3, Card: Card{Suit: Hearts, Rank: Ace}},
	}
	winner := TrickWinner(plays, Spades, nil)
	if winner != 2 {
		t.Fatalf("expected player 2 (highest lead suit), got %d", winner)
	}
}

func TestCompareInTrick_NonLeadNonTrumpCannotWin(t *testing.T) {
	trump := Spades
	lead := Hearts
	off := Card{Suit: Clubs, Rank: Ace}
	led := Card{Suit: Hearts, Rank: Two}
	if CompareInTrick(led, off, lead, &trump) != Greater {
		t.Fatalf("lead suit card must beat an off-suit, non-trump card regardless of rank")
	}
}

func TestScoreRound(t *testing.T) {
	cases := []struct{ bid, won, want int }{
		{2, 2, 14},
		{0, 0, 10},
		{1, 0, -1},
		{0, 2, -4},
		{3, 0, -9},
	}
	for _, c := range cases {
		if got := ScoreRound(c.bid, c.won); got != c.want {
			t.Fatalf("ScoreRound(%d,%d) = %d, want %d", c.bid, c.won, got, c.want)
		}
	}
}

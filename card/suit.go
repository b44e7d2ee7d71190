package card

import "fmt"

// Suit is one of the four French-suited groups. The ordering below
// (low to high) has no meaning during trick resolution — comparison there
// goes through lead suit and trump — but it is the deterministic tiebreak
// the turn scheduler uses when it must pick a card on a player's behalf.
type Suit byte

const (
	Clubs Suit = iota
	Diamonds
	Hearts
	Spades
)

var suitNames = [...]string{"Clubs", "Diamonds", "Hearts", "Spades"}

func (s Suit) String() string {
	if int(s) < len(suitNames) {
		return suitNames[s]
	}
	return "?"
}

func (s Suit) Valid() bool {
	return s <= Spades
}

func ParseSuit(name string) (Suit, error) {
	for i, n := range suitNames {
		if n == name {
			return Suit(i), nil
		}
	}
	return 0, fmt.Errorf("card: invalid suit %q", name)
}

func (s Suit) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

func (s *Suit) UnmarshalJSON(data []byte) error {
	name, err := unquoteJSON(data)
	if err != nil {
		return err
	}
	parsed, err := ParseSuit(name)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

package deck

import "fmt"

// Card identifies one of the 52 cards in a standard deck.
// id = suit*13 + rank, rank 0 is the ace, rank 12 the king.
type Card uint8

const NumCards = 52

var rankNames = [13]string{"A", "2", "3", "4", "5", "6", "7", "8", "9", "10", "J", "Q", "K"}
var suitNames = [4]string{"♣", "♦", "♥", "♠"}

func (c Card) Rank() int { return int(c) % 13 }
func (c Card) Suit() int { return int(c) / 13 }

// Value returns the blackjack value of the card. Aces count 11 here;
// hand totals demote them to 1 as needed.
func (c Card) Value() int {
	r := c.Rank()
	switch {
	case r == 0:
		return 11
	case r >= 9:
		return 10
	default:
		return r + 1
	}
}

func (c Card) IsAce() bool { return c.Rank() == 0 }

// IsTenValue reports whether the card belongs to the ten value class
// (10, J, Q, K).
func (c Card) IsTenValue() bool { return c.Rank() >= 9 }

func (c Card) Valid() bool { return c < NumCards }

func (c Card) String() string {
	if !c.Valid() {
		return fmt.Sprintf("card(%d)", uint8(c))
	}
	return rankNames[c.Rank()] + suitNames[c.Suit()]
}

package game

import (
	"testing"

	"FairDeck/internal/deck"
)

// Card ids by name for readable fixtures: id = suit*13 + rank.
const (
	aceClubs      = deck.Card(0)
	twoClubs      = deck.Card(1)
	threeClubs    = deck.Card(2)
	fourClubs     = deck.Card(3)
	fiveClubs     = deck.Card(4)
	sixClubs      = deck.Card(5)
	sevenClubs    = deck.Card(6)
	eightClubs    = deck.Card(7)
	nineClubs     = deck.Card(8)
	tenClubs      = deck.Card(9)
	jackClubs     = deck.Card(10)
	queenClubs    = deck.Card(11)
	kingClubs     = deck.Card(12)
	aceDiamonds   = deck.Card(13)
	tenDiamonds   = deck.Card(22)
	queenDiamonds = deck.Card(24)
	kingSpades    = deck.Card(51)
)

func TestHandTotals(t *testing.T) {
	cases := []struct {
		name string
		hand Hand
		want int
		soft bool
	}{
		{"blackjack", Hand{aceClubs, kingClubs}, 21, true},
		{"two aces and nine", Hand{aceClubs, aceDiamonds, nineClubs}, 21, true},
		{"hard twenty", Hand{kingClubs, queenClubs}, 20, false},
		{"soft seventeen", Hand{aceClubs, sixClubs}, 17, true},
		{"ace demoted", Hand{aceClubs, nineClubs, fiveClubs}, 15, false},
		{"both aces demoted", Hand{aceClubs, aceDiamonds, kingClubs, nineClubs}, 21, false},
		{"bust", Hand{kingClubs, queenDiamonds, fiveClubs}, 25, false},
		{"five card", Hand{twoClubs, threeClubs, fourClubs, fiveClubs, sixClubs}, 20, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.hand.Total(); got != tc.want {
				t.Errorf("Total() = %d, want %d", got, tc.want)
			}
			if got := tc.hand.IsSoft(); got != tc.soft {
				t.Errorf("IsSoft() = %v, want %v", got, tc.soft)
			}
		})
	}
}

func TestBlackjackDetection(t *testing.T) {
	if !(Hand{aceClubs, kingSpades}).IsBlackjack() {
		t.Error("A+K should be blackjack")
	}
	if (Hand{aceClubs, kingClubs, tenClubs}).IsBlackjack() {
		t.Error("three-card 21 is not blackjack")
	}
	if (Hand{sevenClubs, sevenClubs + 13, sevenClubs + 26}).IsBlackjack() {
		t.Error("7+7+7 is not blackjack")
	}
}

func TestBust(t *testing.T) {
	if (Hand{aceClubs, aceDiamonds, nineClubs}).IsBust() {
		t.Error("soft 21 flagged as bust")
	}
	if !(Hand{kingClubs, queenDiamonds, fiveClubs}).IsBust() {
		t.Error("25 not flagged as bust")
	}
}

func TestSplittable(t *testing.T) {
	cases := []struct {
		name string
		hand Hand
		want bool
	}{
		{"ten and queen", Hand{tenClubs, queenDiamonds}, true},
		{"jack and king", Hand{jackClubs, kingSpades}, true},
		{"two tens", Hand{tenClubs, tenDiamonds}, true},
		{"pair of aces", Hand{aceClubs, aceDiamonds}, true},
		{"two and three", Hand{twoClubs, threeClubs}, false},
		{"nine and ten", Hand{nineClubs, tenClubs}, false},
		{"ace and ten", Hand{aceClubs, tenClubs}, false},
		{"three cards", Hand{tenClubs, tenDiamonds, twoClubs}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.hand.splittable(); got != tc.want {
				t.Errorf("splittable() = %v, want %v", got, tc.want)
			}
		})
	}
}

package game

import "FairDeck/internal/deck"

// Hand is an ordered set of cards in dealing order.
type Hand []deck.Card

// total computes the blackjack total with ace demotion: aces start at
// 11 and drop to 1 one at a time while the hand is over 21. The second
// return is true when the final total still counts an ace as 11.
func (h Hand) total() (int, bool) {
	total, aces := 0, 0
	for _, c := range h {
		if c.IsAce() {
			aces++
		}
		total += c.Value()
	}
	for total > 21 && aces > 0 {
		total -= 10
		aces--
	}
	return total, aces > 0
}

func (h Hand) Total() int {
	t, _ := h.total()
	return t
}

// IsSoft reports whether an ace is still counted as 11.
func (h Hand) IsSoft() bool {
	t, soft := h.total()
	return soft && t <= 21
}

// IsBlackjack reports a natural: exactly two cards totalling 21.
func (h Hand) IsBlackjack() bool {
	return len(h) == 2 && h.Total() == 21
}

func (h Hand) IsBust() bool {
	return h.Total() > 21
}

// splittable reports whether a two-card hand may be split: both cards
// in the same value class, so any two of 10/J/Q/K qualify.
func (h Hand) splittable() bool {
	return len(h) == 2 && h[0].Value() == h[1].Value()
}

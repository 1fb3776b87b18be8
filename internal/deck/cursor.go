package deck

import "errors"

// ErrDeckExhausted is returned once every dealable position has been
// consumed.
var ErrDeckExhausted = errors.New("deck exhausted")

// Cursor deals the deck forward, one position at a time, skipping the
// hole. It is single-pass: positions are never re-dealt and never
// skipped, so the reveal history alone reconstructs the whole round.
type Cursor struct {
	deck  *SecretDeck
	order []int
	next  int
}

// NewCursor builds the dealing order for a secret deck: positions 0..51
// in deck order with the hole position removed.
func NewCursor(d *SecretDeck) *Cursor {
	order := make([]int, 0, NumCards-1)
	for pos := 0; pos < NumCards; pos++ {
		if pos == d.holePos {
			continue
		}
		order = append(order, pos)
	}
	return &Cursor{deck: d, order: order}
}

// Next deals the next position. After 51 draws every call returns
// ErrDeckExhausted.
func (c *Cursor) Next() (Reveal, error) {
	if c.next >= len(c.order) {
		return Reveal{}, ErrDeckExhausted
	}
	pos := c.order[c.next]
	c.next++
	return c.deck.RevealAt(pos)
}

// Remaining reports how many positions are still dealable.
func (c *Cursor) Remaining() int {
	return len(c.order) - c.next
}

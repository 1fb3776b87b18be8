package deck

import (
	"errors"
	"testing"
)

func TestCursorDealsEverythingButTheHole(t *testing.T) {
	_, d, err := NewDeck(3)
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	cur := NewCursor(d)

	if got := cur.Remaining(); got != NumCards-1 {
		t.Fatalf("Remaining = %d, want %d", got, NumCards-1)
	}

	prev := -1
	for i := 0; i < NumCards-1; i++ {
		r, err := cur.Next()
		if err != nil {
			t.Fatalf("draw %d: %v", i, err)
		}
		if r.Pos == d.HolePos() {
			t.Fatalf("draw %d yielded the hole position %d", i, r.Pos)
		}
		if r.Pos <= prev {
			t.Fatalf("draw %d out of order: pos %d after %d", i, r.Pos, prev)
		}
		prev = r.Pos
	}

	if got := cur.Remaining(); got != 0 {
		t.Errorf("Remaining after full deal = %d, want 0", got)
	}

	// Every further draw fails the same way.
	for i := 0; i < 3; i++ {
		if _, err := cur.Next(); !errors.Is(err, ErrDeckExhausted) {
			t.Fatalf("draw past end: got %v, want ErrDeckExhausted", err)
		}
	}
}

func TestCursorRevealsVerify(t *testing.T) {
	c, d, err := NewDeck(0)
	if err != nil {
		t.Fatalf("NewDeck: %v", err)
	}
	cur := NewCursor(d)

	for {
		r, err := cur.Next()
		if errors.Is(err, ErrDeckExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if !VerifyProof(c.Root, r.Pos, r.Card, r.Salt, r.Proof) {
			t.Fatalf("cursor reveal at pos %d does not verify", r.Pos)
		}
	}
}

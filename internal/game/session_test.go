package game

import (
	"errors"
	"testing"

	"FairDeck/internal/deck"
)

// riggedSession deals a session from an arranged deck: holeCard sits
// at the reserved hole position, dealt cards come off the cursor in
// order (player, player, dealer up, then draws). All listed cards must
// be distinct.
func riggedSession(t *testing.T, holeCard deck.Card, dealt ...deck.Card) (*Session, *deck.Commitment) {
	t.Helper()

	used := map[deck.Card]bool{holeCard: true}
	for _, c := range dealt {
		if used[c] {
			t.Fatalf("fixture reuses card %s", c)
		}
		used[c] = true
	}

	posSeq := make([]int, 0, deck.NumCards-1)
	for p := 0; p < deck.NumCards; p++ {
		if p != holePosition {
			posSeq = append(posSeq, p)
		}
	}

	var order [deck.NumCards]deck.Card
	order[holePosition] = holeCard
	for i, c := range dealt {
		order[posSeq[i]] = c
	}
	filler := deck.Card(0)
	for _, p := range posSeq[len(dealt):] {
		for used[filler] {
			filler++
		}
		order[p] = filler
		used[filler] = true
	}

	c, secret, err := deck.NewArrangedDeck(order, holePosition)
	if err != nil {
		t.Fatalf("NewArrangedDeck: %v", err)
	}
	s, err := newSession("player-1", "round-1", c, secret)
	if err != nil {
		t.Fatalf("newSession: %v", err)
	}
	return s, c
}

// =====================================================================
// Test: opening deal
// =====================================================================

func TestOpeningDeal(t *testing.T) {
	s, _ := riggedSession(t, kingSpades, aceClubs, kingClubs, sixClubs)

	if got, want := len(s.player), 2; got != want {
		t.Fatalf("player cards = %d, want %d", got, want)
	}
	if s.player[0] != aceClubs || s.player[1] != kingClubs {
		t.Errorf("player hand = %v, want [A♣ K♣]", s.player)
	}
	if !s.player.IsBlackjack() {
		t.Error("A+K not detected as blackjack")
	}
	if len(s.dealer) != 1 || s.dealer[0] != sixClubs {
		t.Errorf("dealer up = %v, want [6♣]", s.dealer)
	}
	if s.phase != PhaseAwaitingFirstAction {
		t.Errorf("phase = %s, want %s", s.phase, PhaseAwaitingFirstAction)
	}
}

// =====================================================================
// Test: first-action-only rules
// =====================================================================

func TestSplitAfterHitRejected(t *testing.T) {
	s, _ := riggedSession(t, kingSpades, tenClubs, queenDiamonds, sixClubs)

	if _, err := s.Hit(0); err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if _, err := s.Split(); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("split after hit: got %v, want ErrIllegalAction", err)
	}
}

func TestDoubleAfterHitRejected(t *testing.T) {
	s, _ := riggedSession(t, kingSpades, fiveClubs, sixClubs, nineClubs)

	if _, err := s.Hit(0); err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if _, err := s.Double(); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("double after hit: got %v, want ErrIllegalAction", err)
	}
}

func TestSplitRejectsUnequalValueClass(t *testing.T) {
	s, _ := riggedSession(t, kingSpades, twoClubs, threeClubs, sixClubs)
	if _, err := s.Split(); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("split 2+3: got %v, want ErrIllegalAction", err)
	}

	s, _ = riggedSession(t, kingSpades, nineClubs, tenClubs, sixClubs)
	if _, err := s.Split(); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("split 9+10: got %v, want ErrIllegalAction", err)
	}
}

// =====================================================================
// Test: explicit hand selectors
// =====================================================================

func TestHandSelectorBeforeSplit(t *testing.T) {
	s, _ := riggedSession(t, kingSpades, fiveClubs, sixClubs, nineClubs, twoClubs)

	if _, err := s.Hit(3); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("hit hand 3: got %v, want ErrInvalidInput", err)
	}
	if _, err := s.Hit(2); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("hit hand 2 before split: got %v, want ErrIllegalAction", err)
	}
	if _, err := s.Hit(1); err != nil {
		t.Fatalf("hit hand 1: %v", err)
	}
}

func TestHandSelectorAfterSplit(t *testing.T) {
	s, _ := riggedSession(t, kingClubs,
		tenClubs, queenDiamonds, sixClubs,
		fiveClubs, sevenClubs, fourClubs)

	if _, err := s.Split(); err != nil {
		t.Fatalf("Split: %v", err)
	}

	// Hand 1 is in play; hand 2 has to wait its turn.
	if _, err := s.Stand(2); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("stand hand 2 while hand 1 active: got %v, want ErrIllegalAction", err)
	}
	st, err := s.Stand(1)
	if err != nil {
		t.Fatalf("stand hand 1: %v", err)
	}
	if !st.HandSwitched {
		t.Fatal("stand hand 1 did not switch hands")
	}

	// Now hand 2 is in play and hand 1 is closed.
	if _, err := s.Hit(1); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("hit hand 1 after standing it: got %v, want ErrIllegalAction", err)
	}
	if _, err := s.Hit(2); err != nil {
		t.Fatalf("hit hand 2: %v", err)
	}
}

// =====================================================================
// Test: split flow (10 + Q is a value-class pair)
// =====================================================================

func TestSplitFlow(t *testing.T) {
	s, c := riggedSession(t, kingClubs,
		tenClubs, queenDiamonds, sixClubs, // opening
		fiveClubs, sevenClubs, fourClubs) // hand1 draw, hand2 draw, dealer draw

	res, err := s.Split()
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(res.Hand1) != 2 || res.Hand1[0] != tenClubs || res.Hand1[1] != fiveClubs {
		t.Errorf("hand1 = %v, want [10♣ 5♣]", res.Hand1)
	}
	if len(res.Hand2) != 1 || res.Hand2[0] != queenDiamonds {
		t.Errorf("hand2 = %v, want [Q♦]", res.Hand2)
	}
	if s.phase != PhasePlayingHand1 {
		t.Fatalf("phase = %s, want %s", s.phase, PhasePlayingHand1)
	}

	// A second split is never legal.
	if _, err := s.Split(); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("second split: got %v, want ErrIllegalAction", err)
	}

	// Standing hand 1 deals hand 2's second card and switches.
	st, err := s.Stand(0)
	if err != nil {
		t.Fatalf("Stand hand1: %v", err)
	}
	if !st.HandSwitched || st.ActiveHand != 2 {
		t.Fatalf("stand hand1: switched=%v active=%d", st.HandSwitched, st.ActiveHand)
	}
	if st.NewHand2Card == nil || *st.NewHand2Card != sevenClubs {
		t.Errorf("hand2 second card = %v, want 7♣", st.NewHand2Card)
	}

	// Standing hand 2 plays the dealer out: 6 + K = 16, draws 4 → 20.
	st, err = s.Stand(0)
	if err != nil {
		t.Fatalf("Stand hand2: %v", err)
	}
	if !st.Settled {
		t.Fatal("stand hand2 did not settle")
	}
	if got, want := st.DealerTotal, 20; got != want {
		t.Errorf("dealer total = %d, want %d", got, want)
	}

	done, err := s.finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	pkg := done.Package
	if !pkg.Split || pkg.Doubled {
		t.Errorf("flags split=%v doubled=%v, want true/false", pkg.Split, pkg.Doubled)
	}
	if len(pkg.PlayerExtra) != 0 {
		t.Errorf("playerExtra = %d entries, want 0", len(pkg.PlayerExtra))
	}
	if len(pkg.Hand1Extra) != 1 || pkg.Hand1Extra[0].Card != fiveClubs {
		t.Errorf("hand1Extra = %v", pkg.Hand1Extra)
	}
	if len(pkg.Hand2Extra) != 1 || pkg.Hand2Extra[0].Card != sevenClubs {
		t.Errorf("hand2Extra = %v", pkg.Hand2Extra)
	}
	if len(pkg.DealerDraws) != 1 || pkg.DealerDraws[0].Card != fourClubs {
		t.Errorf("dealerDraws = %v", pkg.DealerDraws)
	}
	if pkg.HoleCardID != kingClubs {
		t.Errorf("hole card = %s, want K♣", pkg.HoleCardID)
	}

	// Every reveal in the package must verify against the commitment.
	if !deck.VerifyProof(c.Root, c.HolePos, pkg.HoleCardID, pkg.HoleSalt, pkg.HoleProof) {
		t.Error("hole proof does not verify")
	}
	for _, r := range pkg.Initial3 {
		if !deck.VerifyProof(c.Root, r.Pos, r.Card, r.Salt, r.Proof) {
			t.Errorf("initial3 reveal at pos %d does not verify", r.Pos)
		}
	}
}

// =====================================================================
// Test: double flow
// =====================================================================

func TestDoubleFlow(t *testing.T) {
	// Player 5+6=11 doubles into K → 21; dealer 10♦ + 7♣ = 17 stands.
	s, _ := riggedSession(t, sevenClubs, fiveClubs, sixClubs, tenDiamonds, kingSpades)

	res, err := s.Double()
	if err != nil {
		t.Fatalf("Double: %v", err)
	}
	if res.NewCard != kingSpades {
		t.Errorf("double card = %s, want K♠", res.NewCard)
	}
	if res.PlayerTotal != 21 {
		t.Errorf("player total = %d, want 21", res.PlayerTotal)
	}
	if res.DealerTotal != 17 {
		t.Errorf("dealer total = %d, want 17", res.DealerTotal)
	}
	if len(res.DealerCards) != 2 {
		t.Errorf("dealer drew %d cards, want none beyond the hole", len(res.DealerCards)-2)
	}
	if s.phase != PhaseSettled {
		t.Errorf("phase = %s, want %s", s.phase, PhaseSettled)
	}

	done, err := s.finalize()
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if !done.Package.Doubled {
		t.Error("doubled flag not set")
	}
	if len(done.Package.PlayerExtra) != 1 {
		t.Errorf("playerExtra = %d entries, want 1", len(done.Package.PlayerExtra))
	}

	// Doubling ends the turn; nothing else is legal.
	if _, err := s.Hit(0); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("hit after double: got %v, want ErrIllegalAction", err)
	}
	if _, err := s.Stand(0); !errors.Is(err, ErrIllegalAction) {
		t.Errorf("stand after double: got %v, want ErrIllegalAction", err)
	}
}

// =====================================================================
// Test: dealer play
// =====================================================================

func TestDealerDrawsToSeventeen(t *testing.T) {
	// Dealer 2♣ + 3♣ = 5, draws 10♦ → 15, draws 6♣ → 21.
	s, _ := riggedSession(t, threeClubs, kingSpades, queenDiamonds, twoClubs, tenDiamonds, sixClubs)

	st, err := s.Stand(0)
	if err != nil {
		t.Fatalf("Stand: %v", err)
	}
	if got, want := st.DealerTotal, 21; got != want {
		t.Errorf("dealer total = %d, want %d", got, want)
	}
	if got, want := len(s.dealerDraws), 2; got != want {
		t.Errorf("dealer draws = %d, want %d", got, want)
	}
}

func TestDealerStandsOnSoftSeventeen(t *testing.T) {
	// Dealer A♣ + 6♣ = soft 17: stands.
	s, _ := riggedSession(t, sixClubs, kingSpades, queenDiamonds, aceClubs)

	st, err := s.Stand(0)
	if err != nil {
		t.Fatalf("Stand: %v", err)
	}
	if got, want := st.DealerTotal, 17; got != want {
		t.Errorf("dealer total = %d, want %d", got, want)
	}
	if len(s.dealerDraws) != 0 {
		t.Errorf("dealer drew %d cards on soft 17, want 0", len(s.dealerDraws))
	}
}

// =====================================================================
// Test: busts do not auto-finalize
// =====================================================================

func TestBustedHandStillRequiresStand(t *testing.T) {
	// Player K+Q hits into 5 → 25, bust.
	s, _ := riggedSession(t, sixClubs, kingSpades, queenDiamonds, twoClubs, fiveClubs)

	res, err := s.Hit(0)
	if err != nil {
		t.Fatalf("Hit: %v", err)
	}
	if !res.Busted {
		t.Fatalf("total %d not flagged as bust", res.Total)
	}
	if s.phase != PhasePlayingMain {
		t.Fatalf("bust auto-finalized: phase = %s", s.phase)
	}

	st, err := s.Stand(0)
	if err != nil {
		t.Fatalf("Stand after bust: %v", err)
	}
	if !st.Settled {
		t.Error("stand after bust did not settle")
	}
}

// =====================================================================
// Test: exhaustion error paths leave the session intact
// =====================================================================

func TestStandOnExhaustedDeckLeavesDealerIntact(t *testing.T) {
	// Dealer 6♣ up with K♠ in the hole: 16, so the dealer must draw.
	s, _ := riggedSession(t, kingSpades, tenClubs, queenDiamonds, sixClubs)

	for {
		_, err := s.Hit(0)
		if errors.Is(err, deck.ErrDeckExhausted) {
			break
		}
		if err != nil {
			t.Fatalf("Hit: %v", err)
		}
	}

	// Both attempts fail the same way; neither may leak the hole card
	// into the dealer hand or record phantom draws.
	for attempt := 1; attempt <= 2; attempt++ {
		if _, err := s.Stand(0); !errors.Is(err, deck.ErrDeckExhausted) {
			t.Fatalf("Stand attempt %d: got %v, want ErrDeckExhausted", attempt, err)
		}
		if got, want := len(s.dealer), 1; got != want {
			t.Fatalf("Stand attempt %d: dealer has %d cards, want %d", attempt, got, want)
		}
		if len(s.dealerDraws) != 0 {
			t.Fatalf("Stand attempt %d: %d dealer draws recorded", attempt, len(s.dealerDraws))
		}
	}
	if s.phase == PhaseSettled {
		t.Error("session settled without the dealer playing out")
	}
}

func TestFailedHitKeepsFirstActionWindow(t *testing.T) {
	s, _ := riggedSession(t, kingSpades, fiveClubs, sixClubs, nineClubs)

	for s.cursor.Remaining() > 0 {
		if _, err := s.cursor.Next(); err != nil {
			t.Fatalf("drain cursor: %v", err)
		}
	}

	if _, err := s.Hit(0); !errors.Is(err, deck.ErrDeckExhausted) {
		t.Fatalf("Hit on empty deck: got %v, want ErrDeckExhausted", err)
	}
	if s.phase != PhaseAwaitingFirstAction {
		t.Errorf("failed hit consumed the first-action window: phase = %s", s.phase)
	}
}

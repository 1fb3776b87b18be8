package game

import (
	"fmt"
	"time"

	"FairDeck/internal/deck"
)

// SettlementPackage is the evidence bundle the verifier replays. Field
// order and presence are stable: they mirror the on-chain settle call
// argument for argument.
type SettlementPackage struct {
	RoundID     string              `json:"roundId"`
	HoleCardID  deck.Card           `json:"holeCardId"`
	HoleSalt    [deck.SaltSize]byte `json:"holeSalt"`
	HoleProof   deck.Proof          `json:"holeProof"`
	Initial3    [3]deck.Reveal      `json:"initial3"`
	PlayerExtra []deck.Reveal       `json:"playerExtra"`
	DealerDraws []deck.Reveal       `json:"dealerDraws"`
	Doubled     bool                `json:"doubled"`
	Split       bool                `json:"split"`
	Hand1Extra  []deck.Reveal       `json:"hand1Extra"`
	Hand2Extra  []deck.Reveal       `json:"hand2Extra"`
}

// FullDeckReveal is the post-round fairness disclosure: the committed
// root, the hole opening, and every other position with its salt and
// inclusion proof, dealt or not. Opening the whole deck is what lets a
// player check the commitment was an honest shuffle and not a stacked
// order.
type FullDeckReveal struct {
	DeckRoot   deck.Digest         `json:"deckRoot"`
	HolePos    int                 `json:"holePos"`
	HoleCardID deck.Card           `json:"holeCardId"`
	HoleSalt   [deck.SaltSize]byte `json:"holeSalt"`
	HoleProof  deck.Proof          `json:"holeProof"`
	Reveals    []deck.Reveal       `json:"reveals"`
}

// CompletedRound is what survives a settled session: the evidence, the
// disclosure, and enough context for archiving. The live deck is gone.
type CompletedRound struct {
	RoundID    string
	Player     string
	Commitment deck.Commitment
	Package    SettlementPackage
	FullReveal FullDeckReveal
	Doubled    bool
	Split      bool
	FinishedAt time.Time

	claimed bool
}

// finalize freezes a settled session into its completed form.
func (s *Session) finalize() (*CompletedRound, error) {
	if s.phase != PhaseSettled {
		return nil, fmt.Errorf("finalize in phase %s", s.phase)
	}

	pkg := SettlementPackage{
		RoundID:     s.RoundID,
		HoleCardID:  s.holeReveal.Card,
		HoleSalt:    s.holeReveal.Salt,
		HoleProof:   s.holeReveal.Proof,
		Initial3:    s.initial3,
		PlayerExtra: s.playerExtra,
		DealerDraws: s.dealerDraws,
		Doubled:     s.doubled,
		Split:       s.split,
		Hand1Extra:  s.hand1Extra,
		Hand2Extra:  s.hand2Extra,
	}

	reveal := FullDeckReveal{
		DeckRoot:   s.commitment.Root,
		HolePos:    s.commitment.HolePos,
		HoleCardID: s.holeReveal.Card,
		HoleSalt:   s.holeReveal.Salt,
		HoleProof:  s.holeReveal.Proof,
		Reveals:    make([]deck.Reveal, 0, deck.NumCards-1),
	}
	for pos := 0; pos < deck.NumCards; pos++ {
		if pos == s.commitment.HolePos {
			continue
		}
		r, err := s.secret.RevealAt(pos)
		if err != nil {
			return nil, fmt.Errorf("open position %d: %w", pos, err)
		}
		reveal.Reveals = append(reveal.Reveals, r)
	}

	return &CompletedRound{
		RoundID:    s.RoundID,
		Player:     s.Player,
		Commitment: *s.commitment,
		Package:    pkg,
		FullReveal: reveal,
		Doubled:    s.doubled,
		Split:      s.split,
		FinishedAt: time.Now(),
	}, nil
}

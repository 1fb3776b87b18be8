// Package chain holds verifier implementations. The production
// verifier is the settlement contract; LocalRegistry replays the same
// checks in-process for development and tests.
package chain

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"FairDeck/internal/deck"
	"FairDeck/internal/game"

	"github.com/google/uuid"
)

var (
	// ErrUnknownRound rejects evidence for a round id that was never
	// registered or was already settled.
	ErrUnknownRound = errors.New("unknown round")

	// ErrBadEvidence rejects packages whose proofs or draw order do
	// not check out against the commitment.
	ErrBadEvidence = errors.New("bad settlement evidence")
)

// betUnit is the base wager in payout hundredths: 100 = the stake.
const betUnit = 100

// LocalRegistry is an in-process game.Verifier: it registers
// commitments under fresh round ids and settles rounds by replaying
// the evidence exactly the way the contract does.
type LocalRegistry struct {
	mu     sync.Mutex
	rounds map[string]deck.Commitment
}

func NewLocalRegistry() *LocalRegistry {
	return &LocalRegistry{rounds: make(map[string]deck.Commitment)}
}

// StartRound registers a commitment and mints a round id.
func (r *LocalRegistry) StartRound(ctx context.Context, c deck.Commitment) (string, error) {
	id := uuid.NewString()
	r.mu.Lock()
	r.rounds[id] = c
	r.mu.Unlock()
	return id, nil
}

// VerifyAndSettle checks every reveal against the committed root,
// checks draw order, replays the hands, and pays out. Settling
// consumes the round.
func (r *LocalRegistry) VerifyAndSettle(ctx context.Context, roundID string, pkg game.SettlementPackage) (int64, error) {
	r.mu.Lock()
	c, ok := r.rounds[roundID]
	if ok {
		delete(r.rounds, roundID)
	}
	r.mu.Unlock()
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownRound, roundID)
	}

	if err := verifyEvidence(c, pkg); err != nil {
		return 0, err
	}
	return settle(pkg), nil
}

// verifyEvidence checks the hole binding, every inclusion proof, and
// that draws consumed the deck forward without touching the hole.
func verifyEvidence(c deck.Commitment, pkg game.SettlementPackage) error {
	if deck.LeafHash(pkg.HoleCardID, pkg.HoleSalt) != c.HoleLeaf {
		return fmt.Errorf("%w: hole leaf mismatch", ErrBadEvidence)
	}
	if !deck.VerifyProof(c.Root, c.HolePos, pkg.HoleCardID, pkg.HoleSalt, pkg.HoleProof) {
		return fmt.Errorf("%w: hole proof invalid", ErrBadEvidence)
	}

	var draws []deck.Reveal
	draws = append(draws, pkg.Initial3[:]...)
	draws = append(draws, pkg.PlayerExtra...)
	draws = append(draws, pkg.Hand1Extra...)
	draws = append(draws, pkg.Hand2Extra...)
	draws = append(draws, pkg.DealerDraws...)

	prev := -1
	for _, d := range draws {
		if d.Pos == c.HolePos {
			return fmt.Errorf("%w: draw at hole position %d", ErrBadEvidence, d.Pos)
		}
		if d.Pos <= prev {
			return fmt.Errorf("%w: draw order violation at position %d", ErrBadEvidence, d.Pos)
		}
		prev = d.Pos
		if !deck.VerifyProof(c.Root, d.Pos, d.Card, d.Salt, d.Proof) {
			return fmt.Errorf("%w: proof invalid at position %d", ErrBadEvidence, d.Pos)
		}
	}
	return nil
}

// settle replays the hands and returns the total payout in hundredths
// of the base wager.
func settle(pkg game.SettlementPackage) int64 {
	dealer := game.Hand{pkg.Initial3[2].Card, pkg.HoleCardID}
	for _, d := range pkg.DealerDraws {
		dealer = append(dealer, d.Card)
	}

	if pkg.Split {
		hand1 := game.Hand{pkg.Initial3[0].Card}
		for _, d := range pkg.Hand1Extra {
			hand1 = append(hand1, d.Card)
		}
		hand2 := game.Hand{pkg.Initial3[1].Card}
		for _, d := range pkg.Hand2Extra {
			hand2 = append(hand2, d.Card)
		}
		// Split hands never pay the natural premium.
		return settleHand(hand1, dealer, betUnit, false) +
			settleHand(hand2, dealer, betUnit, false)
	}

	player := game.Hand{pkg.Initial3[0].Card, pkg.Initial3[1].Card}
	for _, d := range pkg.PlayerExtra {
		player = append(player, d.Card)
	}
	bet := int64(betUnit)
	if pkg.Doubled {
		bet *= 2
	}
	return settleHand(player, dealer, bet, true)
}

func settleHand(player, dealer game.Hand, bet int64, naturalPays bool) int64 {
	if player.IsBust() {
		return 0
	}

	playerBJ := naturalPays && player.IsBlackjack()
	dealerBJ := dealer.IsBlackjack()

	switch {
	case playerBJ && dealerBJ:
		return bet
	case playerBJ:
		return bet * 5 / 2 // 3:2
	case dealerBJ:
		return 0
	case dealer.IsBust():
		return bet * 2
	}

	pt, dt := player.Total(), dealer.Total()
	switch {
	case pt > dt:
		return bet * 2
	case pt == dt:
		return bet
	default:
		return 0
	}
}

package game

import (
	"context"

	"FairDeck/internal/deck"
)

// Verifier is the trust-minimized counterparty: it receives deck
// commitments before play and later replays settlement evidence to pay
// out. Production deployments back this with a chain client; tests and
// development use the local registry in internal/chain.
type Verifier interface {
	// StartRound registers a commitment and mints an opaque round id.
	StartRound(ctx context.Context, c deck.Commitment) (string, error)

	// VerifyAndSettle replays the evidence against the registered
	// commitment and returns the payout in hundredths of the base
	// wager (100 = push, 250 = blackjack).
	VerifyAndSettle(ctx context.Context, roundID string, pkg SettlementPackage) (int64, error)
}

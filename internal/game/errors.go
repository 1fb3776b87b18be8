package game

import "errors"

// Failure taxonomy for the operation surface. Every player-facing
// operation fails with exactly one of these (possibly wrapped), plus
// deck.ErrDeckExhausted when the shoe runs dry. Failures are
// synchronous and never retried internally.
var (
	// ErrInvalidInput rejects malformed requests (empty player id,
	// unknown action payloads) before any state is touched.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNoActiveSession rejects actions for players with no round in
	// progress.
	ErrNoActiveSession = errors.New("no active session")

	// ErrIllegalAction rejects actions the state machine forbids in the
	// current phase.
	ErrIllegalAction = errors.New("illegal action")

	// ErrNoCompletedGame rejects settlement-proof fetches when nothing
	// is waiting to be claimed. A second fetch of the same round fails
	// with this too: packages are handed out exactly once.
	ErrNoCompletedGame = errors.New("no completed game")
)

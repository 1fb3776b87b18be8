package game

import (
	"context"
	"fmt"
	"strings"
	"time"

	"FairDeck/internal/deck"
	"FairDeck/internal/events"
	"FairDeck/internal/observability"

	"github.com/rs/zerolog"
)

// holePosition is the deck position reserved for the dealer's hole
// card: the fourth card in deal order.
const holePosition = 3

const defaultClaimedCapacity = 100_000

// Service is the operation surface for provably-fair rounds. One
// instance serves all players; per-player isolation comes from the
// store's slot locks. The core path never blocks on I/O: archive and
// event fan-out go through buffered channels and drop on overflow.
type Service struct {
	store    *Store
	verifier Verifier
	claimed  *claimedLRU
	log      zerolog.Logger
	metrics  *observability.Metrics

	archiveCh chan<- CompletedRound
	eventCh   chan<- events.RoundEvent
}

// NewService wires the game service. archiveCh and eventCh may be nil
// when the corresponding sink is disabled.
func NewService(
	verifier Verifier,
	metrics *observability.Metrics,
	archiveCh chan<- CompletedRound,
	eventCh chan<- events.RoundEvent,
) *Service {
	return &Service{
		store:     NewStore(),
		verifier:  verifier,
		claimed:   newClaimedLRU(defaultClaimedCapacity),
		log:       observability.NewLogger("game"),
		metrics:   metrics,
		archiveCh: archiveCh,
		eventCh:   eventCh,
	}
}

// normalizePlayer canonicalizes the player identity key. Identities
// are case-insensitive (the original callers pass hex addresses).
func normalizePlayer(player string) (string, error) {
	p := strings.ToLower(strings.TrimSpace(player))
	if p == "" {
		return "", fmt.Errorf("%w: empty player", ErrInvalidInput)
	}
	return p, nil
}

// StartResult is everything the player learns when a round opens: the
// public commitment and their view of the table.
type StartResult struct {
	RoundID      string      `json:"roundId"`
	DeckRoot     deck.Digest `json:"deckRoot"`
	HolePos      int         `json:"holePos"`
	HoleLeaf     deck.Digest `json:"holeLeaf"`
	PlayerCards  []deck.Card `json:"playerCards"`
	DealerUpCard deck.Card   `json:"dealerUpCard"`
	PlayerTotal  int         `json:"playerTotal"`
	Splittable   bool        `json:"isSplittable"`
}

// StartGame shuffles and commits a fresh deck, registers it with the
// verifier, and deals the opening three cards. Any session or
// unclaimed completed round the player still has is discarded: the
// data loss is intentional and logged, not an error.
func (svc *Service) StartGame(ctx context.Context, player string) (StartResult, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return StartResult{}, err
	}

	buildStart := time.Now()
	commitment, secret, err := deck.NewDeck(holePosition)
	if err != nil {
		return StartResult{}, fmt.Errorf("build deck: %w", err)
	}
	svc.metrics.DeckBuildDuration.Observe(time.Since(buildStart).Seconds())

	roundID, err := svc.verifier.StartRound(ctx, *commitment)
	if err != nil {
		return StartResult{}, fmt.Errorf("register round: %w", err)
	}

	sl := svc.store.acquire(player)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.active != nil {
		svc.log.Warn().
			Str("player", player).
			Str("discarded_round", sl.active.RoundID).
			Str("phase", sl.active.Phase().String()).
			Msg("new round discards active session")
		svc.metrics.SessionOverwrites.Inc()
		svc.publish(events.TypeOverwritten, sl.active.RoundID, player, nil)
	} else if sl.completed != nil && !sl.completed.claimed {
		svc.log.Warn().
			Str("player", player).
			Str("discarded_round", sl.completed.RoundID).
			Msg("new round discards unclaimed settlement package")
		svc.metrics.SessionOverwrites.Inc()
		svc.publish(events.TypeOverwritten, sl.completed.RoundID, player, nil)
	}

	session, err := newSession(player, roundID, commitment, secret)
	if err != nil {
		return StartResult{}, err
	}
	svc.store.setActive(sl, session)
	sl.completed = nil

	svc.metrics.RoundsStarted.Inc()
	svc.metrics.CardsDealt.Add(3)
	svc.metrics.ActiveSessions.Set(float64(svc.store.ActiveSessions()))
	svc.publish(events.TypeStarted, roundID, player, commitment)

	svc.log.Info().
		Str("player", player).
		Str("round", roundID).
		Hex("deck_root", commitment.Root[:]).
		Msg("round started")

	return StartResult{
		RoundID:      roundID,
		DeckRoot:     commitment.Root,
		HolePos:      commitment.HolePos,
		HoleLeaf:     commitment.HoleLeaf,
		PlayerCards:  append([]deck.Card(nil), session.player...),
		DealerUpCard: session.dealer[0],
		PlayerTotal:  session.player.Total(),
		Splittable:   session.player.splittable(),
	}, nil
}

// Hit draws one card to the target hand; hand 0 means the active one.
func (svc *Service) Hit(ctx context.Context, player string, hand int) (HitResult, error) {
	var res HitResult
	err := svc.withSession(player, "hit", func(s *Session) error {
		var err error
		res, err = s.Hit(hand)
		if err == nil {
			svc.metrics.CardsDealt.Inc()
			if res.Busted {
				svc.metrics.Busts.Inc()
			}
		}
		return err
	})
	return res, err
}

// Stand finishes the target hand; on the last hand it plays the dealer
// out and settles the round. Hand 0 means the active one.
func (svc *Service) Stand(ctx context.Context, player string, hand int) (StandResult, error) {
	var res StandResult
	err := svc.withSettlingAction(player, "stand", func(s *Session) (bool, error) {
		var err error
		res, err = s.Stand(hand)
		if err == nil && res.HandSwitched {
			svc.metrics.CardsDealt.Inc()
		}
		return res.Settled, err
	})
	return res, err
}

// Double doubles the wager, draws one card, and lets the dealer play
// out.
func (svc *Service) Double(ctx context.Context, player string) (DoubleResult, error) {
	var res DoubleResult
	err := svc.withSettlingAction(player, "double", func(s *Session) (bool, error) {
		var err error
		res, err = s.Double()
		return err == nil, err
	})
	return res, err
}

// Split separates a matched pair into two hands.
func (svc *Service) Split(ctx context.Context, player string) (SplitResult, error) {
	var res SplitResult
	err := svc.withSession(player, "split", func(s *Session) error {
		var err error
		res, err = s.Split()
		if err == nil {
			svc.metrics.CardsDealt.Inc()
		}
		return err
	})
	return res, err
}

// FetchSettlementProof hands out the settlement package exactly once.
// Re-fetching the same round fails with ErrNoCompletedGame, as does
// fetching when no round has settled.
func (svc *Service) FetchSettlementProof(ctx context.Context, player string) (SettlementPackage, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return SettlementPackage{}, err
	}

	sl := svc.store.acquire(player)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	switch {
	case sl.completed == nil:
		svc.metrics.ProofFetches.WithLabelValues("none").Inc()
		return SettlementPackage{}, ErrNoCompletedGame

	case sl.completed.claimed:
		svc.metrics.ProofFetches.WithLabelValues("already_claimed").Inc()
		svc.log.Warn().
			Str("player", player).
			Str("round", sl.completed.RoundID).
			Msg("settlement package re-fetch rejected")
		return SettlementPackage{}, ErrNoCompletedGame
	}

	sl.completed.claimed = true
	svc.claimed.Add(sl.completed.RoundID)
	svc.metrics.ProofFetches.WithLabelValues("ok").Inc()
	svc.metrics.RoundsClaimed.Inc()
	svc.publish(events.TypeClaimed, sl.completed.RoundID, player, nil)

	return sl.completed.Package, nil
}

// FullDeckReveal serves the post-round fairness disclosure. Unlike the
// settlement package it stays fetchable until the next round starts.
func (svc *Service) FullDeckReveal(ctx context.Context, player string) (FullDeckReveal, error) {
	player, err := normalizePlayer(player)
	if err != nil {
		return FullDeckReveal{}, err
	}

	sl := svc.store.acquire(player)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.completed == nil {
		return FullDeckReveal{}, ErrNoCompletedGame
	}
	return sl.completed.FullReveal, nil
}

// WasClaimed reports whether a round id recently handed out its
// settlement package. Audit surface only.
func (svc *Service) WasClaimed(roundID string) bool {
	return svc.claimed.Contains(roundID)
}

// withSession runs an action against the player's live session under
// the slot lock, recording action metrics.
func (svc *Service) withSession(player, action string, fn func(*Session) error) error {
	player, err := normalizePlayer(player)
	if err != nil {
		svc.metrics.ActionsTotal.WithLabelValues(action, "invalid_input").Inc()
		return err
	}

	start := time.Now()
	sl := svc.store.acquire(player)
	sl.mu.Lock()
	defer sl.mu.Unlock()

	if sl.active == nil {
		svc.metrics.ActionsTotal.WithLabelValues(action, "no_session").Inc()
		return ErrNoActiveSession
	}

	err = fn(sl.active)
	svc.metrics.ActionDuration.WithLabelValues(action).Observe(time.Since(start).Seconds())
	svc.metrics.ActionsTotal.WithLabelValues(action, outcomeLabel(err)).Inc()
	return err
}

// withSettlingAction is withSession for actions that can end the
// round; when fn reports settlement the session is finalized and moved
// to the completed slot.
func (svc *Service) withSettlingAction(player, action string, fn func(*Session) (settled bool, err error)) error {
	return svc.withSession(player, action, func(s *Session) error {
		settled, err := fn(s)
		if err != nil || !settled {
			return err
		}

		done, err := s.finalize()
		if err != nil {
			return err
		}

		sl := svc.store.acquire(s.Player)
		svc.store.setActive(sl, nil)
		sl.completed = done

		svc.metrics.RoundsSettled.Inc()
		svc.metrics.ActiveSessions.Set(float64(svc.store.ActiveSessions()))
		svc.publish(events.TypeSettled, done.RoundID, s.Player, nil)
		svc.archive(*done)

		svc.log.Info().
			Str("player", s.Player).
			Str("round", done.RoundID).
			Bool("doubled", done.Doubled).
			Bool("split", done.Split).
			Msg("round settled")
		return nil
	})
}

// archive fans a completed round out to the persistence worker,
// dropping when the channel is full. Archiving is an audit sink and
// never fails the action.
func (svc *Service) archive(round CompletedRound) {
	if svc.archiveCh == nil {
		return
	}
	select {
	case svc.archiveCh <- round:
	default:
		svc.metrics.ArchiveDrops.Inc()
		svc.log.Warn().Str("round", round.RoundID).Msg("archive channel full, round dropped")
	}
}

// publish fans a lifecycle event out to the NATS publisher, dropping
// when the channel is full.
func (svc *Service) publish(eventType, roundID, player string, payload interface{}) {
	if svc.eventCh == nil {
		return
	}
	select {
	case svc.eventCh <- events.RoundEvent{
		Type:      eventType,
		RoundID:   roundID,
		Player:    player,
		Payload:   payload,
		Timestamp: time.Now(),
	}:
	default:
		svc.metrics.PublishDrops.Inc()
	}
}

func outcomeLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	default:
		return "rejected"
	}
}

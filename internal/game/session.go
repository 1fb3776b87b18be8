package game

import (
	"fmt"
	"time"

	"FairDeck/internal/deck"
)

// Phase tracks where a round is in its lifecycle. Transitions only
// move forward; there is no way back to an earlier phase.
type Phase int

const (
	// PhaseAwaitingFirstAction: the opening three cards are dealt and
	// the player has not acted. Split and double are only legal here.
	PhaseAwaitingFirstAction Phase = iota

	// PhasePlayingMain: the player has hit at least once on an unsplit
	// hand.
	PhasePlayingMain

	// PhasePlayingHand1 / PhasePlayingHand2: post-split play, one hand
	// at a time in order.
	PhasePlayingHand1
	PhasePlayingHand2

	// PhaseSettled: the dealer has played out and the settlement
	// evidence is frozen.
	PhaseSettled
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingFirstAction:
		return "awaiting_first_action"
	case PhasePlayingMain:
		return "playing_main"
	case PhasePlayingHand1:
		return "playing_hand1"
	case PhasePlayingHand2:
		return "playing_hand2"
	case PhaseSettled:
		return "settled"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// Session is one player's round in progress: the secret deck, the
// dealing cursor, both sides' hands, and the reveal history that later
// becomes the settlement package. All access is serialized by the
// store's per-player lock.
type Session struct {
	RoundID   string
	Player    string
	StartedAt time.Time

	commitment *deck.Commitment
	secret     *deck.SecretDeck
	cursor     *deck.Cursor

	phase   Phase
	player  Hand // hand 1 after a split
	hand2   Hand
	dealer  Hand
	doubled bool
	split   bool

	// Reveal history in draw order, partitioned the way the verifier
	// consumes it.
	initial3    [3]deck.Reveal
	playerExtra []deck.Reveal
	hand1Extra  []deck.Reveal
	hand2Extra  []deck.Reveal
	dealerDraws []deck.Reveal
	holeReveal  deck.Reveal
}

// newSession deals the opening three cards: player, player, dealer up.
func newSession(player, roundID string, c *deck.Commitment, secret *deck.SecretDeck) (*Session, error) {
	s := &Session{
		RoundID:    roundID,
		Player:     player,
		StartedAt:  time.Now(),
		commitment: c,
		secret:     secret,
		cursor:     deck.NewCursor(secret),
		phase:      PhaseAwaitingFirstAction,
	}

	for i := 0; i < 3; i++ {
		r, err := s.cursor.Next()
		if err != nil {
			return nil, fmt.Errorf("deal opening card %d: %w", i, err)
		}
		s.initial3[i] = r
	}
	s.player = Hand{s.initial3[0].Card, s.initial3[1].Card}
	s.dealer = Hand{s.initial3[2].Card}
	return s, nil
}

func (s *Session) Phase() Phase { return s.phase }

func (s *Session) Commitment() *deck.Commitment { return s.commitment }

// activeHand returns the hand the next hit or double applies to, plus
// its number (1 or 2) for responses.
func (s *Session) activeHand() (*Hand, int) {
	if s.phase == PhasePlayingHand2 {
		return &s.hand2, 2
	}
	return &s.player, 1
}

// checkTarget validates an explicit hand selector. Zero means "the
// active hand" and is always accepted; a nonzero selector must name
// the hand currently in play.
func (s *Session) checkTarget(target int) error {
	if target == 0 {
		return nil
	}
	if target < 1 || target > 2 {
		return fmt.Errorf("%w: hand selector %d", ErrInvalidInput, target)
	}
	if !s.split && target == 2 {
		return fmt.Errorf("%w: hand 2 does not exist before a split", ErrIllegalAction)
	}
	if _, active := s.activeHand(); target != active {
		return fmt.Errorf("%w: hand %d is not the active hand", ErrIllegalAction, target)
	}
	return nil
}

// HitResult reports the card drawn and the updated hand.
type HitResult struct {
	NewCard deck.Card   `json:"newCard"`
	Hand    int         `json:"hand"`
	Cards   []deck.Card `json:"newHandCards"`
	Total   int         `json:"total"`
	Busted  bool        `json:"busted"`
}

// Hit draws one card to the target hand. A bust does not end the hand;
// the player still has to stand on it.
func (s *Session) Hit(target int) (HitResult, error) {
	if err := s.checkTarget(target); err != nil {
		return HitResult{}, err
	}
	switch s.phase {
	case PhaseAwaitingFirstAction, PhasePlayingMain, PhasePlayingHand1, PhasePlayingHand2:
	default:
		return HitResult{}, fmt.Errorf("%w: hit in phase %s", ErrIllegalAction, s.phase)
	}

	// Draw before transitioning: a failed draw must not consume the
	// first-action window.
	r, err := s.cursor.Next()
	if err != nil {
		return HitResult{}, err
	}
	if s.phase == PhaseAwaitingFirstAction {
		s.phase = PhasePlayingMain
	}

	hand, num := s.activeHand()
	*hand = append(*hand, r.Card)
	s.recordDraw(r)

	return HitResult{
		NewCard: r.Card,
		Hand:    num,
		Cards:   append([]deck.Card(nil), *hand...),
		Total:   hand.Total(),
		Busted:  hand.IsBust(),
	}, nil
}

// recordDraw files a player draw into the partition the verifier
// expects it in.
func (s *Session) recordDraw(r deck.Reveal) {
	switch s.phase {
	case PhasePlayingHand1:
		s.hand1Extra = append(s.hand1Extra, r)
	case PhasePlayingHand2:
		s.hand2Extra = append(s.hand2Extra, r)
	default:
		s.playerExtra = append(s.playerExtra, r)
	}
}

// StandResult covers both stand outcomes: switching to the second
// split hand, or the dealer playing out.
type StandResult struct {
	HandSwitched bool        `json:"handSwitched"`
	ActiveHand   int         `json:"activeHand,omitempty"`
	NewHand2Card *deck.Card  `json:"newHand2Card,omitempty"`
	Hand2Cards   []deck.Card `json:"newHand2Cards,omitempty"`

	Settled     bool        `json:"settled"`
	DealerCards []deck.Card `json:"dealerFullHand,omitempty"`
	DealerTotal int         `json:"dealerTotal,omitempty"`
}

// Stand finishes the target hand. On hand 1 of a split it deals hand
// 2's second card and switches; otherwise the dealer plays out and the
// round settles.
func (s *Session) Stand(target int) (StandResult, error) {
	if err := s.checkTarget(target); err != nil {
		return StandResult{}, err
	}
	switch s.phase {
	case PhaseAwaitingFirstAction, PhasePlayingMain, PhasePlayingHand2:
		if err := s.dealerPlay(); err != nil {
			return StandResult{}, err
		}
		return StandResult{
			Settled:     true,
			DealerCards: append([]deck.Card(nil), s.dealer...),
			DealerTotal: s.dealer.Total(),
		}, nil

	case PhasePlayingHand1:
		r, err := s.cursor.Next()
		if err != nil {
			return StandResult{}, err
		}
		s.hand2 = append(s.hand2, r.Card)
		s.hand2Extra = append(s.hand2Extra, r)
		s.phase = PhasePlayingHand2
		return StandResult{
			HandSwitched: true,
			ActiveHand:   2,
			NewHand2Card: &r.Card,
			Hand2Cards:   append([]deck.Card(nil), s.hand2...),
		}, nil

	default:
		return StandResult{}, fmt.Errorf("%w: stand in phase %s", ErrIllegalAction, s.phase)
	}
}

// DoubleResult reports the single drawn card and the dealer's played
// hand; doubling always ends the player's turn.
type DoubleResult struct {
	NewCard     deck.Card   `json:"newCard"`
	PlayerCards []deck.Card `json:"playerFinalCards"`
	PlayerTotal int         `json:"playerTotal"`
	DealerCards []deck.Card `json:"dealerFullHand"`
	DealerTotal int         `json:"dealerTotal"`
}

// Double doubles the wager, draws exactly one card, and stands. Only
// legal as the first action of an unsplit hand.
func (s *Session) Double() (DoubleResult, error) {
	if s.phase != PhaseAwaitingFirstAction {
		return DoubleResult{}, fmt.Errorf("%w: double in phase %s", ErrIllegalAction, s.phase)
	}

	r, err := s.cursor.Next()
	if err != nil {
		return DoubleResult{}, err
	}
	s.doubled = true
	s.player = append(s.player, r.Card)
	s.playerExtra = append(s.playerExtra, r)

	if err := s.dealerPlay(); err != nil {
		return DoubleResult{}, err
	}
	return DoubleResult{
		NewCard:     r.Card,
		PlayerCards: append([]deck.Card(nil), s.player...),
		PlayerTotal: s.player.Total(),
		DealerCards: append([]deck.Card(nil), s.dealer...),
		DealerTotal: s.dealer.Total(),
	}, nil
}

// SplitResult reports both hands after the split; hand 2 waits for its
// second card until hand 1 stands.
type SplitResult struct {
	Hand1      []deck.Card `json:"hand1"`
	Hand2      []deck.Card `json:"hand2"`
	Hand1Total int         `json:"hand1Total"`
}

// Split separates a matched pair into two hands and deals hand 1 its
// second card. Only legal as the first action, once per round, and
// only when both cards share a value class (any two of 10/J/Q/K
// qualify).
func (s *Session) Split() (SplitResult, error) {
	if s.phase != PhaseAwaitingFirstAction || s.split {
		return SplitResult{}, fmt.Errorf("%w: split in phase %s", ErrIllegalAction, s.phase)
	}
	if !s.player.splittable() {
		return SplitResult{}, fmt.Errorf("%w: cards %s and %s are not a splittable pair",
			ErrIllegalAction, s.player[0], s.player[1])
	}

	s.split = true
	s.hand2 = Hand{s.player[1]}
	s.player = s.player[:1]
	s.phase = PhasePlayingHand1

	r, err := s.cursor.Next()
	if err != nil {
		return SplitResult{}, err
	}
	s.player = append(s.player, r.Card)
	s.hand1Extra = append(s.hand1Extra, r)

	return SplitResult{
		Hand1:      append([]deck.Card(nil), s.player...),
		Hand2:      append([]deck.Card(nil), s.hand2...),
		Hand1Total: s.player.Total(),
	}, nil
}

// dealerPlay reveals the hole card and draws to 17 or better, standing
// on all 17s including soft. The session is only mutated once the full
// dealer hand is drawn; a failed draw leaves it exactly as it was.
func (s *Session) dealerPlay() error {
	hole := s.secret.HoleReveal()
	dealer := append(append(Hand{}, s.dealer...), hole.Card)

	var draws []deck.Reveal
	for dealer.Total() < 17 {
		r, err := s.cursor.Next()
		if err != nil {
			return err
		}
		dealer = append(dealer, r.Card)
		draws = append(draws, r)
	}

	s.holeReveal = hole
	s.dealer = dealer
	s.dealerDraws = draws
	s.phase = PhaseSettled
	return nil
}

package game

import (
	"sync"
	"sync/atomic"
)

// slot holds everything the store knows about one player: at most one
// live session and at most one completed round awaiting its claim.
// The slot mutex serializes every state transition for that player.
type slot struct {
	mu        sync.Mutex
	active    *Session
	completed *CompletedRound
}

// Store keeps per-player slots. Players are fully isolated: actions on
// different players never contend on the same lock, and nothing in a
// round can read another player's state.
type Store struct {
	mu    sync.Mutex
	slots map[string]*slot

	// Counted on session set/clear so the gauge can be read without
	// touching slot locks.
	active atomic.Int64
}

func NewStore() *Store {
	return &Store{slots: make(map[string]*slot)}
}

// acquire returns the player's slot, creating it on first contact. The
// store lock guards only the map; per-player work runs under the slot
// lock.
func (st *Store) acquire(player string) *slot {
	st.mu.Lock()
	defer st.mu.Unlock()
	s, ok := st.slots[player]
	if !ok {
		s = &slot{}
		st.slots[player] = s
	}
	return s
}

// setActive swaps in a new session for an already-locked slot and
// keeps the active count straight.
func (st *Store) setActive(sl *slot, s *Session) {
	if sl.active == nil && s != nil {
		st.active.Add(1)
	}
	if sl.active != nil && s == nil {
		st.active.Add(-1)
	}
	sl.active = s
}

// ActiveSessions counts players with a round in progress.
func (st *Store) ActiveSessions() int {
	return int(st.active.Load())
}

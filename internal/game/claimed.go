package game

import (
	"container/list"
	"sync"
)

// claimedLRU remembers recently claimed round ids so a repeated
// settlement-proof fetch can be told apart from a player who never
// finished a round. Both fail the same way; the distinction only
// feeds logs and metrics.
type claimedLRU struct {
	mu       sync.Mutex
	capacity int
	cache    map[string]*list.Element
	order    *list.List
}

func newClaimedLRU(capacity int) *claimedLRU {
	return &claimedLRU{
		capacity: capacity,
		cache:    make(map[string]*list.Element, capacity),
		order:    list.New(),
	}
}

// Contains checks membership and promotes the entry.
func (l *claimedLRU) Contains(roundID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	elem, ok := l.cache[roundID]
	if ok {
		l.order.MoveToFront(elem)
	}
	return ok
}

// Add records a claimed round, evicting the oldest entry over
// capacity.
func (l *claimedLRU) Add(roundID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if elem, ok := l.cache[roundID]; ok {
		l.order.MoveToFront(elem)
		return
	}

	l.cache[roundID] = l.order.PushFront(roundID)
	if l.order.Len() > l.capacity {
		oldest := l.order.Back()
		if oldest != nil {
			l.order.Remove(oldest)
			delete(l.cache, oldest.Value.(string))
		}
	}
}

func (l *claimedLRU) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.order.Len()
}

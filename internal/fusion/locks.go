package fusion

import (
	"sync"
	"time"
)

// keyLocks serializes merges per (category, lookup key). Disjoint keys
// proceed in parallel; acquisition gives up after the wait budget. Slots are
// refcounted and dropped once the last holder or waiter leaves, so the map
// stays bounded by in-flight keys rather than key history.
type keyLocks struct {
	mu    sync.Mutex
	slots map[string]*lockSlot
}

type lockSlot struct {
	ch   chan struct{}
	refs int
}

func newKeyLocks() *keyLocks {
	return &keyLocks{slots: make(map[string]*lockSlot)}
}

func (l *keyLocks) acquire(key string, wait time.Duration) bool {
	l.mu.Lock()
	slot, ok := l.slots[key]
	if !ok {
		slot = &lockSlot{ch: make(chan struct{}, 1)}
		l.slots[key] = slot
	}
	slot.refs++
	l.mu.Unlock()

	timer := time.NewTimer(wait)
	defer timer.Stop()

	select {
	case slot.ch <- struct{}{}:
		return true
	case <-timer.C:
		l.mu.Lock()
		l.drop(key, slot)
		l.mu.Unlock()
		return false
	}
}

func (l *keyLocks) release(key string) {
	l.mu.Lock()
	slot := l.slots[key]
	l.mu.Unlock()

	<-slot.ch

	l.mu.Lock()
	l.drop(key, slot)
	l.mu.Unlock()
}

// drop must be called with mu held. The slot stays mapped while any holder
// or waiter still references it.
func (l *keyLocks) drop(key string, slot *lockSlot) {
	slot.refs--
	if slot.refs == 0 {
		delete(l.slots, key)
	}
}

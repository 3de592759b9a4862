package parker

import (
	"sync/atomic"
	"time"
)

// Key word states shared by the keyed event and wait table backends.
const (
	stateUnparked = 0
	stateParked   = 1
	stateTimedOut = 2
)

// tableBackend emulates keyed events on the Go scheduler. Each armed key
// maps to a one-slot wake channel; a release for a key is a buffered send,
// so unlike the kernel version it never blocks the waker.
//
// Every cycle carries at most one send: unparkLock claims the cycle by
// swapping the word out of stateParked, and a timed-out waiter claims it by
// swapping to stateTimedOut. Whoever loses that race observes the other's
// state, so the channel can never hold a stale wake across cycles.
type tableBackend struct {
	waiters waiterTable
}

func newTableBackend() (backend, error) {
	return newTable(), nil
}

// newTable builds a table backend with its store initialized up front, so
// no lazy initialization races with the first concurrent prepare.
func newTable() *tableBackend {
	return &tableBackend{waiters: newWaiterTable()}
}

func (t *tableBackend) name() string {
	return "table"
}

func (t *tableBackend) prepare(key *atomic.Uint32) {
	key.Store(stateParked)
	ch := t.waiters.loadOrCreate(keyOf(key))
	// A cycle that was prepared but never parked leaves its channel behind.
	select {
	case <-ch:
	default:
	}
}

func (t *tableBackend) channel(key *atomic.Uint32) chan struct{} {
	ch, ok := t.waiters.load(keyOf(key))
	if !ok {
		panic("parker: key is not prepared")
	}
	return ch
}

func (t *tableBackend) park(key *atomic.Uint32) {
	ch := t.channel(key)
	<-ch
	t.waiters.delete(keyOf(key))
}

func (t *tableBackend) parkUntil(key *atomic.Uint32, deadline time.Time) bool {
	ch := t.channel(key)
	if d := time.Until(deadline); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-ch:
			timer.Stop()
			t.waiters.delete(keyOf(key))
			return true
		case <-timer.C:
		}
	}

	if key.CompareAndSwap(stateParked, stateTimedOut) {
		t.waiters.delete(keyOf(key))
		return false
	}

	// An unparker claimed this cycle before the deadline was recorded; its
	// send is in flight, absorb it.
	<-ch
	t.waiters.delete(keyOf(key))
	return true
}

func (t *tableBackend) timedOut(key *atomic.Uint32) bool {
	return key.Load() == stateTimedOut
}

func (t *tableBackend) unparkLock(key *atomic.Uint32) UnparkHandle {
	if key.Swap(stateUnparked) != stateParked {
		return UnparkHandle{}
	}
	return UnparkHandle{b: t, key: key, ch: t.channel(key)}
}

func (t *tableBackend) unpark(h *UnparkHandle) {
	h.ch <- struct{}{}
}

// Package parker provides the blocking and waking primitive that queue-based
// locks are built from.
//
// A ThreadParker is a per-waiter handle over a 32-bit state word whose
// address is the waiter's key. The active backend (futex on Linux,
// WaitOnAddress or NT keyed events on Windows, a portable wait table
// elsewhere) is probed once per process and shared by every parker.
//
// The caller owns a queue lock and must follow this protocol:
//
//	// waiter
//	mu.Lock()
//	p.PreparePark()
//	enqueue(p)
//	mu.Unlock()
//	if !p.ParkUntil(deadline) {
//		mu.Lock()
//		if p.TimedOut() {
//			dequeue(p) // still queued: a real timeout
//		}
//		mu.Unlock()
//	}
//
//	// waker
//	mu.Lock()
//	p := dequeue()
//	h := p.UnparkLock()
//	mu.Unlock()
//	h.Unpark()
package parker

import (
	"sync/atomic"
	"time"

	"github.com/llxisdsh/parker/internal/opt"
)

// IsCheapToConstruct reports that a ThreadParker is a few words and may be
// created per wait rather than cached per goroutine.
const IsCheapToConstruct = true

// ThreadParker puts a goroutine, and the OS thread under it, to sleep until
// another goroutine wakes it.
//
// The zero value is ready to use and binds to the process backend on first
// use. A ThreadParker must not be copied after first use; its address is
// its key.
type ThreadParker struct {
	_   noCopy
	key opt.KeyWord_
	b   backend
}

// New returns a ThreadParker bound to the process backend.
//
// Binding eagerly here keeps a missing wait facility from surfacing later,
// in the middle of a lock operation. New panics with *UnsupportedError if the
// host has none.
func New() *ThreadParker {
	p := &ThreadParker{}
	p.b = getBackend()
	return p
}

func (p *ThreadParker) backend() backend {
	if p.b == nil {
		p.b = getBackend()
	}
	return p.b
}

// Key returns the address-sized key identifying this parker's wait slot.
func (p *ThreadParker) Key() uintptr {
	return keyOf(&p.key.W)
}

// PreparePark arms the parker. It must be called before the parker becomes
// visible to any goroutine that might unpark it.
func (p *ThreadParker) PreparePark() {
	p.backend().prepare(&p.key.W)
}

// TimedOut reports whether a ParkUntil that returned false really timed out.
// It must be called while holding the queue lock; false means a waker has
// already dequeued this parker and its wake is in flight or delivered.
func (p *ThreadParker) TimedOut() bool {
	return p.backend().timedOut(&p.key.W)
}

// Park blocks until the parker is unparked. It must be called after the
// parker has been queued, without holding the queue lock.
func (p *ThreadParker) Park() {
	p.backend().park(&p.key.W)
}

// ParkUntil blocks until the parker is unparked or the deadline passes.
// It must be called after the parker has been queued, without holding the
// queue lock. It returns true if unparked and false if the deadline passed;
// a false result must be confirmed with TimedOut under the queue lock.
func (p *ThreadParker) ParkUntil(deadline time.Time) bool {
	return p.backend().parkUntil(&p.key.W, deadline)
}

// ParkFor is ParkUntil with a deadline d from now.
func (p *ThreadParker) ParkFor(d time.Duration) bool {
	return p.ParkUntil(time.Now().Add(d))
}

// UnparkLock marks the parker as unparked and returns the handle that
// performs the wake. It must be called while holding the queue lock, and the
// returned handle must be unparked once the lock is released.
func (p *ThreadParker) UnparkLock() UnparkHandle {
	return p.backend().unparkLock(&p.key.W)
}

// UnparkHandle is a pending wake for one parker. We need to mark the parker
// as unparked while holding the queue lock, but we delay the actual wake
// until after the queue lock is released.
//
// Dropping a handle without calling Unpark can leave its parker asleep
// forever.
type UnparkHandle struct {
	b   backend
	key *atomic.Uint32 // nil when there is nothing to wake
	ch  chan struct{}  // wait table backend only
}

// Unpark wakes the parker the handle was taken from. It must be called after
// the queue lock is released. The handle is consumed; calling Unpark again
// does nothing.
func (h *UnparkHandle) Unpark() {
	if h.key == nil {
		*h = UnparkHandle{}
		return
	}
	pending := *h
	*h = UnparkHandle{}
	pending.b.unpark(&pending)
}

// Package waitq is a minimal wait queue driven by parker.ThreadParker.
//
// It exists to exercise the park/unpark protocol from the caller's side: a
// SpinLock guards a FIFO list of parked goroutines, and every transition
// follows the order the parker requires. It makes no fairness or
// starvation promises beyond FIFO wake order.
package waitq

import (
	"sync"
	"time"

	"github.com/llxisdsh/parker"
)

type waiter struct {
	p          parker.ThreadParker
	prev, next *waiter
}

var waiterPool = sync.Pool{
	New: func() any { return new(waiter) },
}

// Queue is a FIFO of parked goroutines. The zero value is an empty queue.
type Queue struct {
	_    noCopy
	mu   SpinLock
	head *waiter
	tail *waiter
	n    int
}

// Wait parks the caller until NotifyOne or NotifyAll selects it.
func (q *Queue) Wait() {
	w := q.enqueue()
	w.p.Park()
	waiterPool.Put(w)
}

// WaitUntil is Wait with a deadline. It returns false if the deadline passed
// while the caller was still queued; a notification that raced with the
// deadline counts as delivered.
func (q *Queue) WaitUntil(deadline time.Time) bool {
	w := q.enqueue()
	woken := w.p.ParkUntil(deadline)
	if !woken {
		q.mu.Lock()
		if w.p.TimedOut() {
			q.remove(w)
		} else {
			// A notifier dequeued us before we relocked.
			woken = true
		}
		q.mu.Unlock()
	}
	waiterPool.Put(w)
	return woken
}

// WaitFor is WaitUntil with a deadline d from now.
func (q *Queue) WaitFor(d time.Duration) bool {
	return q.WaitUntil(time.Now().Add(d))
}

// NotifyOne wakes the longest-waiting goroutine. It reports whether there
// was one.
func (q *Queue) NotifyOne() bool {
	q.mu.Lock()
	w := q.head
	if w == nil {
		q.mu.Unlock()
		return false
	}
	q.remove(w)
	h := w.p.UnparkLock()
	q.mu.Unlock()

	h.Unpark()
	return true
}

// NotifyAll wakes every queued goroutine and returns how many there were.
func (q *Queue) NotifyAll() int {
	q.mu.Lock()
	handles := make([]parker.UnparkHandle, 0, q.n)
	for w := q.head; w != nil; {
		next := w.next
		w.prev, w.next = nil, nil
		handles = append(handles, w.p.UnparkLock())
		w = next
	}
	q.head, q.tail, q.n = nil, nil, 0
	q.mu.Unlock()

	for i := range handles {
		handles[i].Unpark()
	}
	return len(handles)
}

// Len returns the number of queued goroutines.
func (q *Queue) Len() int {
	q.mu.Lock()
	n := q.n
	q.mu.Unlock()
	return n
}

// enqueue arms a pooled parker and publishes it, in that order.
func (q *Queue) enqueue() *waiter {
	w := waiterPool.Get().(*waiter)
	q.mu.Lock()
	w.p.PreparePark()
	w.prev = q.tail
	if q.tail == nil {
		q.head = w
	} else {
		q.tail.next = w
	}
	q.tail = w
	q.n++
	q.mu.Unlock()
	return w
}

// remove unlinks w; q.mu must be held.
func (q *Queue) remove(w *waiter) {
	if w.prev == nil {
		q.head = w.next
	} else {
		w.prev.next = w.next
	}
	if w.next == nil {
		q.tail = w.prev
	} else {
		w.next.prev = w.prev
	}
	w.prev, w.next = nil, nil
	q.n--
}

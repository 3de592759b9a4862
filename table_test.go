package parker

import (
	"testing"
	"time"

	"golang.org/x/sync/errgroup"
)

func newTableParker(t *testing.T) (*tableBackend, *ThreadParker) {
	t.Helper()
	b, err := newTableBackend()
	if err != nil {
		t.Fatal(err)
	}
	tb := b.(*tableBackend)
	return tb, &ThreadParker{b: tb}
}

func TestTable_EntryLifecycle(t *testing.T) {
	tb, p := newTableParker(t)

	p.PreparePark()
	if _, ok := tb.waiters.load(p.Key()); !ok {
		t.Fatal("PreparePark did not register the key")
	}
	h := p.UnparkLock()
	if h.ch == nil {
		t.Fatal("handle for a parked key carries no channel")
	}
	h.Unpark()
	p.Park()
	if _, ok := tb.waiters.load(p.Key()); ok {
		t.Fatal("Park left the key registered")
	}

	p.PreparePark()
	if p.ParkUntil(time.Now()) {
		t.Fatal("ParkUntil(now) reported a wake")
	}
	if _, ok := tb.waiters.load(p.Key()); ok {
		t.Fatal("timed-out ParkUntil left the key registered")
	}
	if !p.TimedOut() {
		t.Fatal("TimedOut = false after a timeout")
	}
}

func TestTable_UnparkLockAfterTimeout(t *testing.T) {
	_, p := newTableParker(t)
	p.PreparePark()
	if p.ParkUntil(time.Now().Add(-time.Millisecond)) {
		t.Fatal("unexpected wake")
	}

	// A waker that dequeues after the deadline owes nothing.
	h := p.UnparkLock()
	if h != (UnparkHandle{}) {
		t.Fatal("timed-out parker produced a non-empty handle")
	}
	h.Unpark()
	if p.TimedOut() {
		t.Fatal("TimedOut = true after a waker dequeued the parker")
	}
}

func TestTable_UnparkLockUnprepared(t *testing.T) {
	_, p := newTableParker(t)
	if h := p.UnparkLock(); h != (UnparkHandle{}) {
		t.Fatal("unprepared parker produced a non-empty handle")
	}
}

func TestTable_PrepareWithoutPark(t *testing.T) {
	tb, p := newTableParker(t)

	// The lock algorithm may arm, then find it need not sleep after all.
	p.PreparePark()
	p.PreparePark()
	ch, _ := tb.waiters.load(p.Key())
	if len(ch) != 0 {
		t.Fatal("rearming left a pending wake")
	}

	done := make(chan struct{})
	go func() {
		p.Park()
		close(done)
	}()
	select {
	case <-done:
		t.Fatal("Park returned without a wake")
	case <-time.After(20 * time.Millisecond):
	}
	h := p.UnparkLock()
	h.Unpark()
	waitDone(t, done, "Park")
}

func TestTable_ParkWithoutPreparePanics(t *testing.T) {
	_, p := newTableParker(t)
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	p.Park()
}

func TestTable_ConcurrentCycles(t *testing.T) {
	const (
		goroutines = 8
		cycles     = 100
	)
	b, err := newTableBackend()
	if err != nil {
		t.Fatal(err)
	}
	var g errgroup.Group
	for range goroutines {
		g.Go(func() error {
			p := &ThreadParker{b: b}
			for range cycles {
				p.PreparePark()
				h := p.UnparkLock()
				h.Unpark()
				p.Park()
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

func TestTable_ConcurrentCrossWakes(t *testing.T) {
	const (
		pairs  = 8
		cycles = 100
	)
	b, err := newTableBackend()
	if err != nil {
		t.Fatal(err)
	}
	var g errgroup.Group
	for range pairs {
		p := &ThreadParker{b: b}
		armed := make(chan struct{})
		woken := make(chan struct{})
		g.Go(func() error {
			for range cycles {
				p.PreparePark()
				armed <- struct{}{}
				p.Park()
				woken <- struct{}{}
			}
			return nil
		})
		g.Go(func() error {
			for range cycles {
				<-armed
				h := p.UnparkLock()
				h.Unpark()
				<-woken
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatal(err)
	}
}

package parker

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/unix"
)

const (
	futexWait        = 0
	futexWake        = 1
	futexPrivateFlag = 128

	futexWaitPrivate = futexWait | futexPrivateFlag
	futexWakePrivate = futexWake | futexPrivateFlag
)

var nativeProbes = []probe{
	{facility: "futex(2)", create: newFutexBackend},
}

// futexBackend parks on the key word itself: 1 while parked, 0 once
// unparked. A timed-out waiter leaves the word at 1, which is what
// timedOut reports.
type futexBackend struct{}

func newFutexBackend() (backend, error) {
	var word uint32
	_, _, e := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(&word)),
		futexWakePrivate, 1, 0, 0, 0)
	if e != 0 {
		return nil, fmt.Errorf("FUTEX_WAKE_PRIVATE probe: %w", e)
	}
	return futexBackend{}, nil
}

func (futexBackend) name() string {
	return "futex"
}

func (futexBackend) prepare(key *atomic.Uint32) {
	key.Store(1)
}

func (futexBackend) timedOut(key *atomic.Uint32) bool {
	return key.Load() != 0
}

func (futexBackend) park(key *atomic.Uint32) {
	for key.Load() != 0 {
		futexWaitOn(key, nil)
	}
}

func (futexBackend) parkUntil(key *atomic.Uint32, deadline time.Time) bool {
	for key.Load() != 0 {
		d := time.Until(deadline)
		if d <= 0 {
			return false
		}
		ts := unix.NsecToTimespec(d.Nanoseconds())
		futexWaitOn(key, &ts)
	}
	return true
}

func (futexBackend) unparkLock(key *atomic.Uint32) UnparkHandle {
	// Release so the woken waiter observes everything written under the
	// queue lock.
	key.Store(0)
	return UnparkHandle{b: futexBackend{}, key: key}
}

func (futexBackend) unpark(h *UnparkHandle) {
	// The waiter may already have returned and reused its word; a wake on an
	// unwatched address is harmless.
	_, _, e := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(h.key)),
		futexWakePrivate, 1, 0, 0, 0)
	if e != 0 {
		panic(fmt.Sprintf("parker: FUTEX_WAKE failed: %v", e))
	}
}

// futexWaitOn sleeps while *key == 1, until woken, interrupted, or ts
// elapses. The caller re-checks the word in every case.
func futexWaitOn(key *atomic.Uint32, ts *unix.Timespec) {
	_, _, e := unix.Syscall6(unix.SYS_FUTEX, uintptr(unsafe.Pointer(key)),
		futexWaitPrivate, 1, uintptr(unsafe.Pointer(ts)), 0, 0)
	switch e {
	case 0, unix.EINTR, unix.EAGAIN, unix.ETIMEDOUT:
	default:
		panic(fmt.Sprintf("parker: FUTEX_WAIT failed: %v", e))
	}
}

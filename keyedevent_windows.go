package parker

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modNtdll                = windows.NewLazySystemDLL("ntdll.dll")
	procNtCreateKeyedEvent  = modNtdll.NewProc("NtCreateKeyedEvent")
	procNtReleaseKeyedEvent = modNtdll.NewProc("NtReleaseKeyedEvent")
	procNtWaitForKeyedEvent = modNtdll.NewProc("NtWaitForKeyedEvent")
)

const statusTimeout windows.NTStatus = 0x00000102

// keyedEventBackend waits on a process-private keyed event, using the key
// word's address as the event key.
//
// NtReleaseKeyedEvent blocks until a thread waits on the same key, so every
// claimed cycle must end in exactly one wait: a waiter whose deadline passes
// after an unparker swapped its word to stateUnparked waits once more to
// take that release.
type keyedEventBackend struct {
	handle windows.Handle
}

func newKeyedEventBackend() (backend, error) {
	if err := findProcs(procNtCreateKeyedEvent, procNtReleaseKeyedEvent, procNtWaitForKeyedEvent); err != nil {
		return nil, err
	}
	var h windows.Handle
	r, _, _ := procNtCreateKeyedEvent.Call(
		uintptr(unsafe.Pointer(&h)),
		windows.GENERIC_READ|windows.GENERIC_WRITE,
		0,
		0,
	)
	if st := windows.NTStatus(r); st != windows.STATUS_SUCCESS {
		return nil, fmt.Errorf("NtCreateKeyedEvent: %w", st)
	}
	return &keyedEventBackend{handle: h}, nil
}

// Close releases the event handle of a backend that lost publication.
func (k *keyedEventBackend) Close() error {
	return windows.CloseHandle(k.handle)
}

func (k *keyedEventBackend) name() string {
	return "keyedevent"
}

func (k *keyedEventBackend) prepare(key *atomic.Uint32) {
	key.Store(stateParked)
}

func (k *keyedEventBackend) timedOut(key *atomic.Uint32) bool {
	return key.Load() == stateTimedOut
}

func (k *keyedEventBackend) park(key *atomic.Uint32) {
	k.wait(key, nil)
}

func (k *keyedEventBackend) parkUntil(key *atomic.Uint32, deadline time.Time) bool {
	// The kernel timer may fire a tick early; wait out the remainder.
	for d := time.Until(deadline); d > 0; d = time.Until(deadline) {
		// Relative timeouts are negative, in 100ns units.
		nt := -int64((d + 99) / 100)
		if st := k.wait(key, &nt); st == windows.STATUS_SUCCESS {
			return true
		}
	}

	// If another thread unparked us, we need to call NtWaitForKeyedEvent
	// otherwise that thread will stay stuck at NtReleaseKeyedEvent.
	if key.Swap(stateTimedOut) == stateUnparked {
		k.wait(key, nil)
		return true
	}
	return false
}

func (k *keyedEventBackend) unparkLock(key *atomic.Uint32) UnparkHandle {
	// Only a parked waiter is owed a release; a timed-out one is not waiting.
	if key.Swap(stateUnparked) != stateParked {
		return UnparkHandle{}
	}
	return UnparkHandle{b: k, key: key}
}

func (k *keyedEventBackend) unpark(h *UnparkHandle) {
	r, _, _ := procNtReleaseKeyedEvent.Call(uintptr(k.handle), uintptr(unsafe.Pointer(h.key)), 0, 0)
	if st := windows.NTStatus(r); st != windows.STATUS_SUCCESS {
		panic(fmt.Sprintf("parker: NtReleaseKeyedEvent failed: %v", st))
	}
}

func (k *keyedEventBackend) wait(key *atomic.Uint32, timeout *int64) windows.NTStatus {
	r, _, _ := procNtWaitForKeyedEvent.Call(
		uintptr(k.handle),
		uintptr(unsafe.Pointer(key)),
		0,
		uintptr(unsafe.Pointer(timeout)),
	)
	st := windows.NTStatus(r)
	if st != windows.STATUS_SUCCESS && st != statusTimeout {
		panic(fmt.Sprintf("parker: NtWaitForKeyedEvent failed: %v", st))
	}
	return st
}

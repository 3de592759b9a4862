package parker

import (
	"fmt"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	modSynch                = windows.NewLazySystemDLL("api-ms-win-core-synch-l1-2-0.dll")
	procWaitOnAddress       = modSynch.NewProc("WaitOnAddress")
	procWakeByAddressSingle = modSynch.NewProc("WakeByAddressSingle")
)

// waitAddressBackend uses the same word protocol as futexBackend:
// 1 while parked, 0 once unparked.
type waitAddressBackend struct{}

func newWaitAddressBackend() (backend, error) {
	if err := findProcs(procWaitOnAddress, procWakeByAddressSingle); err != nil {
		return nil, err
	}
	return waitAddressBackend{}, nil
}

func (waitAddressBackend) name() string {
	return "waitaddress"
}

func (waitAddressBackend) prepare(key *atomic.Uint32) {
	key.Store(1)
}

func (waitAddressBackend) timedOut(key *atomic.Uint32) bool {
	return key.Load() != 0
}

func (waitAddressBackend) park(key *atomic.Uint32) {
	for key.Load() != 0 {
		waitOnAddress(key, windows.INFINITE)
	}
}

func (waitAddressBackend) parkUntil(key *atomic.Uint32, deadline time.Time) bool {
	for key.Load() != 0 {
		d := time.Until(deadline)
		if d <= 0 {
			return false
		}
		// Round up so we never wake just short of the deadline and spin.
		ms := (d + time.Millisecond - 1) / time.Millisecond
		if ms >= windows.INFINITE {
			ms = windows.INFINITE - 1
		}
		waitOnAddress(key, uint32(ms))
	}
	return true
}

func (waitAddressBackend) unparkLock(key *atomic.Uint32) UnparkHandle {
	key.Store(0)
	return UnparkHandle{b: waitAddressBackend{}, key: key}
}

func (waitAddressBackend) unpark(h *UnparkHandle) {
	_, _, _ = procWakeByAddressSingle.Call(uintptr(unsafe.Pointer(h.key)))
}

func waitOnAddress(key *atomic.Uint32, ms uint32) {
	cmp := uint32(1)
	r, _, err := procWaitOnAddress.Call(
		uintptr(unsafe.Pointer(key)),
		uintptr(unsafe.Pointer(&cmp)),
		unsafe.Sizeof(cmp),
		uintptr(ms),
	)
	if r == 0 && err != windows.ERROR_TIMEOUT {
		panic(fmt.Sprintf("parker: WaitOnAddress failed: %v", err))
	}
}

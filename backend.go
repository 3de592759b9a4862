package parker

import (
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"sync/atomic"
	"time"

	"github.com/llxisdsh/parker/internal/opt"
)

// backend is one strategy for blocking and waking on a parker's key word.
// Exactly one backend is active per process; it is immutable after
// construction and safe for concurrent use on independent keys.
type backend interface {
	// name identifies the native facility, e.g. "futex".
	name() string
	// prepare arms key for a future wait.
	prepare(key *atomic.Uint32)
	// park blocks until key is unparked.
	park(key *atomic.Uint32)
	// parkUntil is park with a deadline. It returns false if the deadline
	// passed before a wake was observed.
	parkUntil(key *atomic.Uint32, deadline time.Time) bool
	// timedOut disambiguates a false parkUntil; it must be called while the
	// caller holds its queue lock.
	timedOut(key *atomic.Uint32) bool
	// unparkLock marks key as unparked without waking it.
	unparkLock(key *atomic.Uint32) UnparkHandle
	// unpark performs the wake captured by unparkLock.
	unpark(h *UnparkHandle)
}

// probe constructs a backend if the host offers its facility.
type probe struct {
	facility string
	create   func() (backend, error)
}

var errUnsupported = errors.New("not supported on this platform")

var tableProbe = probe{
	facility: "the portable wait table",
	create:   newTableBackend,
}

// defaultProbes is the process-wide priority list: native facilities in
// platform order, then the portable table unless disabled by build tag.
func defaultProbes() []probe {
	if opt.ForcePortable_ {
		return []probe{tableProbe}
	}
	probes := append([]probe(nil), nativeProbes...)
	if !opt.NativeOnly_ {
		probes = append(probes, tableProbe)
	}
	return probes
}

// UnsupportedError is the panic value raised when no wait facility can be
// constructed. A process without one cannot block correctly, so there is no
// recovery path; the value exists to make the diagnostic inspectable.
type UnsupportedError struct {
	// Facilities lists what was probed, in priority order.
	Facilities []string
	// Err joins the reason each probe failed.
	Err error
}

func (e *UnsupportedError) Error() string {
	var b strings.Builder
	b.WriteString("parker: ")
	if len(e.Facilities) == 0 {
		fmt.Fprintf(&b, "no wait facility is configured for %s/%s",
			runtime.GOOS, runtime.GOARCH)
	} else {
		b.WriteString("requires ")
		b.WriteString(strings.Join(e.Facilities, " or "))
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(strings.ReplaceAll(e.Err.Error(), "\n", "; "))
	}
	return b.String()
}

func (e *UnsupportedError) Unwrap() error {
	return e.Err
}

// createBackend runs probes in order and returns the first backend built.
func createBackend(probes []probe) (backend, error) {
	facilities := make([]string, 0, len(probes))
	var errs []error
	for _, p := range probes {
		b, err := p.create()
		if err == nil {
			return b, nil
		}
		facilities = append(facilities, p.facility)
		errs = append(errs, fmt.Errorf("%s: %w", p.facility, err))
	}
	return nil, &UnsupportedError{Facilities: facilities, Err: errors.Join(errs...)}
}

type backendBox struct {
	b backend
}

// selector is a lock-free initialize-once slot for the active backend.
//
// Construction may run on several goroutines at once; the first CAS wins and
// every loser discards its own backend. Probes have no side effects beyond
// the OS query, so redundant runs are harmless.
type selector struct {
	_    noCopy
	slot atomic.Pointer[backendBox]
}

func (s *selector) get(probes []probe) backend {
	// Fast path: use the published backend
	if box := s.slot.Load(); box != nil {
		return box.b
	}
	return s.getSlow(probes)
}

func (s *selector) getSlow(probes []probe) backend {
	b, err := createBackend(probes)
	if err != nil {
		panic(err)
	}

	box := &backendBox{b: b}
	if s.slot.CompareAndSwap(nil, box) {
		return b
	}

	// We lost the race, release our object and return the global one
	if c, ok := b.(io.Closer); ok {
		_ = c.Close()
	}
	return s.slot.Load().b
}

var (
	globalSelector selector
	globalProbes   = defaultProbes()
)

// getBackend returns the process-wide backend, constructing it on first use.
// It panics with *UnsupportedError if the host has no usable facility.
func getBackend() backend {
	return globalSelector.get(globalProbes)
}

// BackendName reports the wait facility selected for this process,
// constructing it if no parker has done so yet.
func BackendName() string {
	return getBackend().name()
}

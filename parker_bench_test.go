package parker

import (
	"io"
	"runtime"
	"testing"
	"time"
)

func BenchmarkParker_PingPong(b *testing.B) {
	for _, be := range availableBenchBackends(b) {
		b.Run(be.name(), func(b *testing.B) {
			benchmarkPingPong(b, be)
		})
	}
}

func benchmarkPingPong(b *testing.B, be backend) {
	var ping, pong slot
	pa, pb := &ThreadParker{b: be}, &ThreadParker{b: be}
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range b.N {
			ping.enqueue(pa)
			for !pong.wake() {
				runtime.Gosched()
			}
			pa.Park()
		}
	}()

	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		pong.enqueue(pb)
		for !ping.wake() {
			runtime.Gosched()
		}
		pb.Park()
	}
	<-done
}

func BenchmarkParker_TimeoutCycle(b *testing.B) {
	p := New()
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		p.PreparePark()
		p.ParkUntil(time.Now())
	}
}

func BenchmarkParker_UncontendedCycle(b *testing.B) {
	if BackendName() == "keyedevent" {
		b.Skip("keyed event releases block until a waiter arrives")
	}
	p := New()
	b.ReportAllocs()
	b.ResetTimer()
	for range b.N {
		p.PreparePark()
		h := p.UnparkLock()
		h.Unpark()
		p.Park()
	}
}

func availableBenchBackends(b *testing.B) []backend {
	var bs []backend
	for _, p := range append(append([]probe(nil), nativeProbes...), tableProbe) {
		be, err := p.create()
		if err != nil {
			continue
		}
		if c, ok := be.(io.Closer); ok {
			b.Cleanup(func() { _ = c.Close() })
		}
		bs = append(bs, be)
	}
	return bs
}

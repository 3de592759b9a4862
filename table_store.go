//go:build !race

package parker

import "github.com/llxisdsh/pb"

// waiterTable maps an armed key to its wake channel.
//
// pb.MapOf reads buckets with plain loads on TSO architectures, which the
// race detector reports; race builds use table_store_race.go instead.
type waiterTable struct {
	m *pb.MapOf[uintptr, chan struct{}]
}

func newWaiterTable() waiterTable {
	return waiterTable{m: pb.NewMapOf[uintptr, chan struct{}]()}
}

// loadOrCreate returns key's channel, installing a fresh one if absent.
func (w waiterTable) loadOrCreate(key uintptr) chan struct{} {
	ch, _ := w.m.ProcessEntry(
		key,
		func(e *pb.EntryOf[uintptr, chan struct{}]) (*pb.EntryOf[uintptr, chan struct{}], chan struct{}, bool) {
			if e != nil {
				return e, e.Value, true
			}
			ch := make(chan struct{}, 1)
			return &pb.EntryOf[uintptr, chan struct{}]{Value: ch}, ch, false
		},
	)
	return ch
}

func (w waiterTable) load(key uintptr) (chan struct{}, bool) {
	return w.m.Load(key)
}

func (w waiterTable) delete(key uintptr) {
	w.m.Delete(key)
}

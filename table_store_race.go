//go:build race

package parker

import "sync"

// waiterTable maps an armed key to its wake channel.
//
// Under the race detector every access must be a visible atomic, so this
// build trades pb.MapOf's plain-load fast path for sync.Map.
type waiterTable struct {
	m *sync.Map
}

func newWaiterTable() waiterTable {
	return waiterTable{m: new(sync.Map)}
}

// loadOrCreate returns key's channel, installing a fresh one if absent.
func (w waiterTable) loadOrCreate(key uintptr) chan struct{} {
	if v, ok := w.m.Load(key); ok {
		return v.(chan struct{})
	}
	v, _ := w.m.LoadOrStore(key, make(chan struct{}, 1))
	return v.(chan struct{})
}

func (w waiterTable) load(key uintptr) (chan struct{}, bool) {
	v, ok := w.m.Load(key)
	if !ok {
		return nil, false
	}
	return v.(chan struct{}), true
}

func (w waiterTable) delete(key uintptr) {
	w.m.Delete(key)
}

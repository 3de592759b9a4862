//go:build parker_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// KeyWord_ is the state word a parker publishes as its key.
// Padding is force-enabled via the parker_enable_padding build tag.
// Use: go build -tags=parker_enable_padding
type KeyWord_ struct {
	W atomic.Uint32
	_ [(CacheLineSize_ - unsafe.Sizeof(uint32(0))%CacheLineSize_) % CacheLineSize_]byte
}

//go:build parker_disable_padding

package opt

import "sync/atomic"

// KeyWord_ is the state word a parker publishes as its key.
// Padding is force-disabled via the parker_disable_padding build tag.
// Use: go build -tags=parker_disable_padding
type KeyWord_ struct {
	W atomic.Uint32
}

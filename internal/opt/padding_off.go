//go:build (amd64 || 386 || arm || mips || mipsle || wasm) && !parker_disable_padding && !parker_enable_padding

package opt

import "sync/atomic"

// KeyWord_ is the state word a parker publishes as its key.
// Padding is disabled by default for:
// - amd64
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
type KeyWord_ struct {
	W atomic.Uint32
}

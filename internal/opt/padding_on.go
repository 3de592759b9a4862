//go:build !(amd64 || 386 || arm || mips || mipsle || wasm) && !parker_disable_padding && !parker_enable_padding

package opt

import (
	"sync/atomic"
	"unsafe"
)

// KeyWord_ is the state word a parker publishes as its key.
// Waiters and wakers hammer it from different cores, so it gets a cache line
// of its own on architectures that are NOT:
// - amd64 (x86_64)
// - 32-bit architectures (386, arm, mips, mipsle, wasm)
//
// Enabled for: arm64, s390x, ppc64, ppc64le, riscv64, loong64, mips64, mips64le, etc.
type KeyWord_ struct {
	W atomic.Uint32
	_ [(CacheLineSize_ - unsafe.Sizeof(uint32(0))%CacheLineSize_) % CacheLineSize_]byte
}

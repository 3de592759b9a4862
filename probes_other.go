//go:build !linux && !windows

package parker

// No native facility is wired for this platform; only the wait table
// (or nothing, under parker_native_only) is probed.
var nativeProbes []probe

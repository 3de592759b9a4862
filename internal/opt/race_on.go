//go:build race

package opt

// Race_ reports whether the race detector is compiled in.
// Timing-sensitive tests widen their slack under it.
const Race_ = true

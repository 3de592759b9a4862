//go:build parker_native_only

package opt

// NativeOnly_ removes the table backend from the probe list, so a platform
// without a native wait facility fails at first use.
// Use: go build -tags=parker_native_only
const NativeOnly_ = true

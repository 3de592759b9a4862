//go:build !parker_portable

package opt

// ForcePortable_ skips every native wait facility and selects the table
// backend directly.
// Use: go build -tags=parker_portable
const ForcePortable_ = false

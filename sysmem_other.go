//go:build !linux

package gust

// hostTotalMemory returns 0 on platforms without a sysinfo probe; the
// simulated bulk memory then falls back to its default capacity.
func hostTotalMemory() uint64 {
	return 0
}

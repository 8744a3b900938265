//go:build linux

package gust

import (
	"golang.org/x/sys/unix"
)

// hostTotalMemory returns the host's total physical memory in bytes, or 0 if
// it cannot be determined.
func hostTotalMemory() uint64 {
	var info unix.Sysinfo_t
	if err := unix.Sysinfo(&info); err != nil {
		return 0
	}
	return uint64(info.Totalram) * uint64(info.Unit)
}

//go:build linux || darwin

package mapped

import "golang.org/x/sys/unix"

// residencyHint advises the kernel about future access to data: willNeed
// requests readahead/caching, !willNeed permits reclaiming the pages.
// Best-effort; errors are silently ignored.
func residencyHint(data []byte, willNeed bool) {
	if len(data) == 0 {
		return
	}
	if willNeed {
		_ = unix.Madvise(data, unix.MADV_WILLNEED)
	} else {
		_ = unix.Madvise(data, unix.MADV_DONTNEED)
	}
}

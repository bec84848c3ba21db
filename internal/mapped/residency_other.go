//go:build !linux && !darwin

package mapped

// residencyHint is a no-op on platforms without madvise via golang.org/x/sys/unix.
func residencyHint(data []byte, willNeed bool) {
	// No-op
}

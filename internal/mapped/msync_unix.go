//go:build linux || darwin

package mapped

import "golang.org/x/sys/unix"

// msyncAsync schedules dirty pages in data for writeback without blocking
// for completion (MS_ASYNC).
func msyncAsync(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return unix.Msync(data, unix.MS_ASYNC)
}

//go:build !linux && !darwin

package mapped

// msyncAsync is a no-op on platforms without MS_ASYNC via golang.org/x/sys/unix.
func msyncAsync(data []byte) error {
	return nil
}

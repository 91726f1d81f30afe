//go:build windows

package fsstore

// Liveness probing is not reliable on Windows; stale locks are broken on age alone.
func processAlive(int) bool {
	return false
}

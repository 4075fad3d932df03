//go:build !linux && !windows

package cpu

// pinToCore is a no-op where thread affinity is not exposed (macOS, BSDs).
// The worker still runs on a locked OS thread.
func pinToCore(int) error {
	return nil
}

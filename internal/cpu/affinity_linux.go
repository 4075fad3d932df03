//go:build linux

package cpu

import "golang.org/x/sys/unix"

// pinToCore pins the current OS thread to one CPU.
// Must be called after runtime.LockOSThread().
func pinToCore(cpuID int) error {
	var mask unix.CPUSet
	mask.Zero()
	mask.Set(cpuID)

	return unix.SchedSetaffinity(0, &mask) // 0 = current thread
}

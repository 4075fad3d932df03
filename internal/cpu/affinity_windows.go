//go:build windows

package cpu

import "golang.org/x/sys/windows"

var (
	kernel32              = windows.NewLazySystemDLL("kernel32.dll")
	setThreadAffinityMask = kernel32.NewProc("SetThreadAffinityMask")
)

// pinToCore pins the current OS thread to one CPU.
// Must be called after runtime.LockOSThread().
func pinToCore(cpuID int) error {
	mask := uintptr(1) << uint(cpuID)

	prev, _, err := setThreadAffinityMask.Call(uintptr(windows.CurrentThread()), mask)
	if prev == 0 {
		return err
	}
	return nil
}

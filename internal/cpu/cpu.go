// Package cpu binds pool workers to operating system threads.
package cpu

import (
	"fmt"
	"runtime"
)

// Setup locks the calling goroutine to its OS thread and, when pin is true,
// pins that thread to CPU workerID % NumCPU. The returned release function
// unlocks the thread and must run on the same goroutine.
//
// On failure the thread is already unlocked and release is nil.
func Setup(workerID int, pin bool) (release func(), err error) {
	runtime.LockOSThread()

	if pin {
		cpuID := workerID % runtime.NumCPU()
		if err := pinToCore(cpuID); err != nil {
			runtime.UnlockOSThread()
			return nil, fmt.Errorf("pin to cpu %d: %w", cpuID, err)
		}
	}

	return runtime.UnlockOSThread, nil
}

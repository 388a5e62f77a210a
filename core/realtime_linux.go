//go:build linux

package core

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// RaiseThreadPriority sets the nice value of the calling OS thread.
// The caller must hold the thread with runtime.LockOSThread.
// Negative values need CAP_SYS_NICE.
func RaiseThreadPriority(nice int) error {
	if nice == 0 {
		return nil
	}
	if err := unix.Setpriority(unix.PRIO_PROCESS, unix.Gettid(), nice); err != nil {
		return fmt.Errorf("setpriority(%d): %w", nice, err)
	}
	return nil
}

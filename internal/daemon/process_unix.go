//go:build !windows

package daemon

import (
	"os"
	"syscall"
	"time"
)

// IsProcessRunning checks if a process with the given PID is running.
// On Unix, this uses signal 0 to check if the process exists.
func IsProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	return process.Signal(syscall.Signal(0)) == nil
}

// TerminateProcess asks a process to exit with SIGTERM and kills it if it
// is still alive after grace. It reports whether the process had to be killed.
func TerminateProcess(pid int, grace time.Duration) (bool, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}

	if err := process.Signal(syscall.SIGTERM); err != nil {
		if !IsProcessRunning(pid) {
			return false, nil
		}
		return true, process.Kill()
	}

	deadline := time.Now().Add(grace)
	for time.Now().Before(deadline) {
		if !IsProcessRunning(pid) {
			return false, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := process.Kill(); err != nil && IsProcessRunning(pid) {
		return true, err
	}
	return true, nil
}

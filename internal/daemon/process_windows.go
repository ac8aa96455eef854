//go:build windows

package daemon

import (
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// IsProcessRunning checks if a process with the given PID is running.
// On Windows, os.FindProcess always succeeds, so we use tasklist to check.
func IsProcessRunning(pid int) bool {
	cmd := exec.Command("tasklist", "/FI", "PID eq "+strconv.Itoa(pid), "/NH", "/FO", "CSV")
	output, err := cmd.Output()
	if err != nil {
		return false
	}

	// tasklist prints an INFO line when nothing matches
	outputStr := string(output)
	if strings.Contains(outputStr, "INFO:") || strings.Contains(outputStr, "No tasks") {
		return false
	}
	return strings.Contains(outputStr, `"`+strconv.Itoa(pid)+`"`)
}

// TerminateProcess kills the process. Windows has no SIGTERM to deliver to a
// detached process, so grace is unused and the process is always killed.
func TerminateProcess(pid int, grace time.Duration) (bool, error) {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false, err
	}
	return true, process.Kill()
}

//go:build !windows

package daemon

import (
	"os"
	"syscall"
)

// ShutdownSignals returns the signals that should trigger graceful shutdown.
// SIGHUP is included so closing the terminal of a foreground daemon stops it cleanly.
func ShutdownSignals() []os.Signal {
	return []os.Signal{syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP}
}

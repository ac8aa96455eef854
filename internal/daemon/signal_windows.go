//go:build windows

package daemon

import (
	"os"
	"syscall"
)

// ShutdownSignals returns the signals that should trigger graceful shutdown.
// Go maps console close and logoff events to SIGTERM on Windows.
func ShutdownSignals() []os.Signal {
	return []os.Signal{os.Interrupt, syscall.SIGTERM}
}

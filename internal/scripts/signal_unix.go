//go:build unix

package scripts

import (
	"os/exec"
	"syscall"

	"golang.org/x/sys/unix"
)

// terminatingSignal names the signal that killed the child, or "" when it
// exited on its own.
func terminatingSignal(err *exec.ExitError) string {
	ws, ok := err.Sys().(syscall.WaitStatus)
	if !ok || !ws.Signaled() {
		return ""
	}
	if name := unix.SignalName(ws.Signal()); name != "" {
		return name
	}
	return ws.Signal().String()
}

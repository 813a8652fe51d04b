//go:build !unix

package scripts

import "os/exec"

func terminatingSignal(err *exec.ExitError) string {
	return ""
}

//go:build !windows

package recorder

import (
	"os/exec"
	"syscall"
)

// detach puts the encoder in its own process group so a terminal Ctrl-C
// reaches micrec only. The session then stops the encoder with "q".
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

//go:build linux

package executor

import (
	"os/exec"
	"syscall"
)

// setPlatformSpecificAttrs puts the program in its own process group so a
// timeout kills whatever it forked, and uses Pdeathsig so the kernel kills it
// if the server itself dies.
func setPlatformSpecificAttrs(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid:   true,
		Pdeathsig: syscall.SIGKILL,
	}
}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	// A negative pid targets the whole group.
	if err := syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL); err != nil {
		return cmd.Process.Kill()
	}
	return nil
}

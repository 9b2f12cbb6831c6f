//go:build !linux

package executor

import "os/exec"

// setPlatformSpecificAttrs is a no-op outside Linux: Pdeathsig and process
// groups are not portable, the context kill of exec.CommandContext applies.
func setPlatformSpecificAttrs(_ *exec.Cmd) {}

func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

//go:build windows

package pkgmgr

import "os/exec"

func setProcessGroup(*exec.Cmd) {}

// killProcessGroup only reaches the direct child. Descendants that keep
// the output pipe open are cut off by closing the read side instead.
func killProcessGroup(cmd *exec.Cmd) error {
	if cmd.Process == nil {
		return nil
	}
	return cmd.Process.Kill()
}

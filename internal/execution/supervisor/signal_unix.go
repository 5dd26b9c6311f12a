//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

func initCmd(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
	}
}

// terminate sends SIGTERM to the worker's process group.
func terminate(pid int) error {
	if pgid, err := syscall.Getpgid(pid); err == nil {
		// Negative pid sends signal to all in process group
		return syscall.Kill(-pgid, syscall.SIGTERM)
	}

	return syscall.Kill(pid, syscall.SIGTERM)
}

package supervisor

import (
	"os"
	"os/exec"
)

func initCmd(cmd *exec.Cmd) {
	// No-op on Windows.
}

// terminate uses Kill, the only way os.Process ends another process on
// Windows. It is sent once like SIGTERM elsewhere and never follows a
// softer request.
func terminate(pid int) error {
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}

	return process.Kill()
}

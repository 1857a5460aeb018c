//go:build windows

package process

import (
	"os/exec"
	"strconv"
)

// SetProcessGroup is a no-op on Windows; taskkill /T walks the tree instead.
func SetProcessGroup(cmd *exec.Cmd) {}

// KillProcessGroup kills a process and all its children using taskkill.
// /F = force kill, /T = terminate child processes (tree kill).
func KillProcessGroup(pid int) {
	// Best-effort; exec.Cmd.Cancel falls back to killing the leader.
	_ = exec.Command("taskkill", "/F", "/T", "/PID", strconv.Itoa(pid)).Run()
}

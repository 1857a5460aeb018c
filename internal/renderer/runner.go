package renderer

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"

	"github.com/alnah/go-mdz/internal/process"
)

// Runner abstracts command execution to enable testing without real subprocesses.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) (stdout string, stderr string, err error)
}

// waitDelay bounds how long Run waits for output pipes after a kill.
const waitDelay = 2 * time.Second

// ExecRunner implements Runner using os/exec. The command runs in its own
// process group, and the whole group is killed when ctx is done.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	process.SetProcessGroup(cmd)
	cmd.Cancel = func() error {
		if cmd.Process != nil {
			process.KillProcessGroup(cmd.Process.Pid)
			return cmd.Process.Kill()
		}
		return nil
	}
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", "", fmt.Errorf("starting command: %w", err)
	}
	err := cmd.Wait()
	return stdout.String(), stderr.String(), err
}

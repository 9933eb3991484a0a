package adapters

import (
	"context"
	"os"
	"os/exec"

	"genesis-provision/internal/ports"
)

// ExecRunner launches external processes with combined output capture.
// Run blocks until exit; cancelling the context kills the process and
// leaves the build tree in whatever state the last completed stage
// produced, which the next run's probes detect.
type ExecRunner struct{}

func NewExecRunner() ExecRunner {
	return ExecRunner{}
}

func (r ExecRunner) Run(ctx context.Context, command ports.Command) ([]byte, error) {
	cmd := exec.CommandContext(ctx, command.Name, command.Args...)
	cmd.Dir = command.Dir
	if len(command.Env) > 0 {
		cmd.Env = append(os.Environ(), command.Env...)
	}
	return cmd.CombinedOutput()
}

func (r ExecRunner) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

var _ ports.CommandRunnerPort = ExecRunner{}

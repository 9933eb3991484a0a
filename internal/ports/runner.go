package ports

import "context"

// Command describes one external process invocation.
type Command struct {
	Name string
	Args []string
	Dir  string
	Env  []string
}

// CommandRunnerPort launches external processes.  Run blocks until the
// process exits and returns its combined output; the error is non-nil
// for a non-zero exit.  The only cancellation primitive is the
// context, which kills the process and leaves whatever the last
// completed stage produced on disk.
type CommandRunnerPort interface {
	Run(ctx context.Context, cmd Command) ([]byte, error)
	LookPath(name string) (string, error)
}

package adapters

import (
	"context"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/shared"
	"genesis-provision/internal/types"
)

// CommandProber checks command-line tools by PATH lookup plus a
// --version banner parse.  Version banners vary wildly ("cmake version
// 3.26.5", "rustc 1.79.0 (129f3b996 2024-06-10)"), so only the first
// dotted-numeric token is kept.
type CommandProber struct {
	Runner ports.CommandRunnerPort
}

func NewCommandProber(runner ports.CommandRunnerPort) CommandProber {
	return CommandProber{Runner: runner}
}

func (p CommandProber) Check(ctx context.Context, component types.Component) (types.Capability, error) {
	command := component.CommandName()
	if _, err := p.Runner.LookPath(command); err != nil {
		return types.Capability{}, nil
	}
	output, err := p.Runner.Run(ctx, ports.Command{
		Name: command,
		Args: []string{"--version"},
	})
	if err != nil {
		// Present but uncooperative about its version.
		return types.Capability{Present: true}, nil
	}
	return types.Capability{
		Present: true,
		Version: shared.NumericVersionToken(string(output)),
	}, nil
}

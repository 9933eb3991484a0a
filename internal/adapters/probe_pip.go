package adapters

import (
	"context"
	"strings"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/shared"
	"genesis-provision/internal/types"
)

// PipProber checks Python packages through pip's metadata view.
type PipProber struct {
	Runner ports.CommandRunnerPort
}

func NewPipProber(runner ports.CommandRunnerPort) PipProber {
	return PipProber{Runner: runner}
}

func (p PipProber) Check(ctx context.Context, component types.Component) (types.Capability, error) {
	name := shared.NormalizePipName(component.PackageName())
	output, err := p.Runner.Run(ctx, ports.Command{
		Name: "python3",
		Args: []string{"-m", "pip", "show", name},
	})
	if err != nil {
		// pip show exits non-zero for packages that are not installed.
		return types.Capability{}, nil
	}
	for _, line := range strings.Split(string(output), "\n") {
		if version, ok := strings.CutPrefix(line, "Version:"); ok {
			return types.Capability{Present: true, Version: strings.TrimSpace(version)}, nil
		}
	}
	return types.Capability{Present: true}, nil
}

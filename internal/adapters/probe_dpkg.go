package adapters

import (
	"context"
	"strings"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/types"
)

// DpkgProber checks system packages through the dpkg database.
type DpkgProber struct {
	Runner ports.CommandRunnerPort
}

func NewDpkgProber(runner ports.CommandRunnerPort) DpkgProber {
	return DpkgProber{Runner: runner}
}

func (p DpkgProber) Check(ctx context.Context, component types.Component) (types.Capability, error) {
	output, err := p.Runner.Run(ctx, ports.Command{
		Name: "dpkg-query",
		Args: []string{"-W", "-f", "${Status} ${Version}", component.PackageName()},
	})
	if err != nil {
		// dpkg-query exits non-zero for unknown packages.
		return types.Capability{}, nil
	}
	fields := strings.Fields(strings.TrimSpace(string(output)))
	if len(fields) < 4 || fields[2] != "installed" {
		return types.Capability{}, nil
	}
	return types.Capability{Present: true, Version: fields[3]}, nil
}

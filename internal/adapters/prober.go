// Package adapters contains the concrete implementations of the
// orchestrator's ports: capability probes, process execution, the
// transcript log, and the files the run leaves behind.
package adapters

import (
	"context"
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/types"
)

// ProberAdapter dispatches a capability check to the variant matching
// the component kind.  Every variant is side-effect-free: probes are
// issued before installing (idempotency gate) and again for the final
// report, and must agree absent external change.
type ProberAdapter struct {
	System  DpkgProber
	Python  PipProber
	Command CommandProber
	Marker  MarkerProber
}

func NewProberAdapter(runner ports.CommandRunnerPort) ProberAdapter {
	return ProberAdapter{
		System:  NewDpkgProber(runner),
		Python:  NewPipProber(runner),
		Command: NewCommandProber(runner),
		Marker:  NewMarkerProber(),
	}
}

func (a ProberAdapter) Check(ctx context.Context, component types.Component) (types.Capability, error) {
	switch component.Kind {
	case types.ComponentKindSystemPackage:
		return a.System.Check(ctx, component)
	case types.ComponentKindPythonPackage:
		return a.Python.Check(ctx, component)
	case types.ComponentKindCommandTool:
		return a.Command.Check(ctx, component)
	case types.ComponentKindSourceBuild:
		return a.Marker.Check(ctx, component)
	default:
		return types.Capability{}, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported component kind: %s", component.Kind))
	}
}

var _ ports.ProberPort = ProberAdapter{}

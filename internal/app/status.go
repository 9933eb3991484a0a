package app

import (
	"context"

	"genesis-provision/internal/core"
)

// Status probes and reports without installing anything.
func (s Service) Status(ctx context.Context, req StatusRequest) (StatusResult, error) {
	defaults := applyRequestDefaults(ProvisionRequest{
		ManifestPath:  req.ManifestPath,
		BuildRoot:     req.BuildRoot,
		InstallPrefix: req.InstallPrefix,
	})
	components, err := s.loadComponents(ctx, defaults.ManifestPath, defaults.BuildRoot, defaults.InstallPrefix)
	if err != nil {
		return StatusResult{}, err
	}
	report, err := core.NewReporter(s.Prober).Report(ctx, components, nil)
	if err != nil {
		return StatusResult{}, err
	}
	return StatusResult{Report: report, Rendered: core.Render(report)}, nil
}

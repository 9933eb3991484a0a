package adapters

import (
	"context"
	"os"

	"genesis-provision/internal/types"
)

// MarkerProber checks source-built components by the existence of an
// on-disk marker (typically the installed artifact or working tree).
// Marker checks carry no version.
type MarkerProber struct{}

func NewMarkerProber() MarkerProber {
	return MarkerProber{}
}

func (p MarkerProber) Check(_ context.Context, component types.Component) (types.Capability, error) {
	if component.Source == nil || component.Source.Marker == "" {
		return types.Capability{}, nil
	}
	if _, err := os.Stat(component.Source.Marker); err != nil {
		return types.Capability{}, nil
	}
	return types.Capability{Present: true}, nil
}

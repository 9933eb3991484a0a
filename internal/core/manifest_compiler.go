package core

import (
	"context"
	"fmt"

	assert "github.com/ZanzyTHEbar/assert-lib"
	"github.com/ZanzyTHEbar/errbuilder-go"

	"genesis-provision/internal/types"
)

type ManifestCompiler struct{}

var validComponentKinds = map[types.ComponentKind]struct{}{
	types.ComponentKindSystemPackage: {},
	types.ComponentKindPythonPackage: {},
	types.ComponentKindCommandTool:   {},
	types.ComponentKindSourceBuild:   {},
}

var validBuilderKinds = map[types.BuilderKind]struct{}{
	types.BuilderKindCMake:     {},
	types.BuilderKindCargo:     {},
	types.BuilderKindBootstrap: {},
}

func NewManifestCompiler() ManifestCompiler {
	return ManifestCompiler{}
}

// ValidateManifest checks the declared component chain before any
// probe or install runs.  Components install strictly in declaration
// order, so each depends_on entry must name an earlier component.
func (c ManifestCompiler) ValidateManifest(ctx context.Context, manifest types.Manifest) error {
	assert.NotEmpty(ctx, manifest.APIVersion, "api_version must be set")
	assert.NotEmpty(ctx, string(manifest.Kind), "kind must be set")
	assert.NotEmpty(ctx, manifest.Metadata.Name, "metadata.name must be set")
	if manifest.Kind != types.ManifestKindComponents {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest kind must be components")
	}
	if len(manifest.Components) == 0 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("manifest must declare at least one component")
	}
	declared := map[string]struct{}{}
	for _, component := range manifest.Components {
		if err := c.validateComponent(component, declared); err != nil {
			return err
		}
		declared[component.Name] = struct{}{}
	}
	return nil
}

func (c ManifestCompiler) validateComponent(component types.Component, declared map[string]struct{}) error {
	if component.Name == "" {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("component name must be set")
	}
	if _, ok := declared[component.Name]; ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("duplicate component: %s", component.Name))
	}
	if _, ok := validComponentKinds[component.Kind]; !ok {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("component %s has unsupported kind: %s", component.Name, component.Kind))
	}
	if component.Kind == types.ComponentKindSourceBuild {
		if component.Source == nil {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("source-build component %s must declare source", component.Name))
		}
		if _, ok := validBuilderKinds[component.Source.Builder]; !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("component %s has unsupported builder: %s", component.Name, component.Source.Builder))
		}
		if component.Source.Marker == "" {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("source-build component %s must declare a marker", component.Name))
		}
	}
	if component.Retry != nil && component.Retry.MaxAttempts < 1 {
		return errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("component %s retry policy must allow at least one attempt", component.Name))
	}
	for _, dependency := range component.DependsOn {
		if _, ok := declared[dependency]; !ok {
			return errbuilder.New().
				WithCode(errbuilder.CodeInvalidArgument).
				WithMsg(fmt.Sprintf("component %s depends on %s, which is not declared earlier", component.Name, dependency))
		}
	}
	return nil
}

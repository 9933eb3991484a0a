package core

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis-provision/internal/types"
)

func validManifest() types.Manifest {
	return types.Manifest{
		APIVersion: "v1",
		Kind:       types.ManifestKindComponents,
		Metadata:   types.ManifestMetadata{Name: "simulator"},
		Components: []types.Component{
			{Name: "git", Kind: types.ComponentKindSystemPackage, Required: true},
			{
				Name:      "ompl",
				Kind:      types.ComponentKindSourceBuild,
				DependsOn: []string{"git"},
				Source: &types.SourceBuild{
					Repo:    "https://example.com/ompl.git",
					Marker:  "include/ompl",
					Builder: types.BuilderKindCMake,
				},
			},
		},
	}
}

func TestValidateManifestAcceptsValidChain(t *testing.T) {
	err := NewManifestCompiler().ValidateManifest(context.Background(), validManifest())
	require.NoError(t, err)
}

func TestValidateManifestRejectsWrongKind(t *testing.T) {
	manifest := validManifest()
	manifest.Kind = "fleet"

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "kind must be components")
}

func TestValidateManifestRejectsEmptyChain(t *testing.T) {
	manifest := validManifest()
	manifest.Components = nil

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one component")
}

func TestValidateManifestRejectsDuplicateComponent(t *testing.T) {
	manifest := validManifest()
	manifest.Components = append(manifest.Components, manifest.Components[0])

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate component: git")
}

func TestValidateManifestRejectsForwardDependency(t *testing.T) {
	manifest := validManifest()
	manifest.Components[0].DependsOn = []string{"ompl"}

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not declared earlier")
}

func TestValidateManifestRejectsSourceBuildWithoutSource(t *testing.T) {
	manifest := validManifest()
	manifest.Components[1].Source = nil

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must declare source")
}

func TestValidateManifestRejectsUnknownBuilder(t *testing.T) {
	manifest := validManifest()
	manifest.Components[1].Source.Builder = "meson"

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported builder")
}

func TestValidateManifestRejectsMissingMarker(t *testing.T) {
	manifest := validManifest()
	manifest.Components[1].Source.Marker = ""

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "must declare a marker")
}

func TestValidateManifestRejectsZeroAttemptRetry(t *testing.T) {
	manifest := validManifest()
	manifest.Components[0].Retry = &types.RetryPolicy{MaxAttempts: 0}

	err := NewManifestCompiler().ValidateManifest(context.Background(), manifest)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least one attempt")
}

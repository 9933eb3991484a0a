package app

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"genesis-provision/internal/types"
)

// DefaultManifest declares the standard simulation toolchain: the
// build-system generator and compiler prerequisites, the source-built
// C++ libraries with their Python bindings, the cargo-built sensing
// helper, and the Python layer on top.  Markers and prefixes are
// resolved against the run's build root and install prefix.
func DefaultManifest(buildRoot string, installPrefix string) types.Manifest {
	return types.Manifest{
		APIVersion: "v1",
		Kind:       types.ManifestKindComponents,
		Metadata: types.ManifestMetadata{
			Name:        "simulation-toolchain",
			Description: "native toolchain for the physics simulation stack",
		},
		Components: []types.Component{
			{
				Name:     "build-essential",
				Kind:     types.ComponentKindSystemPackage,
				Required: true,
			},
			{
				Name:     "git",
				Kind:     types.ComponentKindCommandTool,
				Required: true,
			},
			{
				Name:     "python3-dev",
				Kind:     types.ComponentKindSystemPackage,
				Required: true,
				DependsOn: []string{
					"build-essential",
				},
			},
			{
				Name:       "cmake",
				Kind:       types.ComponentKindCommandTool,
				Required:   true,
				MinVersion: "3.18",
				DependsOn:  []string{"build-essential", "git"},
				Source: &types.SourceBuild{
					Repo:        "https://gitlab.kitware.com/cmake/cmake.git",
					Ref:         "v3.28.3",
					Marker:      filepath.Join(installPrefix, "bin", "cmake"),
					Builder:     types.BuilderKindBootstrap,
					InstallSudo: true,
				},
				// Bootstrapping cmake is slow; one attempt with a long
				// settle beats three.
				Retry: &types.RetryPolicy{MaxAttempts: 2, Backoff: 30 * time.Second},
			},
			{
				Name:      "ompl",
				Kind:      types.ComponentKindSourceBuild,
				Required:  false,
				DependsOn: []string{"cmake", "python3-dev"},
				Source: &types.SourceBuild{
					Repo:    "https://github.com/ompl/ompl.git",
					Ref:     "1.6.0",
					Marker:  filepath.Join(installPrefix, "include", "ompl-1.6"),
					Builder: types.BuilderKindCMake,
					ConfigureFlags: []string{
						"-DOMPL_BUILD_DEMOS=OFF",
						"-DOMPL_BUILD_TESTS=OFF",
						"-DOMPL_BUILD_PYBINDINGS=ON",
					},
					Bindings:       true,
					BindingsTarget: "py_ompl",
					InstallSudo:    true,
				},
			},
			{
				Name:      "luisa-render",
				Kind:      types.ComponentKindSourceBuild,
				Required:  false,
				DependsOn: []string{"cmake"},
				Source: &types.SourceBuild{
					Repo:    "https://github.com/LuisaGroup/LuisaRender.git",
					Ref:     "next",
					Marker:  filepath.Join(installPrefix, "lib", "luisa-render"),
					Builder: types.BuilderKindCMake,
					ConfigureFlags: []string{
						"-DLUISA_COMPUTE_DOWNLOAD_ZLIB=ON",
						"-DLUISA_RENDER_BUILD_TESTS=OFF",
					},
					InstallSudo: true,
				},
			},
			{
				Name:     "cargo",
				Kind:     types.ComponentKindCommandTool,
				Required: false,
			},
			{
				Name:      "env-awareness",
				Kind:      types.ComponentKindSourceBuild,
				Required:  false,
				DependsOn: []string{"git", "cargo"},
				Source: &types.SourceBuild{
					Repo:    "https://github.com/Genesis-Embodied-AI/env-awareness.git",
					Marker:  filepath.Join(installPrefix, "bin", "env-awareness"),
					Builder: types.BuilderKindCargo,
				},
			},
			{
				Name:       "numpy",
				Kind:       types.ComponentKindPythonPackage,
				Required:   true,
				MinVersion: "1.24.0",
				DependsOn:  []string{"python3-dev"},
			},
			{
				Name:       "torch",
				Kind:       types.ComponentKindPythonPackage,
				Required:   true,
				MinVersion: "2.1.1",
				DependsOn:  []string{"python3-dev"},
			},
			{
				Name:       "gradio",
				Kind:       types.ComponentKindPythonPackage,
				Required:   false,
				MinVersion: "4.1.1",
				DependsOn:  []string{"python3-dev"},
			},
			{
				Name:      "genesis",
				Kind:      types.ComponentKindPythonPackage,
				Package:   "genesis-world",
				Required:  true,
				DependsOn: []string{"numpy", "torch"},
			},
		},
	}
}

// applyRequestDefaults fills unset request paths.  The build root
// lands in the user cache dir; the profile is the login shell profile.
func applyRequestDefaults(req ProvisionRequest) ProvisionRequest {
	if strings.TrimSpace(req.BuildRoot) == "" {
		req.BuildRoot = defaultBuildRoot()
	}
	if strings.TrimSpace(req.InstallPrefix) == "" {
		req.InstallPrefix = "/usr/local"
	}
	if strings.TrimSpace(req.ProfilePath) == "" {
		if home, err := os.UserHomeDir(); err == nil {
			req.ProfilePath = filepath.Join(home, ".profile")
		}
	}
	if strings.TrimSpace(req.Transcript) == "" {
		req.Transcript = filepath.Join(req.BuildRoot, "provision.log")
	}
	return req
}

func defaultBuildRoot() string {
	if cache, err := os.UserCacheDir(); err == nil {
		return filepath.Join(cache, "genesis-provision")
	}
	return "genesis-provision-build"
}

// resolveMarkers anchors relative source markers at the build root so
// probes and installers agree on what they are looking at.
func resolveMarkers(components []types.Component, buildRoot string) []types.Component {
	resolved := make([]types.Component, len(components))
	for i, component := range components {
		resolved[i] = component
		if component.Source != nil && component.Source.Marker != "" && !filepath.IsAbs(component.Source.Marker) {
			source := *component.Source
			source.Marker = filepath.Join(buildRoot, source.Marker)
			resolved[i].Source = &source
		}
	}
	return resolved
}

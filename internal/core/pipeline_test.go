package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/types"
)

// fakeRunner records every launched command and answers through an
// optional handler.
type fakeRunner struct {
	calls   []ports.Command
	handler func(cmd ports.Command) ([]byte, error)
	paths   map[string]string
}

func (r *fakeRunner) Run(_ context.Context, cmd ports.Command) ([]byte, error) {
	r.calls = append(r.calls, cmd)
	if r.handler != nil {
		return r.handler(cmd)
	}
	return []byte("ok"), nil
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if path, ok := r.paths[name]; ok {
		return path, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func (r *fakeRunner) commandLines() []string {
	var lines []string
	for _, cmd := range r.calls {
		lines = append(lines, cmd.Name+" "+strings.Join(cmd.Args, " "))
	}
	return lines
}

func testInstaller(runner *fakeRunner, buildRoot string) Installer {
	return Installer{
		Runner:        runner,
		Retry:         NewRetryExecutor(&fakeTranscript{}),
		BuildRoot:     buildRoot,
		InstallPrefix: "/opt/sim",
		ToolchainFile: filepath.Join(buildRoot, "toolchain.cmake"),
		Jobs:          4,
	}
}

func singleAttempt() *types.RetryPolicy {
	return &types.RetryPolicy{MaxAttempts: 1, Backoff: 0}
}

// ---------------------------------------------------------------------------
// package kinds
// ---------------------------------------------------------------------------

func TestInstallSystemPackage(t *testing.T) {
	runner := &fakeRunner{}
	installer := testInstaller(runner, t.TempDir())

	component := types.Component{
		Name:     "build-essential",
		Kind:     types.ComponentKindSystemPackage,
		Required: true,
		Retry:    singleAttempt(),
	}
	outcome, err := installer.Install(context.Background(), component, types.Toolchain{})

	require.NoError(t, err)
	assert.Equal(t, types.FinalStateInstalled, outcome.FinalState)
	require.Len(t, runner.calls, 1)
	assert.Equal(t, "apt-get", runner.calls[0].Name)
	assert.Contains(t, runner.calls[0].Args, "build-essential")
}

func TestInstallPythonPackagePinnedMinimum(t *testing.T) {
	runner := &fakeRunner{}
	installer := testInstaller(runner, t.TempDir())

	component := types.Component{
		Name:       "torch",
		Kind:       types.ComponentKindPythonPackage,
		MinVersion: "2.1.1",
		Retry:      singleAttempt(),
	}
	_, err := installer.Install(context.Background(), component, types.Toolchain{})

	require.NoError(t, err)
	require.Len(t, runner.calls, 1)
	assert.Contains(t, runner.calls[0].Args, "torch>=2.1.1")
}

func TestInstallPythonPackageNormalizesName(t *testing.T) {
	runner := &fakeRunner{}
	installer := testInstaller(runner, t.TempDir())

	component := types.Component{
		Name:    "genesis",
		Kind:    types.ComponentKindPythonPackage,
		Package: "Genesis_World",
		Retry:   singleAttempt(),
	}
	_, err := installer.Install(context.Background(), component, types.Toolchain{})

	require.NoError(t, err)
	assert.Contains(t, runner.calls[0].Args, "genesis-world")
}

// ---------------------------------------------------------------------------
// source pipeline
// ---------------------------------------------------------------------------

func cmakeComponent(required bool) types.Component {
	return types.Component{
		Name:     "ompl",
		Kind:     types.ComponentKindSourceBuild,
		Required: required,
		Retry:    singleAttempt(),
		Source: &types.SourceBuild{
			Repo:    "https://example.com/ompl.git",
			Ref:     "1.6.0",
			Marker:  "/opt/sim/include/ompl",
			Builder: types.BuilderKindCMake,
			ConfigureFlags: []string{
				"-DOMPL_BUILD_DEMOS=OFF",
				"-DOMPL_BUILD_TESTS=OFF",
			},
		},
	}
}

func TestInstallSourcePipelineStageOrder(t *testing.T) {
	runner := &fakeRunner{}
	installer := testInstaller(runner, t.TempDir())

	outcome, err := installer.Install(context.Background(), cmakeComponent(false), types.Toolchain{})

	require.NoError(t, err)
	assert.Equal(t, types.FinalStateInstalled, outcome.FinalState)
	lines := runner.commandLines()
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "git clone")
	assert.Contains(t, lines[0], "--branch 1.6.0")
	assert.Contains(t, lines[1], "-DOMPL_BUILD_DEMOS=OFF")
	assert.Contains(t, lines[1], "-DCMAKE_TOOLCHAIN_FILE=")
	assert.Contains(t, lines[2], "--build")
	assert.Contains(t, lines[2], "--parallel 4")
	assert.Contains(t, lines[3], "--install")
}

func TestInstallSourceReusesExistingTree(t *testing.T) {
	buildRoot := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(buildRoot, "ompl"), 0o755))

	runner := &fakeRunner{}
	installer := testInstaller(runner, buildRoot)

	_, err := installer.Install(context.Background(), cmakeComponent(false), types.Toolchain{})

	require.NoError(t, err)
	for _, line := range runner.commandLines() {
		assert.NotContains(t, line, "git clone")
	}
}

func TestInstallSourceBindingsSubStage(t *testing.T) {
	runner := &fakeRunner{}
	installer := testInstaller(runner, t.TempDir())

	component := cmakeComponent(false)
	component.Source.Bindings = true
	component.Source.BindingsTarget = "py_ompl"

	toolchain := types.Toolchain{PythonIncludeDir: "/usr/include/python3.12"}
	_, err := installer.Install(context.Background(), component, toolchain)

	require.NoError(t, err)
	lines := runner.commandLines()
	require.Len(t, lines, 5)
	assert.Contains(t, lines[4], "--target py_ompl")
	assert.Contains(t, runner.calls[4].Env, "PYTHON_INCLUDE_DIR=/usr/include/python3.12")
}

func TestInstallCargoBuilder(t *testing.T) {
	runner := &fakeRunner{}
	buildRoot := t.TempDir()
	installer := testInstaller(runner, buildRoot)

	component := types.Component{
		Name:  "env-awareness",
		Kind:  types.ComponentKindSourceBuild,
		Retry: singleAttempt(),
		Source: &types.SourceBuild{
			Repo:    "https://example.com/env-awareness.git",
			Marker:  "/opt/sim/bin/env-awareness",
			Builder: types.BuilderKindCargo,
		},
	}
	_, err := installer.Install(context.Background(), component, types.Toolchain{})

	require.NoError(t, err)
	lines := runner.commandLines()
	require.Len(t, lines, 3)
	assert.Contains(t, lines[0], "git clone")
	assert.Contains(t, lines[1], "cargo build --release")
	assert.Equal(t, filepath.Join(buildRoot, "env-awareness"), runner.calls[1].Dir)
	assert.Contains(t, lines[2], "install -D -m 0755")
}

func TestInstallBootstrapBuilder(t *testing.T) {
	runner := &fakeRunner{}
	installer := testInstaller(runner, t.TempDir())

	component := types.Component{
		Name:  "cmake",
		Kind:  types.ComponentKindCommandTool,
		Retry: singleAttempt(),
		Source: &types.SourceBuild{
			Repo:    "https://example.com/cmake.git",
			Marker:  "/opt/sim/bin/cmake",
			Builder: types.BuilderKindBootstrap,
		},
	}
	_, err := installer.Install(context.Background(), component, types.Toolchain{})

	require.NoError(t, err)
	lines := runner.commandLines()
	require.Len(t, lines, 4)
	assert.Contains(t, lines[1], "./bootstrap --prefix=/opt/sim")
	assert.Contains(t, lines[2], "make -j 4")
	assert.Contains(t, lines[3], "make install")
}

// ---------------------------------------------------------------------------
// failure policy
// ---------------------------------------------------------------------------

func TestInstallOptionalFailureDoesNotAbort(t *testing.T) {
	runner := &fakeRunner{
		handler: func(cmd ports.Command) ([]byte, error) {
			if cmd.Name == "cmake" {
				return []byte("configure error"), errors.New("exit status 1")
			}
			return []byte("ok"), nil
		},
	}
	installer := testInstaller(runner, t.TempDir())

	outcome, err := installer.Install(context.Background(), cmakeComponent(false), types.Toolchain{})

	require.NoError(t, err)
	assert.Equal(t, types.FinalStateFailedOptional, outcome.FinalState)
	assert.Contains(t, outcome.LogExcerpt, "configure error")
}

func TestInstallRequiredFailureAborts(t *testing.T) {
	runner := &fakeRunner{
		handler: func(cmd ports.Command) ([]byte, error) {
			if cmd.Name == "cmake" {
				return []byte("configure error"), errors.New("exit status 1")
			}
			return []byte("ok"), nil
		},
	}
	installer := testInstaller(runner, t.TempDir())

	outcome, err := installer.Install(context.Background(), cmakeComponent(true), types.Toolchain{})

	require.Error(t, err)
	assert.Equal(t, types.FinalStateFailedRequired, outcome.FinalState)
	assert.Contains(t, err.Error(), "ompl")
	assert.Contains(t, err.Error(), StageConfigure)
}

func TestInstallRetriesTransientCloneFailure(t *testing.T) {
	cloneCalls := 0
	runner := &fakeRunner{
		handler: func(cmd ports.Command) ([]byte, error) {
			if cmd.Name == "git" {
				cloneCalls++
				if cloneCalls == 1 {
					return []byte("early EOF"), errors.New("exit status 128")
				}
			}
			return []byte("ok"), nil
		},
	}
	installer := testInstaller(runner, t.TempDir())

	component := cmakeComponent(false)
	component.Retry = &types.RetryPolicy{MaxAttempts: 3, Backoff: 0}
	outcome, err := installer.Install(context.Background(), component, types.Toolchain{})

	require.NoError(t, err)
	assert.Equal(t, types.FinalStateInstalled, outcome.FinalState)
	assert.Equal(t, 2, cloneCalls)
	// Two clone attempts plus one each for configure, build, install.
	assert.Equal(t, 5, outcome.Attempts)
}

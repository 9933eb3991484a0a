package core

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"genesis-provision/internal/policies"
	"genesis-provision/internal/ports"
	"genesis-provision/internal/shared"
	"genesis-provision/internal/types"
)

const (
	StageAcquire   = "acquire"
	StageConfigure = "configure"
	StageBuild     = "build"
	StageInstall   = "install"
	StageBind      = "bind"
)

// Installer runs the fetch/configure/build/install/bind pipeline for
// one missing component.  Components are installed strictly one at a
// time in declaration order: they share the build root and the host
// package database, neither of which tolerates concurrent mutation.
// The only parallelism is the job count handed to the invoked build
// tool.
type Installer struct {
	Runner        ports.CommandRunnerPort
	Retry         RetryExecutor
	BuildRoot     string
	InstallPrefix string
	ToolchainFile string
	Jobs          int
	Sudo          bool
}

// Install drives a single component from CHECKED_MISSING to a terminal
// state.  The returned outcome is always populated; the error is
// non-nil only when the failure policy decided to abort the run.
func (i Installer) Install(ctx context.Context, component types.Component, toolchain types.Toolchain) (types.InstallOutcome, error) {
	outcome := types.InstallOutcome{Component: component}
	log.Ctx(ctx).Info().
		Str("component", component.Name).
		Str("kind", string(component.Kind)).
		Msg("installing component")

	var err error
	switch component.Kind {
	case types.ComponentKindSystemPackage:
		err = i.installSystemPackage(ctx, component, &outcome)
	case types.ComponentKindPythonPackage:
		err = i.installPythonPackage(ctx, component, &outcome)
	case types.ComponentKindCommandTool, types.ComponentKindSourceBuild:
		if component.Source == nil {
			err = i.installSystemPackage(ctx, component, &outcome)
		} else {
			err = i.installFromSource(ctx, component, toolchain, &outcome)
		}
	default:
		err = errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported component kind: %s", component.Kind))
	}

	if err == nil {
		outcome.FinalState = types.FinalStateInstalled
		log.Ctx(ctx).Info().Str("component", component.Name).Msg("component installed")
		return outcome, nil
	}

	stage := stageOf(err)
	decision, finalState, abort := policies.Decide(component, stage, err)
	outcome.FinalState = finalState
	if decision == policies.DecisionAbort {
		log.Ctx(ctx).Error().
			Str("component", component.Name).
			Str("stage", stage).
			Msg("required component failed, aborting run")
		return outcome, abort
	}
	log.Ctx(ctx).Warn().
		Str("component", component.Name).
		Str("stage", stage).
		Msg("optional component failed, continuing")
	return outcome, nil
}

// stageError tags a pipeline error with the stage it came from so the
// fatal diagnostic can name it.
type stageError struct {
	stage string
	err   error
}

func (e stageError) Error() string { return e.stage + ": " + e.err.Error() }
func (e stageError) Unwrap() error { return e.err }

func stageOf(err error) string {
	if tagged, ok := err.(stageError); ok {
		return tagged.stage
	}
	return "unknown"
}

func (i Installer) runStage(ctx context.Context, stage string, component types.Component, outcome *types.InstallOutcome, op Operation) error {
	policy := types.DefaultRetryPolicy()
	if component.Retry != nil {
		policy = *component.Retry
	}
	result, err := i.Retry.Execute(ctx, op, policy)
	outcome.Attempts += result.Attempts
	outcome.LogExcerpt = shared.Excerpt(result.Output, 20)
	if err != nil {
		return stageError{stage: stage, err: err}
	}
	return nil
}

func (i Installer) installSystemPackage(ctx context.Context, component types.Component, outcome *types.InstallOutcome) error {
	cmd := i.maybeSudo(ports.Command{
		Name: "apt-get",
		Args: []string{"install", "-y", component.PackageName()},
		Env:  []string{"DEBIAN_FRONTEND=noninteractive"},
	})
	return i.runStage(ctx, StageInstall, component, outcome, Operation{
		Description: fmt.Sprintf("apt-get install %s", component.PackageName()),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, cmd)
		},
	})
}

func (i Installer) installPythonPackage(ctx context.Context, component types.Component, outcome *types.InstallOutcome) error {
	requirement := shared.NormalizePipName(component.PackageName())
	if component.MinVersion != "" {
		requirement = fmt.Sprintf("%s>=%s", requirement, component.MinVersion)
	}
	return i.runStage(ctx, StageInstall, component, outcome, Operation{
		Description: fmt.Sprintf("pip install %s", requirement),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "python3",
				Args: []string{"-m", "pip", "install", requirement},
			})
		},
	})
}

func (i Installer) installFromSource(ctx context.Context, component types.Component, toolchain types.Toolchain, outcome *types.InstallOutcome) error {
	source := *component.Source
	sourceDir := i.sourceDir(component)
	buildDir := filepath.Join(sourceDir, "build")

	if err := i.acquire(ctx, component, source, sourceDir, outcome); err != nil {
		return err
	}
	switch source.Builder {
	case types.BuilderKindCMake:
		if err := i.configureCMake(ctx, component, source, sourceDir, buildDir, outcome); err != nil {
			return err
		}
		if err := i.buildCMake(ctx, component, buildDir, outcome); err != nil {
			return err
		}
		if err := i.installCMake(ctx, component, source, buildDir, outcome); err != nil {
			return err
		}
		if source.Bindings {
			return i.bind(ctx, component, source, buildDir, toolchain, outcome)
		}
		return nil
	case types.BuilderKindCargo:
		if err := i.buildCargo(ctx, component, sourceDir, outcome); err != nil {
			return err
		}
		return i.installCargo(ctx, component, sourceDir, outcome)
	case types.BuilderKindBootstrap:
		if err := i.configureBootstrap(ctx, component, sourceDir, outcome); err != nil {
			return err
		}
		if err := i.buildMake(ctx, component, sourceDir, outcome); err != nil {
			return err
		}
		return i.installMake(ctx, component, source, sourceDir, outcome)
	default:
		return stageError{stage: StageConfigure, err: errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported builder: %s", source.Builder))}
	}
}

// sourceDir is the component's working tree under the shared build
// root.  The Marker field is the component's presence check and plays
// no part here; reuse of an existing tree keys on the tree itself.
func (i Installer) sourceDir(component types.Component) string {
	return filepath.Join(i.BuildRoot, component.Name)
}

// acquire reuses an existing working tree when its marker is present
// (a second run never re-fetches) and otherwise clones the canonical
// repository, retrying transient network failures.
func (i Installer) acquire(ctx context.Context, component types.Component, source types.SourceBuild, sourceDir string, outcome *types.InstallOutcome) error {
	if _, err := os.Stat(sourceDir); err == nil {
		log.Ctx(ctx).Debug().
			Str("component", component.Name).
			Str("dir", sourceDir).
			Msg("source tree present, skipping fetch")
		return nil
	}
	args := []string{"clone", "--depth", "1"}
	if source.Ref != "" {
		args = append(args, "--branch", source.Ref)
	}
	args = append(args, source.Repo, sourceDir)
	return i.runStage(ctx, StageAcquire, component, outcome, Operation{
		Description: fmt.Sprintf("clone %s", source.Repo),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{Name: "git", Args: args})
		},
	})
}

func (i Installer) configureCMake(ctx context.Context, component types.Component, source types.SourceBuild, sourceDir string, buildDir string, outcome *types.InstallOutcome) error {
	args := []string{
		"-S", sourceDir,
		"-B", buildDir,
		"-DCMAKE_TOOLCHAIN_FILE=" + i.ToolchainFile,
		"-DCMAKE_INSTALL_PREFIX=" + i.InstallPrefix,
		"-DCMAKE_BUILD_TYPE=Release",
	}
	args = append(args, source.ConfigureFlags...)
	return i.runStage(ctx, StageConfigure, component, outcome, Operation{
		Description: fmt.Sprintf("configure %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{Name: "cmake", Args: args})
		},
	})
}

func (i Installer) buildCMake(ctx context.Context, component types.Component, buildDir string, outcome *types.InstallOutcome) error {
	return i.runStage(ctx, StageBuild, component, outcome, Operation{
		Description: fmt.Sprintf("build %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "cmake",
				Args: []string{"--build", buildDir, "--parallel", strconv.Itoa(i.Jobs)},
			})
		},
	})
}

func (i Installer) installCMake(ctx context.Context, component types.Component, source types.SourceBuild, buildDir string, outcome *types.InstallOutcome) error {
	cmd := ports.Command{Name: "cmake", Args: []string{"--install", buildDir}}
	if source.InstallSudo {
		cmd = i.maybeSudo(cmd)
	}
	return i.runStage(ctx, StageInstall, component, outcome, Operation{
		Description: fmt.Sprintf("install %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, cmd)
		},
	})
}

// bind builds the language-extension wrapper against the installed
// native artifact, using the same verified toolchain.
func (i Installer) bind(ctx context.Context, component types.Component, source types.SourceBuild, buildDir string, toolchain types.Toolchain, outcome *types.InstallOutcome) error {
	target := source.BindingsTarget
	if target == "" {
		target = "python_bindings"
	}
	env := []string{}
	if toolchain.PythonIncludeDir != "" {
		env = append(env, "PYTHON_INCLUDE_DIR="+toolchain.PythonIncludeDir)
	}
	if toolchain.PythonLibrary != "" {
		env = append(env, "PYTHON_LIBRARY="+toolchain.PythonLibrary)
	}
	return i.runStage(ctx, StageBind, component, outcome, Operation{
		Description: fmt.Sprintf("build %s bindings", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "cmake",
				Args: []string{"--build", buildDir, "--target", target, "--parallel", strconv.Itoa(i.Jobs)},
				Env:  env,
			})
		},
	})
}

func (i Installer) buildCargo(ctx context.Context, component types.Component, sourceDir string, outcome *types.InstallOutcome) error {
	return i.runStage(ctx, StageBuild, component, outcome, Operation{
		Description: fmt.Sprintf("cargo build %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "cargo",
				Args: []string{"build", "--release", "--jobs", strconv.Itoa(i.Jobs)},
				Dir:  sourceDir,
			})
		},
	})
}

func (i Installer) installCargo(ctx context.Context, component types.Component, sourceDir string, outcome *types.InstallOutcome) error {
	artifact := filepath.Join(sourceDir, "target", "release", component.Name)
	destination := filepath.Join(i.InstallPrefix, "bin", component.Name)
	return i.runStage(ctx, StageInstall, component, outcome, Operation{
		Description: fmt.Sprintf("install %s binary", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "install",
				Args: []string{"-D", "-m", "0755", artifact, destination},
			})
		},
	})
}

func (i Installer) configureBootstrap(ctx context.Context, component types.Component, sourceDir string, outcome *types.InstallOutcome) error {
	return i.runStage(ctx, StageConfigure, component, outcome, Operation{
		Description: fmt.Sprintf("bootstrap %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "./bootstrap",
				Args: []string{"--prefix=" + i.InstallPrefix, "--parallel=" + strconv.Itoa(i.Jobs)},
				Dir:  sourceDir,
			})
		},
	})
}

func (i Installer) buildMake(ctx context.Context, component types.Component, sourceDir string, outcome *types.InstallOutcome) error {
	return i.runStage(ctx, StageBuild, component, outcome, Operation{
		Description: fmt.Sprintf("make %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, ports.Command{
				Name: "make",
				Args: []string{"-j", strconv.Itoa(i.Jobs)},
				Dir:  sourceDir,
			})
		},
	})
}

func (i Installer) installMake(ctx context.Context, component types.Component, source types.SourceBuild, sourceDir string, outcome *types.InstallOutcome) error {
	cmd := ports.Command{Name: "make", Args: []string{"install"}, Dir: sourceDir}
	if source.InstallSudo {
		cmd = i.maybeSudo(cmd)
	}
	return i.runStage(ctx, StageInstall, component, outcome, Operation{
		Description: fmt.Sprintf("make install %s", component.Name),
		Run: func(ctx context.Context) ([]byte, error) {
			return i.Runner.Run(ctx, cmd)
		},
	})
}

// maybeSudo prefixes a command with sudo when the process is not
// already privileged and sudo use is enabled.
func (i Installer) maybeSudo(cmd ports.Command) ports.Command {
	if !i.Sudo || os.Geteuid() == 0 {
		return cmd
	}
	args := append([]string{cmd.Name}, cmd.Args...)
	return ports.Command{Name: "sudo", Args: args, Dir: cmd.Dir, Env: cmd.Env}
}

package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v4/cpu"

	"genesis-provision/internal/core"
	"genesis-provision/internal/policies"
	"genesis-provision/internal/types"
)

// Provision is the full run: probe, verify the toolchain (fatal
// gate), install missing components one at a time in declaration
// order, export the environment, and report.  Two concurrent runs
// against the same build root are not safe; the build root and the
// host package database are shared mutable state.
func (s Service) Provision(ctx context.Context, req ProvisionRequest) (ProvisionResult, error) {
	req = applyRequestDefaults(req)
	components, err := s.loadComponents(ctx, req.ManifestPath, req.BuildRoot, req.InstallPrefix)
	if err != nil {
		return ProvisionResult{}, err
	}
	if err := os.MkdirAll(req.BuildRoot, 0o755); err != nil {
		return ProvisionResult{}, errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create build root").
			WithCause(err)
	}
	transcript, err := s.NewTranscript(req.Transcript)
	if err != nil {
		return ProvisionResult{}, err
	}
	if closer, ok := transcript.(io.Closer); ok {
		defer closer.Close()
	}
	started := timeNow(s.Clock)
	transcript.Note(fmt.Sprintf("provision run started: build_root=%s install_prefix=%s", req.BuildRoot, req.InstallPrefix))

	outcomes := map[string]types.InstallOutcome{}
	result := ProvisionResult{Transcript: req.Transcript}

	// Fatal gate: no installer may run before a valid toolchain
	// descriptor exists.
	verifier := core.NewToolchainVerifier(s.Runner, transcript)
	toolchain, verifyErr := verifier.Verify(ctx)
	var abortErr error
	if verifyErr != nil {
		transcript.Note("toolchain verification failed: " + verifyErr.Error())
		abortErr = verifyErr
	} else {
		toolchainFile := filepath.Join(req.BuildRoot, "toolchain.cmake")
		if err := s.ToolchainFile.Write(toolchainFile, toolchain); err != nil {
			return result, err
		}
		installer := core.Installer{
			Runner:        s.Runner,
			Retry:         core.NewRetryExecutor(transcript),
			BuildRoot:     req.BuildRoot,
			InstallPrefix: req.InstallPrefix,
			ToolchainFile: toolchainFile,
			Jobs:          buildJobs(req.Jobs),
			Sudo:          req.Sudo,
		}
		abortErr = s.installAll(ctx, installer, components, toolchain, outcomes)
		if abortErr == nil {
			if err := s.Profile.AppendExports(req.ProfilePath, toolchain, req.InstallPrefix); err != nil {
				log.Ctx(ctx).Warn().Err(err).Msg("profile export failed")
			}
		}
	}

	// The matrix is rendered even after a fatal abort, from partial
	// results; components never reached stay skipped.
	report, err := core.NewReporter(s.Prober).Report(ctx, components, outcomes)
	if err != nil {
		return result, err
	}
	result.Report = report
	result.Rendered = core.Render(report)
	statusPath := filepath.Join(req.BuildRoot, "status.txt")
	if err := os.WriteFile(statusPath, []byte(result.Rendered), 0o644); err != nil {
		log.Ctx(ctx).Warn().Err(err).Msg("status file write failed")
	}
	for _, component := range components {
		if outcome, ok := outcomes[component.Name]; ok {
			result.Outcomes = append(result.Outcomes, outcome)
		}
	}
	transcript.Note(fmt.Sprintf("provision run finished in %s", timeNow(s.Clock).Sub(started).Round(time.Millisecond)))

	if abortErr != nil {
		return result, abortErr
	}
	if !report.ExitOK {
		return result, errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("required components missing after run; see " + req.Transcript)
	}
	return result, nil
}

// installAll walks the declared components in order.  Each component
// is gated by its own fresh probe, so re-runs skip everything already
// present.  A required failure stops the walk immediately; no later
// component's acquire begins.
func (s Service) installAll(ctx context.Context, installer core.Installer, components []types.Component, toolchain types.Toolchain, outcomes map[string]types.InstallOutcome) error {
	for _, component := range components {
		state := types.ComponentStateNotChecked
		capability, err := s.Prober.Check(ctx, component)
		if err != nil {
			return err
		}
		satisfied := capability.Present
		if satisfied && component.MinVersion != "" {
			ok, err := core.SatisfiesMinimum(component.Kind, capability.Version, component.MinVersion)
			if err != nil {
				return err
			}
			satisfied = ok
		}
		if satisfied {
			state, _ = core.Transition(state, types.ComponentStateCheckedPresent)
			outcomes[component.Name] = types.InstallOutcome{
				Component:  component,
				FinalState: types.FinalStateAlreadyPresent,
			}
			log.Ctx(ctx).Debug().
				Str("component", component.Name).
				Str("version", capability.Version).
				Str("state", string(state)).
				Msg("component already present")
			continue
		}
		state, _ = core.Transition(state, types.ComponentStateCheckedMissing)

		if missing := unmetDependencies(component, outcomes); len(missing) > 0 {
			cause := errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg(fmt.Sprintf("dependencies unavailable: %s", strings.Join(missing, ", ")))
			decision, finalState, abort := policies.Decide(component, "dependencies", cause)
			outcomes[component.Name] = types.InstallOutcome{Component: component, FinalState: finalState}
			if decision == policies.DecisionAbort {
				return abort
			}
			continue
		}

		state, _ = core.Transition(state, types.ComponentStateInstalling)
		log.Ctx(ctx).Debug().
			Str("component", component.Name).
			Str("state", string(state)).
			Msg("starting installer")
		outcome, abort := installer.Install(ctx, component, toolchain)
		outcomes[component.Name] = outcome
		if abort != nil {
			return abort
		}
	}
	return nil
}

// unmetDependencies lists declared dependencies that are neither
// already present nor freshly installed.
func unmetDependencies(component types.Component, outcomes map[string]types.InstallOutcome) []string {
	var missing []string
	for _, name := range component.DependsOn {
		outcome, ok := outcomes[name]
		if !ok {
			missing = append(missing, name)
			continue
		}
		switch outcome.FinalState {
		case types.FinalStateAlreadyPresent, types.FinalStateInstalled:
		default:
			missing = append(missing, name)
		}
	}
	return missing
}

// loadComponents returns the validated component chain, from the
// manifest file when given and the built-in manifest otherwise.
func (s Service) loadComponents(ctx context.Context, manifestPath string, buildRoot string, installPrefix string) ([]types.Component, error) {
	var manifest types.Manifest
	if strings.TrimSpace(manifestPath) != "" {
		loaded, err := s.Manifest.Load(manifestPath)
		if err != nil {
			return nil, err
		}
		manifest = loaded
	} else {
		manifest = DefaultManifest(buildRoot, installPrefix)
	}
	manifest.Components = resolveMarkers(manifest.Components, buildRoot)
	if err := core.NewManifestCompiler().ValidateManifest(ctx, manifest); err != nil {
		return nil, err
	}
	return manifest.Components, nil
}

// buildJobs bounds the build tool's parallelism by the machine's
// logical CPU count.  This is the only parallelism in the system, and
// it is internal to the invoked build tool.
func buildJobs(requested int) int {
	if requested > 0 {
		return requested
	}
	counts, err := cpu.Counts(true)
	if err != nil || counts < 1 {
		return 1
	}
	return counts
}

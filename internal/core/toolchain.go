package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	"github.com/rs/zerolog/log"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/shared"
	"genesis-provision/internal/types"
)

// ToolchainVerifier locates a working systems compiler pair and proves
// it by compiling a trivial translation unit.  Verification runs once
// per run and gates every component installer: several components
// embed the compiler paths into generated build caches, so no
// installer may start without a valid descriptor.
type ToolchainVerifier struct {
	Runner     ports.CommandRunnerPort
	Transcript ports.TranscriptPort
}

func NewToolchainVerifier(runner ports.CommandRunnerPort, transcript ports.TranscriptPort) ToolchainVerifier {
	return ToolchainVerifier{Runner: runner, Transcript: transcript}
}

const trivialProgram = "#include <vector>\nint main() { std::vector<int> v{1}; return v.size() - 1; }\n"

var ccCandidates = []string{"cc", "gcc", "clang"}
var cxxCandidates = []string{"c++", "g++", "clang++"}

// Verify returns the immutable toolchain descriptor for this run, or
// a fatal error when no compiler is found or the trivial compile
// fails.
func (v ToolchainVerifier) Verify(ctx context.Context) (types.Toolchain, error) {
	cc, err := v.locate("CC", ccCandidates)
	if err != nil {
		return types.Toolchain{}, err
	}
	cxx, err := v.locate("CXX", cxxCandidates)
	if err != nil {
		return types.Toolchain{}, err
	}
	if err := v.compileTrivial(ctx, cxx); err != nil {
		return types.Toolchain{}, err
	}
	toolchain := types.Toolchain{
		CC:                      cc,
		CXX:                     cxx,
		CXXStandard:             "17",
		PositionIndependentCode: true,
	}
	v.probePython(ctx, &toolchain)
	log.Ctx(ctx).Info().
		Str("cc", toolchain.CC).
		Str("cxx", toolchain.CXX).
		Msg("toolchain verified")
	return toolchain, nil
}

// locate resolves a compiler path from the named environment override
// or the first candidate present on PATH.
func (v ToolchainVerifier) locate(envVar string, candidates []string) (string, error) {
	if override := strings.TrimSpace(os.Getenv(envVar)); override != "" {
		path, err := v.Runner.LookPath(override)
		if err != nil {
			return "", errbuilder.New().
				WithCode(errbuilder.CodeFailedPrecondition).
				WithMsg("compiler from " + envVar + " not found: " + override).
				WithCause(err)
		}
		return path, nil
	}
	for _, candidate := range candidates {
		if path, err := v.Runner.LookPath(candidate); err == nil {
			return path, nil
		}
	}
	return "", errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg("no systems compiler found (tried " + strings.Join(candidates, ", ") + ")")
}

// compileTrivial builds a throwaway binary to prove the compiler
// works end to end, not merely that it exists on PATH.
func (v ToolchainVerifier) compileTrivial(ctx context.Context, cxx string) error {
	dir, err := os.MkdirTemp("", "toolchain-verify-")
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create verification scratch dir").
			WithCause(err)
	}
	defer os.RemoveAll(dir)

	source := filepath.Join(dir, "probe.cpp")
	if err := os.WriteFile(source, []byte(trivialProgram), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write verification source").
			WithCause(err)
	}
	binary := filepath.Join(dir, "probe")
	output, err := v.Runner.Run(ctx, ports.Command{
		Name: cxx,
		Args: []string{"-std=c++17", "-fPIC", "-o", binary, source},
	})
	if v.Transcript != nil {
		v.Transcript.Attempt("compile trivial translation unit", 1, 1, output, err)
	}
	if err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeFailedPrecondition).
			WithMsg("trivial compile failed with " + cxx).
			WithCause(shared.CommandError(output, err))
	}
	return nil
}

// probePython fills in the Python include and library paths used by
// binding sub-stages.  A missing interpreter is not fatal here: only
// components with a bindings stage care, and they fail on their own
// terms.
func (v ToolchainVerifier) probePython(ctx context.Context, toolchain *types.Toolchain) {
	include, err := v.Runner.Run(ctx, ports.Command{
		Name: "python3",
		Args: []string{"-c", "import sysconfig; print(sysconfig.get_paths()['include'])"},
	})
	if err != nil {
		log.Ctx(ctx).Warn().Msg("python3 not probed; binding stages will be degraded")
		return
	}
	toolchain.PythonIncludeDir = strings.TrimSpace(string(include))
	library, err := v.Runner.Run(ctx, ports.Command{
		Name: "python3",
		Args: []string{"-c", "import sysconfig; print(sysconfig.get_config_var('LIBDIR') or '')"},
	})
	if err == nil {
		toolchain.PythonLibrary = strings.TrimSpace(string(library))
	}
}

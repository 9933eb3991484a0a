package adapters

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/types"
)

// ToolchainFileWriter renders the verified toolchain as a CMake
// toolchain file.  Every configure stage consumes this file, which is
// how the compiler paths end up embedded in each component's build
// cache.
type ToolchainFileWriter struct{}

func NewToolchainFileWriter() ToolchainFileWriter {
	return ToolchainFileWriter{}
}

func (w ToolchainFileWriter) Write(path string, toolchain types.Toolchain) error {
	var b strings.Builder
	fmt.Fprintf(&b, "set(CMAKE_C_COMPILER %q)\n", toolchain.CC)
	fmt.Fprintf(&b, "set(CMAKE_CXX_COMPILER %q)\n", toolchain.CXX)
	fmt.Fprintf(&b, "set(CMAKE_CXX_STANDARD %s)\n", toolchain.CXXStandard)
	b.WriteString("set(CMAKE_CXX_STANDARD_REQUIRED ON)\n")
	if toolchain.PositionIndependentCode {
		b.WriteString("set(CMAKE_POSITION_INDEPENDENT_CODE ON)\n")
	}
	if toolchain.PythonIncludeDir != "" {
		fmt.Fprintf(&b, "set(Python3_INCLUDE_DIR %q)\n", toolchain.PythonIncludeDir)
	}
	if toolchain.PythonLibrary != "" {
		fmt.Fprintf(&b, "set(Python3_LIBRARY %q)\n", toolchain.PythonLibrary)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create toolchain file directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write toolchain file").
			WithCause(err)
	}
	return nil
}

var _ ports.ToolchainFilePort = ToolchainFileWriter{}

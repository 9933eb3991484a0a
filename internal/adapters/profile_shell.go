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

const (
	profileBlockBegin = "# >>> genesis-provision toolchain >>>"
	profileBlockEnd   = "# <<< genesis-provision toolchain <<<"
)

// ShellProfile maintains one managed export block in a persistent
// shell profile.  Re-runs rewrite the block in place; nothing outside
// the markers is touched and entries are never duplicated.
type ShellProfile struct{}

func NewShellProfile() ShellProfile {
	return ShellProfile{}
}

func (a ShellProfile) AppendExports(path string, toolchain types.Toolchain, installPrefix string) error {
	existing, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to read shell profile").
			WithCause(err)
	}
	content := stripManagedBlock(string(existing))
	block := renderExports(toolchain, installPrefix)
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	content += block
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to create profile directory").
			WithCause(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return errbuilder.New().
			WithCode(errbuilder.CodeInternal).
			WithMsg("failed to write shell profile").
			WithCause(err)
	}
	return nil
}

func renderExports(toolchain types.Toolchain, installPrefix string) string {
	var b strings.Builder
	b.WriteString(profileBlockBegin + "\n")
	fmt.Fprintf(&b, "export CC=%q\n", toolchain.CC)
	fmt.Fprintf(&b, "export CXX=%q\n", toolchain.CXX)
	if toolchain.PositionIndependentCode {
		b.WriteString("export CMAKE_POSITION_INDEPENDENT_CODE=ON\n")
	}
	fmt.Fprintf(&b, "export LD_LIBRARY_PATH=%q${LD_LIBRARY_PATH:+:$LD_LIBRARY_PATH}\n", filepath.Join(installPrefix, "lib"))
	fmt.Fprintf(&b, "export PATH=%q${PATH:+:$PATH}\n", filepath.Join(installPrefix, "bin"))
	if toolchain.PythonIncludeDir != "" {
		fmt.Fprintf(&b, "export PYTHONPATH=%q${PYTHONPATH:+:$PYTHONPATH}\n", filepath.Join(installPrefix, "lib", "python"))
	}
	b.WriteString(profileBlockEnd + "\n")
	return b.String()
}

// stripManagedBlock removes a previous managed block, leaving user
// content untouched.
func stripManagedBlock(content string) string {
	begin := strings.Index(content, profileBlockBegin)
	if begin < 0 {
		return content
	}
	end := strings.Index(content, profileBlockEnd)
	if end < 0 {
		return content[:begin]
	}
	rest := content[end+len(profileBlockEnd):]
	rest = strings.TrimPrefix(rest, "\n")
	return content[:begin] + rest
}

var _ ports.ProfilePort = ShellProfile{}

package ports

import "genesis-provision/internal/types"

// ToolchainFilePort writes the descriptor file that the configure
// stage passes to the build-system generator.
type ToolchainFilePort interface {
	Write(path string, toolchain types.Toolchain) error
}

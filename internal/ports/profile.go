package ports

import "genesis-provision/internal/types"

// ProfilePort appends toolchain environment exports to a persistent
// shell profile.  The append is idempotent: re-running against a
// profile that already carries the managed block leaves it unchanged.
type ProfilePort interface {
	AppendExports(path string, toolchain types.Toolchain, installPrefix string) error
}

package ports

import (
	"context"

	"genesis-provision/internal/types"
)

// ProberPort answers "is this component present, and at what version".
// Implementations must be side-effect-free and repeatable: the
// orchestrator probes once before installing and once more for the
// final report, and expects consistent answers absent external change.
type ProberPort interface {
	Check(ctx context.Context, component types.Component) (types.Capability, error)
}

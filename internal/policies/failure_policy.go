// Package policies holds the explicit failure rules the orchestrator
// applies, so fatality is decided by declaration rather than inferred
// per call site.
package policies

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"genesis-provision/internal/types"
)

// FailureDecision is what the run does after a component exhausts its
// retries.
type FailureDecision string

const (
	// DecisionAbort stops the run; no later component is attempted.
	DecisionAbort FailureDecision = "abort"
	// DecisionRecord logs the failure and moves on.
	DecisionRecord FailureDecision = "record"
)

// Decide resolves a stage failure for a component.  The Required flag
// is the single source of truth: an optional component never aborts
// the run, regardless of which stage failed.  The returned error is
// non-nil only for the abort case and names the failing stage and
// component.
func Decide(component types.Component, stage string, cause error) (FailureDecision, types.FinalState, error) {
	if !component.Required {
		return DecisionRecord, types.FinalStateFailedOptional, nil
	}
	return DecisionAbort, types.FinalStateFailedRequired, errbuilder.New().
		WithCode(errbuilder.CodeFailedPrecondition).
		WithMsg(fmt.Sprintf("required component %s failed at stage %s", component.Name, stage)).
		WithCause(cause)
}

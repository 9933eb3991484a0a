package core

import (
	"fmt"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"genesis-provision/internal/types"
)

// legalTransitions encodes the per-component lifecycle:
// NOT_CHECKED -> CHECKED_PRESENT (terminal) | CHECKED_MISSING
// CHECKED_MISSING -> INSTALLING -> INSTALLED | FAILED (terminal).
var legalTransitions = map[types.ComponentState][]types.ComponentState{
	types.ComponentStateNotChecked:     {types.ComponentStateCheckedPresent, types.ComponentStateCheckedMissing},
	types.ComponentStateCheckedMissing: {types.ComponentStateInstalling},
	types.ComponentStateInstalling:     {types.ComponentStateInstalled, types.ComponentStateFailed},
}

// Transition validates a lifecycle step.  An illegal step is an
// internal bug, not an environmental failure.
func Transition(from types.ComponentState, to types.ComponentState) (types.ComponentState, error) {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return to, nil
		}
	}
	return from, errbuilder.New().
		WithCode(errbuilder.CodeInternal).
		WithMsg(fmt.Sprintf("illegal component state transition %s -> %s", from, to))
}

// Terminal reports whether a state admits no further transitions.
func Terminal(state types.ComponentState) bool {
	return len(legalTransitions[state]) == 0
}

package types

// Capability is the result of probing one component.  Probes are
// side-effect-free and repeatable; Version is empty for components
// whose presence check carries no version (marker directories).
type Capability struct {
	Present bool
	Version string
}

// Toolchain is the immutable record of verified compiler paths and
// flags shared by every native build in a run.  It is assembled once
// by the verifier, after a trivial translation unit compiles, and is
// never re-derived mid-run.
type Toolchain struct {
	CC                      string
	CXX                     string
	CXXStandard             string
	PositionIndependentCode bool
	PythonIncludeDir        string
	PythonLibrary           string
}

// InstallOutcome records what happened to one component during a run.
type InstallOutcome struct {
	Component  Component
	FinalState FinalState
	Attempts   int
	LogExcerpt string
}

// StatusRow is one line of the post-run presence matrix.
type StatusRow struct {
	Name     string
	Kind     ComponentKind
	Required bool
	Present  bool
	Version  string
	Outcome  FinalState
}

// StatusReport is the rendered result of re-probing every declared
// component after the run.  ExitOK is false when any required
// component failed or remains absent.
type StatusReport struct {
	Rows   []StatusRow
	ExitOK bool
}

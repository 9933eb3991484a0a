package types

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

type ComponentKind string

const (
	ComponentKindSystemPackage ComponentKind = "system-package"
	ComponentKindPythonPackage ComponentKind = "python-package"
	ComponentKindCommandTool   ComponentKind = "command-line-tool"
	ComponentKindSourceBuild   ComponentKind = "source-build"
)

type BuilderKind string

const (
	BuilderKindCMake     BuilderKind = "cmake"
	BuilderKindCargo     BuilderKind = "cargo"
	BuilderKindBootstrap BuilderKind = "bootstrap"
)

type ComponentState string

const (
	ComponentStateNotChecked     ComponentState = "not-checked"
	ComponentStateCheckedPresent ComponentState = "checked-present"
	ComponentStateCheckedMissing ComponentState = "checked-missing"
	ComponentStateInstalling     ComponentState = "installing"
	ComponentStateInstalled      ComponentState = "installed"
	ComponentStateFailed         ComponentState = "failed"
)

type FinalState string

const (
	FinalStateAlreadyPresent FinalState = "already-present"
	FinalStateInstalled      FinalState = "installed"
	FinalStateFailedOptional FinalState = "failed-optional"
	FinalStateFailedRequired FinalState = "failed-required"
	FinalStateSkipped        FinalState = "skipped"
)

// SourceBuild holds the parameters of a fetch/configure/build/install
// pipeline for a component built from source.  Marker is an on-disk
// path whose existence means the source tree (or installed artifact)
// is already in place and must not be re-fetched.
type SourceBuild struct {
	Repo           string      `yaml:"repo"`
	Ref            string      `yaml:"ref,omitempty"`
	Marker         string      `yaml:"marker"`
	Builder        BuilderKind `yaml:"builder"`
	ConfigureFlags []string    `yaml:"configure_flags,omitempty"`

	// Bindings enables the post-install language-binding sub-stage,
	// compiled against the same toolchain as the native artifact.
	Bindings       bool   `yaml:"bindings,omitempty"`
	BindingsTarget string `yaml:"bindings_target,omitempty"`
	InstallSudo    bool   `yaml:"install_sudo,omitempty"`
}

// Component is a named unit of native or language tooling with a
// presence check and an install procedure.  The declared set is fixed
// at orchestrator start; resolved state is recomputed every run from
// what the probes observe.
type Component struct {
	Name       string        `yaml:"name"`
	Kind       ComponentKind `yaml:"kind"`
	Required   bool          `yaml:"required"`
	MinVersion string        `yaml:"min_version,omitempty"`
	DependsOn  []string      `yaml:"depends_on,omitempty"`

	// Package is the apt or pip package name for installable package
	// kinds; defaults to Name when empty.
	Package string `yaml:"package,omitempty"`

	// Command is the executable probed for command-line-tool kinds;
	// defaults to Name when empty.
	Command string `yaml:"command,omitempty"`

	Source *SourceBuild `yaml:"source,omitempty"`

	Retry *RetryPolicy `yaml:"retry,omitempty"`
}

// PackageName returns the package-manager name for the component.
func (c Component) PackageName() string {
	if c.Package != "" {
		return c.Package
	}
	return c.Name
}

// CommandName returns the probed executable for the component.
func (c Component) CommandName() string {
	if c.Command != "" {
		return c.Command
	}
	return c.Name
}

// RetryPolicy bounds the attempts of one operation.  Attempts are
// counted 1..MaxAttempts inclusive; Backoff is the fixed sleep between
// consecutive attempts.
type RetryPolicy struct {
	MaxAttempts int           `yaml:"max_attempts"`
	Backoff     time.Duration `yaml:"-"`
}

// UnmarshalYAML accepts backoff as a duration string ("30s", "2m").
func (p *RetryPolicy) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		MaxAttempts int    `yaml:"max_attempts"`
		Backoff     string `yaml:"backoff"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}
	p.MaxAttempts = raw.MaxAttempts
	p.Backoff = 0
	if raw.Backoff != "" {
		backoff, err := time.ParseDuration(raw.Backoff)
		if err != nil {
			return fmt.Errorf("invalid backoff %q: %w", raw.Backoff, err)
		}
		p.Backoff = backoff
	}
	return nil
}

// DefaultRetryPolicy applies to stages without a per-component override.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 3, Backoff: 5 * time.Second}
}

package core

import (
	"fmt"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"
	pep440 "github.com/aquasecurity/go-pep440-version"
	debversion "github.com/knqyf263/go-deb-version"

	"genesis-provision/internal/shared"
	"genesis-provision/internal/types"
)

// versionCache memoizes parsed version objects so repeated probe and
// report comparisons do not re-parse the same strings.
type versionCache struct {
	deb map[string]debversion.Version
	pep map[string]pep440.Version
}

func newVersionCache() *versionCache {
	return &versionCache{
		deb: map[string]debversion.Version{},
		pep: map[string]pep440.Version{},
	}
}

func (c *versionCache) debVersion(value string) (debversion.Version, error) {
	if parsed, ok := c.deb[value]; ok {
		return parsed, nil
	}
	parsed, err := debversion.NewVersion(value)
	if err != nil {
		return debversion.Version{}, err
	}
	c.deb[value] = parsed
	return parsed, nil
}

func (c *versionCache) pepVersion(value string) (pep440.Version, error) {
	if parsed, ok := c.pep[value]; ok {
		return parsed, nil
	}
	parsed, err := pep440.Parse(value)
	if err != nil {
		return pep440.Version{}, err
	}
	c.pep[value] = parsed
	return parsed, nil
}

// NormalizeToolVersion extracts the leading dotted-numeric token from
// a tool's --version output ("cmake version 3.26.5-gdeadbeef" becomes
// "3.26.5").  Returns an empty string when no numeric token exists.
func NormalizeToolVersion(raw string) string {
	return shared.NumericVersionToken(raw)
}

// SatisfiesMinimum is the uncached form of the minimum-version check,
// for callers outside the reporter's probe loop.
func SatisfiesMinimum(kind types.ComponentKind, have string, min string) (bool, error) {
	return newVersionCache().Satisfies(kind, have, min)
}

// Satisfies reports whether the observed version meets the minimum for
// the given component kind.  Comparison is numeric per segment, never
// lexicographic: "3.9.0" does not satisfy a minimum of "3.18".  An
// empty minimum is always satisfied; an empty observed version never
// satisfies a non-empty minimum.
func (c *versionCache) Satisfies(kind types.ComponentKind, have string, min string) (bool, error) {
	if strings.TrimSpace(min) == "" {
		return true, nil
	}
	if strings.TrimSpace(have) == "" {
		return false, nil
	}
	switch kind {
	case types.ComponentKindSystemPackage:
		observed, err := c.debVersion(have)
		if err != nil {
			return false, versionParseError(have, err)
		}
		floor, err := c.debVersion(min)
		if err != nil {
			return false, versionParseError(min, err)
		}
		return observed.Compare(floor) >= 0, nil
	case types.ComponentKindPythonPackage, types.ComponentKindCommandTool:
		observed, err := c.pepVersion(NormalizeToolVersion(have))
		if err != nil {
			return false, versionParseError(have, err)
		}
		floor, err := c.pepVersion(min)
		if err != nil {
			return false, versionParseError(min, err)
		}
		return observed.Compare(floor) >= 0, nil
	case types.ComponentKindSourceBuild:
		// Source builds are presence-checked by marker; a minimum
		// version on one is a manifest mistake.
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg("source-build components do not carry version minimums")
	default:
		return false, errbuilder.New().
			WithCode(errbuilder.CodeInvalidArgument).
			WithMsg(fmt.Sprintf("unsupported component kind: %s", kind))
	}
}

func versionParseError(value string, cause error) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("unparseable version %q", value)).
		WithCause(cause)
}

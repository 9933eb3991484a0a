// Package shared provides common utility functions used across multiple
// packages in the genesis-provision codebase.
package shared

import (
	"fmt"
	"regexp"
	"strings"
)

var numericVersion = regexp.MustCompile(`\d+(\.\d+)*`)

// NumericVersionToken extracts the first dotted-numeric token from the
// first line of a version banner ("cmake version 3.26.5" yields
// "3.26.5").  Returns an empty string when no token exists.
func NumericVersionToken(banner string) string {
	line := banner
	if idx := strings.IndexByte(banner, '\n'); idx >= 0 {
		line = banner[:idx]
	}
	return numericVersion.FindString(line)
}

// NormalizePipName lowercases a Python package name and replaces
// underscores and dots with hyphens, following PEP 503 normalization.
func NormalizePipName(value string) string {
	lower := strings.ToLower(strings.TrimSpace(value))
	replacer := strings.NewReplacer("_", "-", ".", "-")
	return replacer.Replace(lower)
}

// CommandError wraps a command execution error with its trimmed output
// for cleaner error messages.
func CommandError(output []byte, err error) error {
	return fmt.Errorf("%s: %w", strings.TrimSpace(string(output)), err)
}

// Excerpt returns the trailing lines of command output, capped at n
// lines, for embedding in outcomes and diagnostics.
func Excerpt(output []byte, n int) string {
	trimmed := strings.TrimSpace(string(output))
	if trimmed == "" {
		return ""
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Package testutil provides shared test helpers used across integration,
// e2e, and unit test packages.
package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// RepoRoot returns the absolute path to the repository root by walking
// up from the current working directory. It fails the test if the
// working directory cannot be determined.
func RepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	require.NoError(t, err)
	return filepath.Clean(filepath.Join(dir, "..", ".."))
}

// WriteStubTool writes an executable shell script into dir.  E2E runs
// prepend dir to PATH so the orchestrator drives these stubs instead
// of the host's real compilers and package managers.
func WriteStubTool(t *testing.T, dir string, name string, script string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755))
	return path
}

// WriteManifest writes a component manifest into dir and returns its
// path.
func WriteManifest(t *testing.T, dir string, content string) string {
	t.Helper()
	path := filepath.Join(dir, "components.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

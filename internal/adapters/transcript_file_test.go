package adapters

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranscriptRecordsEveryAttempt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.log")
	transcript, err := NewTranscriptFile(path)
	require.NoError(t, err)

	transcript.Attempt("clone ompl", 1, 3, []byte("early EOF"), errors.New("exit status 128"))
	transcript.Attempt("clone ompl", 2, 3, []byte("early EOF"), errors.New("exit status 128"))
	transcript.Attempt("clone ompl", 3, 3, []byte("Receiving objects: 100%"), nil)
	require.NoError(t, transcript.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(string(content), "clone ompl"))
	assert.Contains(t, string(content), "(attempt 1/3) failed: exit status 128")
	assert.Contains(t, string(content), "(attempt 3/3) ok")
	assert.Contains(t, string(content), "Receiving objects: 100%")
}

func TestTranscriptNote(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.log")
	transcript, err := NewTranscriptFile(path)
	require.NoError(t, err)

	transcript.Note("toolchain verified")
	require.NoError(t, transcript.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "toolchain verified")
}

func TestTranscriptAppendsAcrossRuns(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.log")

	first, err := NewTranscriptFile(path)
	require.NoError(t, err)
	first.Note("first run")
	require.NoError(t, first.Close())

	second, err := NewTranscriptFile(path)
	require.NoError(t, err)
	second.Note("second run")
	require.NoError(t, second.Close())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "first run")
	assert.Contains(t, string(content), "second run")
}

func TestTranscriptPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "provision.log")
	transcript, err := NewTranscriptFile(path)
	require.NoError(t, err)
	defer transcript.Close()

	assert.Equal(t, path, transcript.Path())
}

package adapters

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/types"
)

// stubRunner answers Run and LookPath from canned data and records the
// commands it saw.
type stubRunner struct {
	calls   []ports.Command
	handler func(cmd ports.Command) ([]byte, error)
	paths   map[string]string
}

func (r *stubRunner) Run(_ context.Context, cmd ports.Command) ([]byte, error) {
	r.calls = append(r.calls, cmd)
	if r.handler != nil {
		return r.handler(cmd)
	}
	return nil, errors.New("no handler")
}

func (r *stubRunner) LookPath(name string) (string, error) {
	if path, ok := r.paths[name]; ok {
		return path, nil
	}
	return "", errors.New("executable file not found in $PATH")
}

func TestProberAdapterDispatchesByKind(t *testing.T) {
	runner := &stubRunner{
		paths: map[string]string{"cargo": "/usr/bin/cargo"},
		handler: func(cmd ports.Command) ([]byte, error) {
			switch cmd.Name {
			case "dpkg-query":
				return []byte("install ok installed 2.34.1-1"), nil
			case "python3":
				return []byte("Name: torch\nVersion: 2.1.1\n"), nil
			case "cargo":
				return []byte("cargo 1.79.0 (ffa9cf99a 2024-06-03)"), nil
			}
			return nil, errors.New("unexpected command")
		},
	}
	prober := NewProberAdapter(runner)

	cases := []struct {
		component types.Component
		version   string
	}{
		{types.Component{Name: "git", Kind: types.ComponentKindSystemPackage}, "2.34.1-1"},
		{types.Component{Name: "torch", Kind: types.ComponentKindPythonPackage}, "2.1.1"},
		{types.Component{Name: "cargo", Kind: types.ComponentKindCommandTool}, "1.79.0"},
	}
	for _, tc := range cases {
		capability, err := prober.Check(context.Background(), tc.component)
		require.NoError(t, err, tc.component.Name)
		assert.True(t, capability.Present, tc.component.Name)
		assert.Equal(t, tc.version, capability.Version, tc.component.Name)
	}
}

func TestProberAdapterRejectsUnknownKind(t *testing.T) {
	prober := NewProberAdapter(&stubRunner{})

	_, err := prober.Check(context.Background(), types.Component{Name: "x", Kind: "archive"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported component kind")
}

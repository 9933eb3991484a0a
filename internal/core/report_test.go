package core

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"genesis-provision/internal/types"
)

type fakeProber struct {
	capabilities map[string]types.Capability
	errs         map[string]error
}

func (p fakeProber) Check(_ context.Context, component types.Component) (types.Capability, error) {
	if err, ok := p.errs[component.Name]; ok {
		return types.Capability{}, err
	}
	return p.capabilities[component.Name], nil
}

func TestReportAllRequiredPresent(t *testing.T) {
	components := []types.Component{
		{Name: "git", Kind: types.ComponentKindSystemPackage, Required: true},
		{Name: "cmake", Kind: types.ComponentKindCommandTool, Required: true, MinVersion: "3.18"},
	}
	prober := fakeProber{capabilities: map[string]types.Capability{
		"git":   {Present: true, Version: "1:2.34.1-1ubuntu1"},
		"cmake": {Present: true, Version: "3.26.5"},
	}}
	outcomes := map[string]types.InstallOutcome{
		"cmake": {FinalState: types.FinalStateInstalled},
	}

	report, err := NewReporter(prober).Report(context.Background(), components, outcomes)

	require.NoError(t, err)
	assert.True(t, report.ExitOK)
	want := []types.StatusRow{
		{Name: "git", Kind: types.ComponentKindSystemPackage, Required: true, Present: true, Version: "1:2.34.1-1ubuntu1", Outcome: types.FinalStateSkipped},
		{Name: "cmake", Kind: types.ComponentKindCommandTool, Required: true, Present: true, Version: "3.26.5", Outcome: types.FinalStateInstalled},
	}
	if diff := cmp.Diff(want, report.Rows); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}
}

func TestReportRequiredMissingFailsExit(t *testing.T) {
	components := []types.Component{
		{Name: "ompl", Kind: types.ComponentKindSourceBuild, Required: true},
	}
	prober := fakeProber{capabilities: map[string]types.Capability{}}

	report, err := NewReporter(prober).Report(context.Background(), components, nil)

	require.NoError(t, err)
	assert.False(t, report.ExitOK)
	assert.Equal(t, types.FinalStateSkipped, report.Rows[0].Outcome)
}

func TestReportRequiredBelowMinimumFailsExit(t *testing.T) {
	components := []types.Component{
		{Name: "cmake", Kind: types.ComponentKindCommandTool, Required: true, MinVersion: "3.18"},
	}
	prober := fakeProber{capabilities: map[string]types.Capability{
		"cmake": {Present: true, Version: "3.9.0"},
	}}

	report, err := NewReporter(prober).Report(context.Background(), components, nil)

	require.NoError(t, err)
	assert.False(t, report.ExitOK)
}

func TestReportOptionalMissingKeepsExitOK(t *testing.T) {
	components := []types.Component{
		{Name: "git", Kind: types.ComponentKindSystemPackage, Required: true},
		{Name: "luisa-render", Kind: types.ComponentKindSourceBuild, Required: false},
	}
	prober := fakeProber{capabilities: map[string]types.Capability{
		"git": {Present: true, Version: "1:2.34.1-1ubuntu1"},
	}}
	outcomes := map[string]types.InstallOutcome{
		"luisa-render": {FinalState: types.FinalStateFailedOptional},
	}

	report, err := NewReporter(prober).Report(context.Background(), components, outcomes)

	require.NoError(t, err)
	assert.True(t, report.ExitOK)
	assert.Equal(t, types.FinalStateFailedOptional, report.Rows[1].Outcome)
}

func TestReportProbeErrorTreatedAsMissing(t *testing.T) {
	components := []types.Component{
		{Name: "torch", Kind: types.ComponentKindPythonPackage, Required: false},
	}
	prober := fakeProber{errs: map[string]error{"torch": errors.New("pip unavailable")}}

	report, err := NewReporter(prober).Report(context.Background(), components, nil)

	require.NoError(t, err)
	assert.True(t, report.ExitOK)
	assert.False(t, report.Rows[0].Present)
}

func TestRenderMatrix(t *testing.T) {
	report := types.StatusReport{
		ExitOK: false,
		Rows: []types.StatusRow{
			{Name: "git", Required: true, Present: true, Version: "2.34.1", Outcome: types.FinalStateSkipped},
			{Name: "ompl", Required: true, Present: false, Outcome: types.FinalStateFailedRequired},
		},
	}

	rendered := Render(report)

	assert.Contains(t, rendered, "COMPONENT")
	assert.Contains(t, rendered, "required")
	assert.Contains(t, rendered, "missing")
	assert.Contains(t, rendered, "2.34.1")
	assert.Contains(t, rendered, "result: required components missing or failed")
}

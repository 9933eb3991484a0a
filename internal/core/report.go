package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"genesis-provision/internal/ports"
	"genesis-provision/internal/types"
)

// Reporter re-probes every declared component after the run and turns
// the answers into the presence matrix and aggregate exit status.
type Reporter struct {
	Prober ports.ProberPort
}

func NewReporter(prober ports.ProberPort) Reporter {
	return Reporter{Prober: prober}
}

// Report probes each component fresh, so the matrix reflects the
// machine as it stands rather than what the installers claim to have
// done.  Outcomes, when present, annotate the matrix; after a fatal
// abort outcomes are partial and the remaining rows carry skipped.
// ExitOK is false iff some required component failed or remains
// absent (or present below its minimum version); optional components
// never affect it.
func (r Reporter) Report(ctx context.Context, components []types.Component, outcomes map[string]types.InstallOutcome) (types.StatusReport, error) {
	cache := newVersionCache()
	report := types.StatusReport{ExitOK: true}
	for _, component := range components {
		capability, err := r.Prober.Check(ctx, component)
		if err != nil {
			log.Ctx(ctx).Warn().
				Str("component", component.Name).
				Err(err).
				Msg("post-run probe failed")
			capability = types.Capability{}
		}
		row := types.StatusRow{
			Name:     component.Name,
			Kind:     component.Kind,
			Required: component.Required,
			Present:  capability.Present,
			Version:  capability.Version,
		}
		if outcome, ok := outcomes[component.Name]; ok {
			row.Outcome = outcome.FinalState
		} else {
			row.Outcome = types.FinalStateSkipped
		}
		satisfied := capability.Present
		if satisfied && component.MinVersion != "" {
			ok, err := cache.Satisfies(component.Kind, capability.Version, component.MinVersion)
			if err == nil {
				satisfied = ok
			}
		}
		if component.Required && (!satisfied || row.Outcome == types.FinalStateFailedRequired) {
			report.ExitOK = false
		}
		report.Rows = append(report.Rows, row)
	}
	return report, nil
}

// Render produces the human-readable presence matrix.
func Render(report types.StatusReport) string {
	nameWidth := len("COMPONENT")
	for _, row := range report.Rows {
		if len(row.Name) > nameWidth {
			nameWidth = len(row.Name)
		}
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-*s  %-9s  %-8s  %-10s  %s\n", nameWidth, "COMPONENT", "REQUIRED", "PRESENT", "VERSION", "OUTCOME")
	for _, row := range report.Rows {
		required := "optional"
		if row.Required {
			required = "required"
		}
		present := "missing"
		if row.Present {
			present = "present"
		}
		version := row.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(&b, "%-*s  %-9s  %-8s  %-10s  %s\n", nameWidth, row.Name, required, present, version, row.Outcome)
	}
	if report.ExitOK {
		b.WriteString("result: ok\n")
	} else {
		b.WriteString("result: required components missing or failed\n")
	}
	return b.String()
}

package app

import (
	"time"

	"genesis-provision/internal/adapters"
	"genesis-provision/internal/ports"
)

type Service struct {
	Manifest      ports.ManifestPort
	Runner        ports.CommandRunnerPort
	Prober        ports.ProberPort
	Profile       ports.ProfilePort
	ToolchainFile ports.ToolchainFilePort
	// NewTranscript opens the run-scoped transcript; one per run, not
	// per service, so consecutive runs never interleave logs.
	NewTranscript func(path string) (ports.TranscriptPort, error)
	Clock         func() time.Time
}

func timeNow(clock func() time.Time) time.Time {
	if clock == nil {
		return time.Now()
	}
	return clock()
}

func NewService() Service {
	runner := adapters.NewExecRunner()
	return Service{
		Manifest:      adapters.NewManifestFileAdapter(),
		Runner:        runner,
		Prober:        adapters.NewProberAdapter(runner),
		Profile:       adapters.NewShellProfile(),
		ToolchainFile: adapters.NewToolchainFileWriter(),
		NewTranscript: func(path string) (ports.TranscriptPort, error) {
			return adapters.NewTranscriptFile(path)
		},
		Clock: time.Now,
	}
}

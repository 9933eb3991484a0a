package app

import "genesis-provision/internal/types"

type ProvisionRequest struct {
	ManifestPath  string
	BuildRoot     string
	InstallPrefix string
	ProfilePath   string
	Transcript    string
	Jobs          int
	Sudo          bool
}

type ProvisionResult struct {
	Report     types.StatusReport
	Rendered   string
	Outcomes   []types.InstallOutcome
	Transcript string
}

type StatusRequest struct {
	ManifestPath  string
	BuildRoot     string
	InstallPrefix string
}

type StatusResult struct {
	Report   types.StatusReport
	Rendered string
}

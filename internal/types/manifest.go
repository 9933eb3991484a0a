package types

type ManifestKind string

const ManifestKindComponents ManifestKind = "components"

type ManifestMetadata struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description,omitempty"`
}

// Manifest is the YAML document declaring the component chain.  The
// built-in manifest covers the standard simulation stack; a file-based
// manifest replaces it wholesale rather than merging.
type Manifest struct {
	APIVersion string           `yaml:"api_version"`
	Kind       ManifestKind     `yaml:"kind"`
	Metadata   ManifestMetadata `yaml:"metadata"`
	Components []Component      `yaml:"components"`
}

package ports

import "genesis-provision/internal/types"

type ManifestPort interface {
	Load(path string) (types.Manifest, error)
}

package catalog

import (
	domcat "github.com/kailas-cloud/evidex/internal/domain/catalog"
)

// Repository provides the loaded catalogs.
type Repository interface {
	Get(name string) (*domcat.Catalog, error)
	All() []*domcat.Catalog
}

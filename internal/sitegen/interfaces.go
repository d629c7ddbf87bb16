// Package sitegen renders the download catalog as a static site.
// Following Dave Cheney's principle: "Accept interfaces, return structs"
package sitegen

import (
	"context"

	"github.com/sptk-project/sptkdl/internal/catalog"
)

// CatalogSource produces the catalog to render.
// *catalog.Builder satisfies it; tests pass fixed catalogs.
type CatalogSource interface {
	// Build returns the current catalog. It never returns nil.
	Build(ctx context.Context) *catalog.Catalog
}

// StaticSource serves a fixed catalog.
type StaticSource struct {
	Catalog *catalog.Catalog
}

// Build implements CatalogSource.
func (s StaticSource) Build(context.Context) *catalog.Catalog {
	if s.Catalog == nil {
		return catalog.Empty()
	}
	return s.Catalog
}

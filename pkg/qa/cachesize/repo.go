package cachesize

import (
	"context"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
)

// Repo is the platform database access the cache size check needs.
type Repo interface {
	// SchemaCatalog returns the table-to-columns catalog of the platform
	// database. When forceRefresh is true any cached catalog is discarded
	// and the schema is re-read.
	SchemaCatalog(ctx context.Context, forceRefresh bool) (map[string][]string, error)
	// TableExists reports whether a table with the given name exists.
	TableExists(ctx context.Context, name string) (bool, error)
	// CacheRows returns every row of the named cache table, ordered by cid.
	CacheRows(ctx context.Context, table string) ([]model.CacheRow, error)
}

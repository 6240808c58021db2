// Package sqlrepo implements platform storage access against a SQLite
// database laid out the way Fieldstone stores content: an `entities` table,
// per-bundle field declarations, field value deltas, field storage
// configuration, and one table per cache bin.
package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("platform/sqlrepo")

const defaultPreparedStmtCacheSize = 128

// Repo answers read queries against a platform database. It caches prepared
// statements and the schema catalog between calls.
type Repo struct {
	db            *sql.DB
	preparedStmts *lru.Cache[string, *sql.Stmt]

	catalogMu sync.Mutex
	catalog   map[string][]string
}

// New creates a Repo around an open platform database connection.
func New(db *sql.DB) (*Repo, error) {
	cache, err := lru.NewWithEvict(defaultPreparedStmtCacheSize, func(key string, stmt *sql.Stmt) {
		stmt.Close()
	})
	if err != nil {
		return nil, err
	}
	return &Repo{db: db, preparedStmts: cache}, nil
}

func (r *Repo) prepareStmt(ctx context.Context, query string) (*sql.Stmt, error) {
	if stmt, ok := r.preparedStmts.Get(query); ok {
		return stmt, nil
	}
	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		return nil, err
	}
	_ = r.preparedStmts.Add(query, stmt)
	return stmt, nil
}

func (r *Repo) Close() error {
	r.preparedStmts.Purge()
	return r.db.Close()
}

// quoteIdent quotes a SQL identifier. Cache bin tables are addressed by name,
// and names come from the schema catalog rather than from bind parameters.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// SchemaCatalog returns every user table in the platform database with its
// column names in declaration order. The catalog is cached after the first
// call; pass forceRefresh to requery the schema. The returned map is shared
// and must not be modified.
func (r *Repo) SchemaCatalog(ctx context.Context, forceRefresh bool) (map[string][]string, error) {
	r.catalogMu.Lock()
	defer r.catalogMu.Unlock()

	if r.catalog != nil && !forceRefresh {
		return r.catalog, nil
	}

	stmt, err := r.prepareStmt(ctx, `
		SELECT m.name, p.name
		FROM sqlite_master m, pragma_table_info(m.name) p
		WHERE m.type = 'table' AND m.name NOT LIKE 'sqlite\_%' ESCAPE '\'
		ORDER BY m.name, p.cid
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query schema catalog: %w", err)
	}
	defer rows.Close()

	catalog := map[string][]string{}
	for rows.Next() {
		var table, column string
		if err := rows.Scan(&table, &column); err != nil {
			return nil, fmt.Errorf("failed to scan schema catalog row: %w", err)
		}
		catalog[table] = append(catalog[table], column)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read schema catalog: %w", err)
	}

	r.catalog = catalog
	log.Debugf("schema catalog refreshed: %d tables", len(catalog))
	return catalog, nil
}

// TableExists reports whether a table with the given name exists.
func (r *Repo) TableExists(ctx context.Context, name string) (bool, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = ?)
	`)
	if err != nil {
		return false, fmt.Errorf("failed to prepare statement: %w", err)
	}
	var exists bool
	if err := stmt.QueryRowContext(ctx, name).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check for table %s: %w", name, err)
	}
	return exists, nil
}

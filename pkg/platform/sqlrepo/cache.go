package sqlrepo

import (
	"context"
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/cachesize"
)

var _ cachesize.Repo = (*Repo)(nil)

// CacheRows returns every row of the named cache bin table, ordered by cache
// ID so reports over the rows come out deterministic.
func (r *Repo) CacheRows(ctx context.Context, table string) ([]model.CacheRow, error) {
	stmt, err := r.prepareStmt(ctx, fmt.Sprintf(`
		SELECT cid, data, expire, created, serialized
		FROM %s
		ORDER BY cid
	`, quoteIdent(table)))
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query cache bin %s: %w", table, err)
	}
	defer rows.Close()

	var out []model.CacheRow
	for rows.Next() {
		var row model.CacheRow
		if err := rows.Scan(&row.CID, &row.Data, &row.Expire, &row.Created, &row.Serialized); err != nil {
			return nil, fmt.Errorf("failed to scan cache row from %s: %w", table, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cache bin %s: %w", table, err)
	}
	return out, nil
}

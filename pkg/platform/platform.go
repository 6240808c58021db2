// Package platform provides read-only access to a Fieldstone platform
// database: content entities, field storage configuration, and cache bins.
package platform

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	_ "modernc.org/sqlite"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/sqlrepo"
)

const (
	defaultBusyTimeout = 30 * time.Second
	pingMaxTries       = 3
)

// Open opens the platform database at dbPath for querying. The connection is
// query-only at the SQLite level; sitecheck never writes platform data. The
// initial ping is retried a few times, since a live platform can hold the
// database locked for short stretches.
func Open(ctx context.Context, dbPath string) (*sqlrepo.Repo, error) {
	var pragmas []string
	pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", defaultBusyTimeout.Milliseconds()))
	pragmas = append(pragmas, "_pragma=query_only(1)")

	connStr := fmt.Sprintf("file:%s?%s", dbPath, strings.Join(pragmas, "&"))
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open platform database at %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, err = backoff.Retry(ctx, func() (struct{}, error) {
		return struct{}{}, db.PingContext(ctx)
	}, backoff.WithMaxTries(pingMaxTries))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to reach platform database at %s: %w", dbPath, err)
	}

	return sqlrepo.New(db)
}

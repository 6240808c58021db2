// Package testdb creates throwaway SQLite databases shaped like the two
// stores sitecheck touches: the platform database the checks read and the
// results store the runner writes.
package testdb

import (
	"database/sql"
	_ "embed"
	"fmt"
	"testing"
	"time"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/sqlrepo"
	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var platformSchema string

// CreatePlatformDB creates a temporary SQLite database with the platform's
// entity and field tables. It returns the writable connection for seeding
// and the path to the database file for code that opens it by path.
func CreatePlatformDB(t *testing.T) (*sql.DB, string) {
	t.Helper()

	db, path := open(t)
	_, err := db.ExecContext(t.Context(), platformSchema)
	require.NoError(t, err, "failed to execute platform schema")

	return db, path
}

// CreateResultsDB creates a temporary SQLite results store with the schema
// and all migrations applied.
func CreateResultsDB(t *testing.T) *sql.DB {
	t.Helper()

	db, _ := open(t)
	_, err := db.ExecContext(t.Context(), sqlrepo.Schema)
	require.NoError(t, err, "failed to execute schema")

	goose.SetBaseFS(sqlrepo.MigrationsFS)

	require.NoError(t, goose.SetDialect("sqlite3"), "failed to set goose dialect")

	require.NoError(t, goose.Up(db, "migrations"), "failed to apply migrations")

	return db
}

// open gives each test its own database file to avoid cross-test contention
// and limits the connection pool to a single connection so modernc SQLite
// doesn't deadlock waiting on internal locks.
func open(t *testing.T) (*sql.DB, string) {
	t.Helper()

	d := t.TempDir()
	path := fmt.Sprintf("%s/testdb_%d.db", d, time.Now().UnixNano())

	db, err := sql.Open("sqlite", "file:"+path)
	require.NoError(t, err, "failed to open SQLite database")
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	t.Cleanup(func() {
		db.Close()
	})

	return db, path
}

package qa

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"strings"
	"time"

	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/sqlrepo"
)

const (
	defaultJournalMode      = "WAL"
	defaultSynchronous      = "NORMAL"
	defaultBusyTimeout      = 60 * time.Second
	defaultForeignKeys      = true
	defaultJournalSizeLimit = 64 * 1024 * 1024 // limits WAL file growth
)

// OpenStore opens (creating if necessary) the results store at dbPath,
// applies the schema and any pending migrations, and starts periodic WAL
// checkpointing.
func OpenStore(ctx context.Context, dbPath string, opts ...sqlrepo.Option) (*sqlrepo.Repo, error) {
	var pragmas []string
	pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_mode(%s)", defaultJournalMode))
	pragmas = append(pragmas, fmt.Sprintf("_pragma=busy_timeout(%d)", defaultBusyTimeout.Milliseconds()))
	pragmas = append(pragmas, fmt.Sprintf("_pragma=synchronous(%s)", defaultSynchronous))
	pragmas = append(pragmas, fmt.Sprintf("_pragma=foreign_keys(%d)", bool2int(defaultForeignKeys)))
	pragmas = append(pragmas, fmt.Sprintf("_pragma=journal_size_limit(%d)", defaultJournalSizeLimit))

	connStr := fmt.Sprintf("file:%s?%s", dbPath, strings.Join(pragmas, "&"))
	db, err := sql.Open("sqlite", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open results store at %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	_, err = db.ExecContext(ctx, sqlrepo.Schema)
	if err != nil {
		return nil, fmt.Errorf("failed to execute results store schema: %w", err)
	}

	// goose logs through the global logger and offers no way to turn that
	// off directly (pressly/goose#975), so silence it around the migration
	// run.
	stdlog.Default().SetOutput(io.Discard)

	goose.SetBaseFS(sqlrepo.MigrationsFS)

	if err := goose.SetDialect("sqlite3"); err != nil {
		return nil, fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return nil, fmt.Errorf("failed to apply results store migrations: %w", err)
	}

	stdlog.Default().SetOutput(os.Stderr)

	repo, err := sqlrepo.New(db, opts...)
	if err != nil {
		return nil, err
	}

	// Keep the WAL bounded while long scans record results.
	repo.StartPeriodicCheckpoint(ctx, sqlrepo.DefaultCheckpointInterval)

	return repo, nil
}

func bool2int(b bool) int {
	if b {
		return 1
	}
	return 0
}

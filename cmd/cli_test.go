package cmd

import (
	"bytes"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldstone-cms/sitecheck/internal/cmdutil"
	"github.com/fieldstone-cms/sitecheck/internal/testdb"
	"github.com/fieldstone-cms/sitecheck/internal/testutil"
)

// runCLI executes the root command with the given arguments and returns
// everything it wrote. Flag values survive between executions in the same
// process, so the per-command flags are reset to their defaults first.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	scanFlags.checks = nil
	passesFlags.limit = 10
	passesFlags.json = false
	checksFlags.json = false

	// Subcommands keep the context of their first execution the same way;
	// clear it so every run inherits this execution's context from the root.
	for _, c := range rootCmd.Commands() {
		c.SetContext(nil)
	}

	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := ExecuteContext(t.Context())
	return buf.String(), err
}

// seedSite creates a platform database holding one article with a resolvable
// topic reference and a small, healthy cache bin. It returns the open seeding
// handle for tests that add problems to it, and the database path.
func seedSite(t *testing.T) (*sql.DB, string) {
	t.Helper()

	db, path := testdb.CreatePlatformDB(t)
	testutil.CreateEntity(t, db, "node", 1, "article", "First article")
	testutil.CreateEntity(t, db, "topic", 7, "tags", "Go")
	testutil.CreateBundleField(t, db, "node", "article", "field_ref")
	testutil.CreateFieldConfig(t, db, "node", "field_ref", "entity_reference", "topic")
	testutil.SetFieldValue(t, db, "node", 1, "field_ref", 0, 7)
	testutil.CreateCacheBin(t, db, "cache_page")
	testutil.InsertCacheRow(t, db, "cache_page", "home", []byte("<html>front page</html>"), true)
	return db, path
}

func TestScanCommand(t *testing.T) {
	t.Run("passes on a clean site", func(t *testing.T) {
		_, dbPath := seedSite(t)

		out, err := runCLI(t, "scan", "--database", dbPath, "--data-dir", t.TempDir())
		require.NoError(t, err)
		require.Contains(t, out, fmt.Sprintf("Scanning %s (2 checks, 4 steps)", dbPath))
		require.Contains(t, out, "✓ cache_size/cache_size")
		require.Contains(t, out, "1 cache bins scanned, every entry within limits")
		require.Contains(t, out, "✓ reference_integrity/entity_reference")
		require.Contains(t, out, "1 entities checked, every reference resolves")
		require.Contains(t, out, "PASSED (4 steps)")
	})

	t.Run("reports a broken reference and fails", func(t *testing.T) {
		db, dbPath := seedSite(t)
		testutil.SetFieldValue(t, db, "node", 1, "field_ref", 1, 99)

		out, err := runCLI(t, "scan", "--database", dbPath, "--data-dir", t.TempDir())
		var handled cmdutil.HandledCliError
		require.ErrorAs(t, err, &handled)
		require.ErrorContains(t, err, "1 check step(s) failed")
		require.Contains(t, out, "✓ cache_size/cache_size")
		require.Contains(t, out, "✗ reference_integrity/entity_reference")
		require.Contains(t, out, "node 1 field_ref[1] references missing entity 99")
		require.Contains(t, out, "FAILED (4 steps)")
	})

	t.Run("reports an empty cache entry and fails", func(t *testing.T) {
		db, dbPath := seedSite(t)
		testutil.InsertCacheRow(t, db, "cache_page", "stale", nil, true)

		out, err := runCLI(t, "scan", "--database", dbPath, "--data-dir", t.TempDir())
		var handled cmdutil.HandledCliError
		require.ErrorAs(t, err, &handled)
		require.Contains(t, out, "✗ cache_size/cache_size")
		require.Contains(t, out, "cache_page stale: 0 B (0 bytes)")
		require.Contains(t, out, "FAILED (4 steps)")
	})

	t.Run("scopes the scan with --check", func(t *testing.T) {
		db, dbPath := seedSite(t)
		testutil.SetFieldValue(t, db, "node", 1, "field_ref", 1, 99)

		out, err := runCLI(t, "scan", "--database", dbPath, "--data-dir", t.TempDir(), "--check", "cache_size")
		require.NoError(t, err)
		require.Contains(t, out, fmt.Sprintf("Scanning %s (1 checks, 1 steps)", dbPath))
		require.Contains(t, out, "PASSED (1 steps)")
		require.NotContains(t, out, "reference_integrity")
	})

	t.Run("rejects an unknown check", func(t *testing.T) {
		_, dbPath := seedSite(t)

		_, err := runCLI(t, "scan", "--database", dbPath, "--data-dir", t.TempDir(), "--check", "typo")
		require.ErrorContains(t, err, `unknown check "typo" (known checks: cache_size, reference_integrity)`)
	})

	t.Run("requires a platform database", func(t *testing.T) {
		_, err := runCLI(t, "scan", "--database", "", "--data-dir", t.TempDir())
		require.ErrorContains(t, err, "platform database path required")
	})
}

func TestPassesCommand(t *testing.T) {
	t.Run("lists recorded passes", func(t *testing.T) {
		_, dbPath := seedSite(t)
		dataDir := t.TempDir()

		_, err := runCLI(t, "scan", "--database", dbPath, "--data-dir", dataDir)
		require.NoError(t, err)

		out, err := runCLI(t, "passes", "--data-dir", dataDir)
		require.NoError(t, err)
		require.Contains(t, out, "STATE")
		require.Contains(t, out, "completed")
		require.Contains(t, out, "4/4")
	})

	t.Run("prints a hint when the store is empty", func(t *testing.T) {
		out, err := runCLI(t, "passes", "--data-dir", t.TempDir())
		require.NoError(t, err)
		require.Contains(t, out, "No passes recorded yet")
	})
}

func TestChecksCommand(t *testing.T) {
	out, err := runCLI(t, "checks")
	require.NoError(t, err)
	require.Contains(t, out, "cache_size")
	require.Contains(t, out, "Cache entry sizes")
	require.Contains(t, out, "reference_integrity")
	require.Contains(t, out, "entity_reference, dynamic_entity_reference, entity_reference_revisions")
}

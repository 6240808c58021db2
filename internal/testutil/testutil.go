// Package testutil seeds platform database fixtures for tests.
package testutil

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// CreateEntity inserts an entity row.
func CreateEntity(t *testing.T, db *sql.DB, entityType string, id int64, bundle, label string) {
	t.Helper()

	_, err := db.ExecContext(t.Context(),
		`INSERT INTO entities (entity_type, id, bundle, label) VALUES (?, ?, ?, ?)`,
		entityType, id, bundle, label)
	require.NoError(t, err)
}

// CreateBundleField declares a field on a bundle.
func CreateBundleField(t *testing.T, db *sql.DB, entityType, bundle, fieldName string) {
	t.Helper()

	_, err := db.ExecContext(t.Context(),
		`INSERT INTO bundle_fields (entity_type, bundle, field_name) VALUES (?, ?, ?)`,
		entityType, bundle, fieldName)
	require.NoError(t, err)
}

// CreateFieldConfig inserts a field storage config.
func CreateFieldConfig(t *testing.T, db *sql.DB, entityType, fieldName, fieldType, targetType string) {
	t.Helper()

	_, err := db.ExecContext(t.Context(),
		`INSERT INTO field_storage_config (entity_type, field_name, field_type, target_type) VALUES (?, ?, ?, ?)`,
		entityType, fieldName, fieldType, targetType)
	require.NoError(t, err)
}

// SetFieldValue inserts one field value delta pointing at a target entity.
func SetFieldValue(t *testing.T, db *sql.DB, entityType string, entityID int64, fieldName string, delta int, targetID int64) {
	t.Helper()

	_, err := db.ExecContext(t.Context(),
		`INSERT INTO field_values (entity_type, entity_id, field_name, delta, target_id) VALUES (?, ?, ?, ?, ?)`,
		entityType, entityID, fieldName, delta, targetID)
	require.NoError(t, err)
}

// CreateCacheBin creates a table with the platform's cache bin shape.
func CreateCacheBin(t *testing.T, db *sql.DB, name string) {
	t.Helper()

	_, err := db.ExecContext(t.Context(), fmt.Sprintf(`
		CREATE TABLE %q (
			cid TEXT NOT NULL PRIMARY KEY,
			data BLOB,
			expire INTEGER NOT NULL DEFAULT 0,
			created REAL NOT NULL DEFAULT 0,
			serialized INTEGER NOT NULL DEFAULT 0
		)`, name))
	require.NoError(t, err)
}

// InsertCacheRow inserts one cache entry into a bin created by
// CreateCacheBin.
func InsertCacheRow(t *testing.T, db *sql.DB, bin, cid string, data []byte, serialized bool) {
	t.Helper()

	_, err := db.ExecContext(t.Context(), fmt.Sprintf(
		`INSERT INTO %q (cid, data, expire, created, serialized) VALUES (?, ?, -1, 0, ?)`, bin),
		cid, data, serialized)
	require.NoError(t, err)
}

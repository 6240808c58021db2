package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/references"
)

var _ references.Repo = (*Repo)(nil)

// LoadEntities loads every entity of the given type, ordered by ID, with its
// stored field values and the field names declared on its bundle.
//
// The whole entity set is materialized in one call. Scans over very large
// types pay for that in memory; callers that only need a slice of the type
// should filter in storage instead.
func (r *Repo) LoadEntities(ctx context.Context, entityType string) ([]*model.Entity, error) {
	entityRows, err := r.entityRows(ctx, entityType)
	if err != nil {
		return nil, err
	}
	if len(entityRows) == 0 {
		return nil, nil
	}

	bundleFields, err := r.bundleFields(ctx, entityType)
	if err != nil {
		return nil, err
	}
	values, err := r.fieldValues(ctx, entityType)
	if err != nil {
		return nil, err
	}

	entities := make([]*model.Entity, 0, len(entityRows))
	for _, row := range entityRows {
		entity, err := model.NewEntity(entityType, row.id, row.bundle, row.label, bundleFields[row.bundle], values[row.id])
		if err != nil {
			return nil, fmt.Errorf("failed to assemble entity %s %d: %w", entityType, row.id, err)
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

type entityRow struct {
	id     int64
	bundle string
	label  string
}

// The row queries below each drain their cursor before returning: the
// connection pool is capped at one connection, so a second query while a
// cursor is open would deadlock.

func (r *Repo) entityRows(ctx context.Context, entityType string) ([]entityRow, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT id, bundle, label
		FROM entities
		WHERE entity_type = ?
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to query entities of type %s: %w", entityType, err)
	}
	defer rows.Close()

	var out []entityRow
	for rows.Next() {
		var row entityRow
		var label sql.NullString
		if err := rows.Scan(&row.id, &row.bundle, &label); err != nil {
			return nil, fmt.Errorf("failed to scan entity row: %w", err)
		}
		row.label = label.String
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read entities of type %s: %w", entityType, err)
	}
	return out, nil
}

func (r *Repo) bundleFields(ctx context.Context, entityType string) (map[string][]string, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT bundle, field_name
		FROM bundle_fields
		WHERE entity_type = ?
		ORDER BY bundle, field_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to query bundle fields of type %s: %w", entityType, err)
	}
	defer rows.Close()

	fields := map[string][]string{}
	for rows.Next() {
		var bundle, fieldName string
		if err := rows.Scan(&bundle, &fieldName); err != nil {
			return nil, fmt.Errorf("failed to scan bundle field row: %w", err)
		}
		fields[bundle] = append(fields[bundle], fieldName)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read bundle fields of type %s: %w", entityType, err)
	}
	return fields, nil
}

func (r *Repo) fieldValues(ctx context.Context, entityType string) (map[int64]map[string][]model.FieldValue, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT entity_id, field_name, delta, target_id, value
		FROM field_values
		WHERE entity_type = ?
		ORDER BY entity_id, field_name, delta
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx, entityType)
	if err != nil {
		return nil, fmt.Errorf("failed to query field values of type %s: %w", entityType, err)
	}
	defer rows.Close()

	values := map[int64]map[string][]model.FieldValue{}
	for rows.Next() {
		var entityID int64
		var fieldName string
		var value model.FieldValue
		var targetID sql.NullInt64
		var scalar sql.NullString
		if err := rows.Scan(&entityID, &fieldName, &value.Delta, &targetID, &scalar); err != nil {
			return nil, fmt.Errorf("failed to scan field value row: %w", err)
		}
		value.TargetID = targetID.Int64
		value.Value = scalar.String
		if values[entityID] == nil {
			values[entityID] = map[string][]model.FieldValue{}
		}
		values[entityID][fieldName] = append(values[entityID][fieldName], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read field values of type %s: %w", entityType, err)
	}
	return values, nil
}

// ResolvedReferences returns the set of references from the given entity that
// the platform can actually resolve: each forward reference delta whose
// target entity exists under the declared target type. The result is the
// existence oracle reference checks compare against.
func (r *Repo) ResolvedReferences(ctx context.Context, entityType string, entityID int64) ([]model.Reference, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT DISTINCT fsc.target_type, fv.target_id
		FROM field_values fv
		JOIN field_storage_config fsc
		  ON fsc.entity_type = fv.entity_type AND fsc.field_name = fv.field_name
		JOIN entities e
		  ON e.entity_type = fsc.target_type AND e.id = fv.target_id
		WHERE fv.entity_type = ? AND fv.entity_id = ? AND fsc.field_type = ?
		ORDER BY fsc.target_type, fv.target_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx, entityType, entityID, model.FieldTypeEntityReference)
	if err != nil {
		return nil, fmt.Errorf("failed to query resolved references of %s %d: %w", entityType, entityID, err)
	}
	defer rows.Close()

	var refs []model.Reference
	for rows.Next() {
		var ref model.Reference
		if err := rows.Scan(&ref.TargetType, &ref.TargetID); err != nil {
			return nil, fmt.Errorf("failed to scan resolved reference row: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read resolved references of %s %d: %w", entityType, entityID, err)
	}
	return refs, nil
}

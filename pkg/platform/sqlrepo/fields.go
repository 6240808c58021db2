package sqlrepo

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
)

// ListFieldStorageConfigs returns every field storage definition in the
// platform database, ordered by entity type and field name.
func (r *Repo) ListFieldStorageConfigs(ctx context.Context) ([]model.FieldStorageConfig, error) {
	stmt, err := r.prepareStmt(ctx, `
		SELECT entity_type, field_name, field_type, target_type
		FROM field_storage_config
		ORDER BY entity_type, field_name
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare statement: %w", err)
	}
	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query field storage configs: %w", err)
	}
	defer rows.Close()

	var configs []model.FieldStorageConfig
	for rows.Next() {
		var config model.FieldStorageConfig
		var targetType sql.NullString
		if err := rows.Scan(&config.EntityType, &config.FieldName, &config.FieldType, &targetType); err != nil {
			return nil, fmt.Errorf("failed to scan field storage config row: %w", err)
		}
		config.TargetType = targetType.String
		configs = append(configs, config)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read field storage configs: %w", err)
	}
	return configs, nil
}

package references

import (
	"context"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
)

// Repo is the platform database access the reference integrity check needs.
type Repo interface {
	// ListFieldStorageConfigs returns every field storage config on the
	// platform, ordered by entity type then field name.
	ListFieldStorageConfigs(ctx context.Context) ([]model.FieldStorageConfig, error)
	// LoadEntities returns every entity of the given type with its bundle
	// fields and field values attached.
	LoadEntities(ctx context.Context, entityType string) ([]*model.Entity, error)
	// ResolvedReferences returns the distinct references held by the given
	// entity whose target entity actually exists.
	ResolvedReferences(ctx context.Context, entityType string, entityID int64) ([]model.Reference, error)
}

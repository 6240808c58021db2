package references

import "github.com/fieldstone-cms/sitecheck/pkg/platform/model"

// FieldMap indexes entity reference fields by the entity type that carries
// them: entity type -> field name -> target entity type.
type FieldMap map[string]map[string]string

// BuildFieldMap folds field storage configs into a FieldMap, keeping only
// plain entity reference fields. Other field types, including the dynamic
// and revision-tracking reference variants, are left out.
func BuildFieldMap(configs []model.FieldStorageConfig) FieldMap {
	fm := make(FieldMap)
	for _, cfg := range configs {
		if cfg.FieldType != model.FieldTypeEntityReference {
			continue
		}
		fields, ok := fm[cfg.EntityType]
		if !ok {
			fields = make(map[string]string)
			fm[cfg.EntityType] = fields
		}
		fields[cfg.FieldName] = cfg.TargetType
	}
	return fm
}

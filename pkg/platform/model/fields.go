package model

// FieldStorageConfig is one field storage definition from the platform's
// `field_storage_config` table. TargetType is only meaningful for reference
// field types and is empty otherwise.
type FieldStorageConfig struct {
	EntityType string
	FieldName  string
	FieldType  string
	TargetType string
}

// FieldTypeEntityReference is the storage type of plain forward entity
// references, the only reference type whose integrity sitecheck verifies
// today.
const FieldTypeEntityReference = "entity_reference"

// Reference is one entry of an entity's resolved reference set: a target the
// platform can actually load, keyed by type and id.
type Reference struct {
	TargetType string
	TargetID   int64
}

// Package model contains read-side models for rows sitecheck loads from a
// Fieldstone platform database. Sitecheck never writes these back; the
// platform owns them.
package model

import (
	"github.com/fieldstone-cms/sitecheck/pkg/types"
)

// FieldValue is one delta of a multi-valued field on an entity. Reference
// fields populate TargetID; scalar fields populate Value.
type FieldValue struct {
	Delta    int
	TargetID int64
	Value    string
}

// Entity is a single content entity together with the field values stored for
// it and the set of field names its bundle carries. An entity only ever
// exposes values for fields of its own bundle.
type Entity struct {
	entityType   string
	id           int64
	bundle       string
	label        string
	bundleFields map[string]struct{}
	values       map[string][]FieldValue
}

// NewEntity assembles an entity from its storage row, the fields declared on
// its bundle, and its stored field values.
func NewEntity(entityType string, id int64, bundle string, label string, bundleFields []string, values map[string][]FieldValue) (*Entity, error) {
	fields := make(map[string]struct{}, len(bundleFields))
	for _, name := range bundleFields {
		fields[name] = struct{}{}
	}
	e := &Entity{
		entityType:   entityType,
		id:           id,
		bundle:       bundle,
		label:        label,
		bundleFields: fields,
		values:       values,
	}
	if err := validateEntity(e); err != nil {
		return nil, err
	}
	return e, nil
}

func validateEntity(e *Entity) error {
	if e.entityType == "" {
		return types.ErrEmpty{Field: "entity type"}
	}
	if e.bundle == "" {
		return types.ErrEmpty{Field: "bundle"}
	}
	return nil
}

// EntityType returns the entity type the entity belongs to.
func (e *Entity) EntityType() string { return e.entityType }

// ID returns the entity's numeric identifier, unique within its type.
func (e *Entity) ID() int64 { return e.id }

// Bundle returns the bundle the entity belongs to.
func (e *Entity) Bundle() string { return e.bundle }

// Label returns the entity's human-readable label, which may be empty.
func (e *Entity) Label() string { return e.label }

// Field returns the stored values for the named field, in delta order. The
// second return is false when the entity's bundle does not carry the field at
// all; a bundle field with no stored values returns (nil, true).
func (e *Entity) Field(name string) ([]FieldValue, bool) {
	if _, ok := e.bundleFields[name]; !ok {
		return nil, false
	}
	return e.values[name], true
}

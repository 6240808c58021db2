package references_test

import (
	"testing"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/references"
	"github.com/stretchr/testify/require"
)

func TestBuildFieldMap(t *testing.T) {
	t.Run("keeps only plain entity reference fields", func(t *testing.T) {
		fm := references.BuildFieldMap([]model.FieldStorageConfig{
			{EntityType: "node", FieldName: "field_topic", FieldType: "entity_reference", TargetType: "topic"},
			{EntityType: "node", FieldName: "field_author", FieldType: "entity_reference", TargetType: "user"},
			{EntityType: "node", FieldName: "field_body", FieldType: "text_long"},
			{EntityType: "node", FieldName: "field_related", FieldType: "dynamic_entity_reference", TargetType: "node"},
			{EntityType: "comment", FieldName: "field_author", FieldType: "entity_reference", TargetType: "user"},
		})

		require.Equal(t, references.FieldMap{
			"node": {
				"field_topic":  "topic",
				"field_author": "user",
			},
			"comment": {
				"field_author": "user",
			},
		}, fm)
	})

	t.Run("is empty without reference fields", func(t *testing.T) {
		fm := references.BuildFieldMap([]model.FieldStorageConfig{
			{EntityType: "node", FieldName: "field_body", FieldType: "text_long"},
		})
		require.Empty(t, fm)
	})
}

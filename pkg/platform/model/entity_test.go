package model_test

import (
	"testing"

	"github.com/fieldstone-cms/sitecheck/pkg/platform/model"
	"github.com/stretchr/testify/require"
)

func TestNewEntity(t *testing.T) {
	t.Run("requires an entity type", func(t *testing.T) {
		_, err := model.NewEntity("", 1, "article", "", nil, nil)
		require.ErrorContains(t, err, "entity type cannot be empty")
	})

	t.Run("requires a bundle", func(t *testing.T) {
		_, err := model.NewEntity("node", 1, "", "", nil, nil)
		require.ErrorContains(t, err, "bundle cannot be empty")
	})
}

func TestEntityField(t *testing.T) {
	entity, err := model.NewEntity("node", 1, "article", "First article",
		[]string{"field_topic", "field_teaser"},
		map[string][]model.FieldValue{
			"field_topic": {{Delta: 0, TargetID: 7}, {Delta: 1, TargetID: 9}},
			// field_orphan has stored values but is not declared on the
			// bundle anymore.
			"field_orphan": {{Delta: 0, TargetID: 3}},
		})
	require.NoError(t, err)

	t.Run("returns values in delta order", func(t *testing.T) {
		values, ok := entity.Field("field_topic")
		require.True(t, ok)
		require.Equal(t, []model.FieldValue{{Delta: 0, TargetID: 7}, {Delta: 1, TargetID: 9}}, values)
	})

	t.Run("returns no values for a declared field without any", func(t *testing.T) {
		values, ok := entity.Field("field_teaser")
		require.True(t, ok)
		require.Empty(t, values)
	})

	t.Run("reports fields the bundle does not carry", func(t *testing.T) {
		_, ok := entity.Field("field_missing")
		require.False(t, ok)
	})

	t.Run("hides values of fields the bundle dropped", func(t *testing.T) {
		_, ok := entity.Field("field_orphan")
		require.False(t, ok)
	})
}

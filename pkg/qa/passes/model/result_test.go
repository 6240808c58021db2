package model_test

import (
	"testing"

	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestNewStepResult(t *testing.T) {
	passID := types.NewPassID()

	t.Run("marshals its payload", func(t *testing.T) {
		result, err := model.NewStepResult(passID, "cache_size", "cache_size", false, map[string]int{"bins_scanned": 3})
		require.NoError(t, err)
		require.Equal(t, passID, result.PassID())
		require.Equal(t, "cache_size", result.CheckID())
		require.Equal(t, "cache_size", result.Step())
		require.False(t, result.Passed())
		require.JSONEq(t, `{"bins_scanned": 3}`, string(result.Payload()))
		require.NotEmpty(t, result.ID())
		require.NotEmpty(t, result.CreatedAt())
	})

	t.Run("keeps a nil payload nil", func(t *testing.T) {
		result, err := model.NewStepResult(passID, "reference_integrity", "entity_reference", true, nil)
		require.NoError(t, err)
		require.True(t, result.Passed())
		require.Nil(t, result.Payload())
	})

	t.Run("rejects an empty pass ID", func(t *testing.T) {
		_, err := model.NewStepResult(types.NilPassID, "cache_size", "cache_size", true, nil)
		require.ErrorContains(t, err, "pass ID cannot be empty")
	})

	t.Run("rejects an empty check ID", func(t *testing.T) {
		_, err := model.NewStepResult(passID, "", "cache_size", true, nil)
		require.ErrorContains(t, err, "check ID cannot be empty")
	})

	t.Run("rejects an empty step", func(t *testing.T) {
		_, err := model.NewStepResult(passID, "cache_size", "", true, nil)
		require.ErrorContains(t, err, "step cannot be empty")
	})

	t.Run("rejects an unmarshalable payload", func(t *testing.T) {
		_, err := model.NewStepResult(passID, "cache_size", "cache_size", true, make(chan int))
		require.ErrorContains(t, err, "failed to marshal result payload")
	})
}

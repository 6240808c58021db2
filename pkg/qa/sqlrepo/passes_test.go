package sqlrepo_test

import (
	"context"
	"testing"

	"github.com/fieldstone-cms/sitecheck/internal/testdb"
	"github.com/fieldstone-cms/sitecheck/pkg/bus"
	"github.com/fieldstone-cms/sitecheck/pkg/bus/events"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes/model"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/sqlrepo"
	"github.com/fieldstone-cms/sitecheck/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestCreatePass(t *testing.T) {
	t.Run("round-trips through the store", func(t *testing.T) {
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
		require.NoError(t, err)

		pass, err := model.NewPass(4)
		require.NoError(t, err)
		require.NoError(t, repo.CreatePass(t.Context(), pass))

		readPass, err := repo.GetPassByID(t.Context(), pass.ID())
		require.NoError(t, err)
		require.Equal(t, pass, readPass)
	})

	t.Run("publishes the pass on the bus", func(t *testing.T) {
		b := bus.New()
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t), sqlrepo.WithEventBus(b))
		require.NoError(t, err)

		pass, err := model.NewPass(2)
		require.NoError(t, err)

		var views []events.PassView
		require.NoError(t, b.Subscribe(events.TopicPass(pass.ID()), func(view events.PassView) {
			views = append(views, view)
		}))

		require.NoError(t, repo.CreatePass(t.Context(), pass))
		require.Len(t, views, 1)
		require.Equal(t, pass.ID(), views[0].ID)
		require.Equal(t, string(model.PassStatePending), views[0].State)
	})

	t.Run("when the DB fails", func(t *testing.T) {
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
		require.NoError(t, err)

		pass, err := model.NewPass(1)
		require.NoError(t, err)

		// Simulate a DB failure by canceling the context before the operation.
		ctx, cancel := context.WithCancel(t.Context())
		cancel()

		require.ErrorContains(t, repo.CreatePass(ctx, pass), "context canceled")
	})
}

func TestGetPassByID(t *testing.T) {
	t.Run("returns nil for an unknown pass", func(t *testing.T) {
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
		require.NoError(t, err)

		pass, err := repo.GetPassByID(t.Context(), types.NewPassID())
		require.NoError(t, err)
		require.Nil(t, pass)
	})
}

func TestUpdatePass(t *testing.T) {
	repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
	require.NoError(t, err)

	pass, err := model.NewPass(1)
	require.NoError(t, err)
	require.NoError(t, repo.CreatePass(t.Context(), pass))

	require.NoError(t, pass.Start())
	require.NoError(t, pass.Tick())
	require.NoError(t, pass.Complete())
	require.NoError(t, repo.UpdatePass(t.Context(), pass))

	readPass, err := repo.GetPassByID(t.Context(), pass.ID())
	require.NoError(t, err)
	require.Equal(t, model.PassStateCompleted, readPass.State())
	require.Equal(t, 1, readPass.CompletedSteps())
}

func TestListPasses(t *testing.T) {
	repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
	require.NoError(t, err)

	var created []*model.Pass
	for range 3 {
		pass, err := model.NewPass(2)
		require.NoError(t, err)
		require.NoError(t, repo.CreatePass(t.Context(), pass))
		created = append(created, pass)
	}

	t.Run("returns every pass without a limit", func(t *testing.T) {
		passes, err := repo.ListPasses(t.Context(), 0)
		require.NoError(t, err)
		require.Len(t, passes, len(created))
	})

	t.Run("honors the limit", func(t *testing.T) {
		passes, err := repo.ListPasses(t.Context(), 2)
		require.NoError(t, err)
		require.Len(t, passes, 2)
	})
}

func TestAddStepResult(t *testing.T) {
	t.Run("round-trips results in recording order", func(t *testing.T) {
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
		require.NoError(t, err)

		pass, err := model.NewPass(2)
		require.NoError(t, err)
		require.NoError(t, repo.CreatePass(t.Context(), pass))

		first, err := model.NewStepResult(pass.ID(), "cache_size", "cache_size", true, map[string]int{"bins_scanned": 2})
		require.NoError(t, err)
		require.NoError(t, repo.AddStepResult(t.Context(), first))

		second, err := model.NewStepResult(pass.ID(), "reference_integrity", "entity_reference", false, nil)
		require.NoError(t, err)
		require.NoError(t, repo.AddStepResult(t.Context(), second))

		results, err := repo.ResultsForPass(t.Context(), pass.ID())
		require.NoError(t, err)
		require.Equal(t, []*model.StepResult{first, second}, results)
	})

	t.Run("publishes the result on the bus", func(t *testing.T) {
		b := bus.New()
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t), sqlrepo.WithEventBus(b))
		require.NoError(t, err)

		pass, err := model.NewPass(1)
		require.NoError(t, err)
		require.NoError(t, repo.CreatePass(t.Context(), pass))

		var views []events.StepResultView
		require.NoError(t, b.Subscribe(events.TopicStep(pass.ID()), func(view events.StepResultView) {
			views = append(views, view)
		}))

		result, err := model.NewStepResult(pass.ID(), "cache_size", "cache_size", false, nil)
		require.NoError(t, err)
		require.NoError(t, repo.AddStepResult(t.Context(), result))

		require.Len(t, views, 1)
		require.Equal(t, pass.ID(), views[0].PassID)
		require.Equal(t, "cache_size", views[0].CheckID)
		require.False(t, views[0].Passed)
	})

	t.Run("returns nothing for a pass with no results", func(t *testing.T) {
		repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
		require.NoError(t, err)

		results, err := repo.ResultsForPass(t.Context(), types.NewPassID())
		require.NoError(t, err)
		require.Empty(t, results)
	})
}

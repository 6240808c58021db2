package gateway_test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldstone-cms/sitecheck/internal/testdb"
	"github.com/fieldstone-cms/sitecheck/pkg/gateway"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/passes"
	"github.com/fieldstone-cms/sitecheck/pkg/qa/sqlrepo"
)

func newServer(t *testing.T) (*gateway.Server, passes.API) {
	t.Helper()
	repo, err := sqlrepo.New(testdb.CreateResultsDB(t))
	require.NoError(t, err)
	api := passes.API{Repo: repo}
	return gateway.New(api), api
}

func get(t *testing.T, server *gateway.Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	server, _ := newServer(t)

	rec := get(t, server, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status": "ok"}`, rec.Body.String())
}

func TestListPasses(t *testing.T) {
	t.Run("returns an empty list for a fresh store", func(t *testing.T) {
		server, _ := newServer(t)

		rec := get(t, server, "/api/passes")
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("returns recorded passes", func(t *testing.T) {
		server, api := newServer(t)

		pass, err := api.StartPass(t.Context(), 1)
		require.NoError(t, err)

		rec := get(t, server, "/api/passes")
		require.Equal(t, http.StatusOK, rec.Code)

		var views []gateway.PassView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		require.Len(t, views, 1)
		require.Equal(t, pass.ID().String(), views[0].ID)
		require.Equal(t, "running", views[0].State)
		require.Equal(t, 1, views[0].ExpectedSteps)
		require.Equal(t, 0, views[0].CompletedSteps)
		require.Empty(t, views[0].Error)
		require.Equal(t, pass.CreatedAt().Unix(), views[0].CreatedAt.Unix())
	})

	t.Run("honors the limit parameter", func(t *testing.T) {
		server, api := newServer(t)

		for range 3 {
			_, err := api.StartPass(t.Context(), 1)
			require.NoError(t, err)
		}

		rec := get(t, server, "/api/passes?limit=2")
		require.Equal(t, http.StatusOK, rec.Code)

		var views []gateway.PassView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		require.Len(t, views, 2)
	})

	t.Run("rejects a malformed limit", func(t *testing.T) {
		server, _ := newServer(t)

		rec := get(t, server, "/api/passes?limit=lots")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetPass(t *testing.T) {
	t.Run("returns a recorded pass", func(t *testing.T) {
		server, api := newServer(t)

		pass, err := api.StartPass(t.Context(), 0)
		require.NoError(t, err)
		require.NoError(t, api.End(t.Context(), pass))

		rec := get(t, server, fmt.Sprintf("/api/passes/%s", pass.ID()))
		require.Equal(t, http.StatusOK, rec.Code)

		var view gateway.PassView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		require.Equal(t, pass.ID().String(), view.ID)
		require.Equal(t, "completed", view.State)
	})

	t.Run("carries the error of a failed pass", func(t *testing.T) {
		server, api := newServer(t)

		pass, err := api.StartPass(t.Context(), 2)
		require.NoError(t, err)
		require.NoError(t, api.Fail(t.Context(), pass, "platform database went away"))

		rec := get(t, server, fmt.Sprintf("/api/passes/%s", pass.ID()))
		require.Equal(t, http.StatusOK, rec.Code)

		var view gateway.PassView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &view))
		require.Equal(t, "failed", view.State)
		require.Contains(t, view.Error, "platform database went away")
	})

	t.Run("returns 404 for an unknown pass", func(t *testing.T) {
		server, _ := newServer(t)

		rec := get(t, server, "/api/passes/00000000-0000-0000-0000-000000000001")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("returns 400 for a malformed pass ID", func(t *testing.T) {
		server, _ := newServer(t)

		rec := get(t, server, "/api/passes/not-a-pass-id")
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestPassResults(t *testing.T) {
	t.Run("returns recorded results with their payloads", func(t *testing.T) {
		server, api := newServer(t)

		pass, err := api.StartPass(t.Context(), 2)
		require.NoError(t, err)

		_, err = api.RecordResult(t.Context(), pass, "cache_size", "cache_size", true, map[string]int{"bins_scanned": 4})
		require.NoError(t, err)
		require.NoError(t, api.Tick(t.Context(), pass))
		_, err = api.RecordResult(t.Context(), pass, "reference_integrity", "entity_reference", false, nil)
		require.NoError(t, err)
		require.NoError(t, api.Tick(t.Context(), pass))
		require.NoError(t, api.End(t.Context(), pass))

		rec := get(t, server, fmt.Sprintf("/api/passes/%s/results", pass.ID()))
		require.Equal(t, http.StatusOK, rec.Code)

		var views []gateway.ResultView
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
		require.Len(t, views, 2)

		require.Equal(t, pass.ID().String(), views[0].PassID)
		require.Equal(t, "cache_size", views[0].CheckID)
		require.Equal(t, "cache_size", views[0].Step)
		require.True(t, views[0].Passed)
		require.JSONEq(t, `{"bins_scanned": 4}`, string(views[0].Payload))

		require.Equal(t, "reference_integrity", views[1].CheckID)
		require.Equal(t, "entity_reference", views[1].Step)
		require.False(t, views[1].Passed)
		require.Empty(t, views[1].Payload)
	})

	t.Run("returns an empty list for a pass with no results", func(t *testing.T) {
		server, api := newServer(t)

		pass, err := api.StartPass(t.Context(), 1)
		require.NoError(t, err)

		rec := get(t, server, fmt.Sprintf("/api/passes/%s/results", pass.ID()))
		require.Equal(t, http.StatusOK, rec.Code)
		require.JSONEq(t, `[]`, rec.Body.String())
	})

	t.Run("returns 404 for an unknown pass", func(t *testing.T) {
		server, _ := newServer(t)

		rec := get(t, server, "/api/passes/00000000-0000-0000-0000-000000000001/results")
		require.Equal(t, http.StatusNotFound, rec.Code)
	})
}

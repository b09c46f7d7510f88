package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atlasjobs/harvester/internal/server/handlers"
	"github.com/atlasjobs/harvester/pkg/jobs"
	"github.com/atlasjobs/harvester/pkg/jobstore"
	"github.com/atlasjobs/harvester/pkg/pipeline"
)

func newTestServer(t *testing.T) (*Server, *jobstore.Store, *pipeline.ProgressFile) {
	t.Helper()
	store, err := jobstore.Open(context.Background(), jobstore.Config{
		Path: filepath.Join(t.TempDir(), "jobs.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.Migrate(context.Background()))

	progress := pipeline.NewProgressFile(filepath.Join(t.TempDir(), "progress.json"))
	srv := New("127.0.0.1", 0, Options{
		Store:    store,
		Progress: progress,
		Version:  "test",
	})
	return srv, store, progress
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, "test", resp.Version)
	assert.Equal(t, "healthy", resp.Checks["store"])
}

func TestHealthEndpointUnhealthyStore(t *testing.T) {
	srv, store, _ := newTestServer(t)
	store.Close()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	srv, store, _ := newTestServer(t)
	ctx := context.Background()

	require.NoError(t, store.Insert(ctx, &jobs.Record{
		SourceURL: "https://a.com/1",
		Title:     "Engineer",
		Employer:  "Acme",
		ScrapedAt: time.Now().UTC(),
	}))
	require.NoError(t, store.Insert(ctx, &jobs.Record{
		SourceURL: "https://g.com/1",
		Title:     "Analyst",
		Employer:  "Globex",
		ScrapedAt: time.Now().UTC(),
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp handlers.StatsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.TotalJobs)
	assert.Equal(t, 2, resp.Employers)
}

func TestProgressEndpoint(t *testing.T) {
	srv, _, progress := newTestServer(t)

	saved := &pipeline.RunProgress{RunID: "run-9"}
	saved.MarkDone("Acme")
	require.NoError(t, progress.Save(saved))

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp pipeline.RunProgress
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "run-9", resp.RunID)
	assert.Equal(t, []string{"Acme"}, resp.Completed)
}

func TestProgressEndpointEmptyCheckpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/progress", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp pipeline.RunProgress
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Empty(t, resp.Completed)
}

func TestUnknownRouteReturns404(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServerPort(t *testing.T) {
	srv := New("127.0.0.1", 9000, Options{})
	assert.Equal(t, 9000, srv.Port())
}

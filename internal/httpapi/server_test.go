package httpapi_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quakestream/quakestream/internal/httpapi"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type mockIngestRunner struct {
	result httpapi.RunResult
	err    error
	source string
}

func (m *mockIngestRunner) RunIngest(_ context.Context, sourceName string) (httpapi.RunResult, error) {
	m.source = sourceName
	return m.result, m.err
}

type mockDedupRunner struct {
	result httpapi.RunResult
	err    error
}

func (m *mockDedupRunner) RunDedup(_ context.Context) (httpapi.RunResult, error) {
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newIngestTestServer(ready error, ingest *mockIngestRunner) *httpapi.Server {
	return httpapi.NewServer(httpapi.Config{
		Addr:       ":0",
		SourceName: "usgs",
		Ready:      &mockReadiness{err: ready},
		Ingest:     ingest,
	}, discardLogger())
}

func newDedupTestServer(ready error, dedup *mockDedupRunner) *httpapi.Server {
	return httpapi.NewServer(httpapi.Config{
		Addr:  ":0",
		Ready: &mockReadiness{err: ready},
		Dedup: dedup,
	}, discardLogger())
}

func TestHealthReturns200(t *testing.T) {
	srv := newDedupTestServer(nil, &mockDedupRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "dedup", body["mode"])
}

func TestHealthReportsIngestModeAndSource(t *testing.T) {
	srv := newIngestTestServer(nil, &mockIngestRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	srv.ServeHTTP(rec, req)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ingest", body["mode"])
	assert.Equal(t, "usgs", body["source"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newDedupTestServer(nil, &mockDedupRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newDedupTestServer(errors.New("db unreachable"), &mockDedupRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "db unreachable", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newDedupTestServer(nil, &mockDedupRunner{})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestPostIngestReturnsRunResult(t *testing.T) {
	runner := &mockIngestRunner{result: httpapi.RunResult{RunID: "r1", RawEvents: 4, DurationS: 0.25}}
	srv := newIngestTestServer(nil, runner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "usgs", runner.source)

	var result httpapi.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "r1", result.RunID)
	assert.Equal(t, 4, result.RawEvents)
}

func TestPostIngestReturns500OnFailure(t *testing.T) {
	runner := &mockIngestRunner{err: errors.New("upstream unreachable")}
	srv := newIngestTestServer(nil, runner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestPostDeduplicateReturnsRunResult(t *testing.T) {
	runner := &mockDedupRunner{result: httpapi.RunResult{RunID: "dedup-1", Clusters: 2, DurationS: 0.5}}
	srv := newDedupTestServer(nil, runner)

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deduplicate", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var result httpapi.RunResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, 2, result.Clusters)
}

func TestDedupModeDoesNotRegisterIngestRoute(t *testing.T) {
	srv := newDedupTestServer(nil, &mockDedupRunner{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/ingest", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIngestModeDoesNotRegisterDeduplicateRoute(t *testing.T) {
	srv := newIngestTestServer(nil, &mockIngestRunner{})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/deduplicate", nil)
	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

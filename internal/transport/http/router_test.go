package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salesetl/internal/pipeline"
	"salesetl/internal/quality"
	"salesetl/internal/transform"
	"salesetl/pkg/contracts/domain"
)

var handlerNow = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

type fixedSource struct {
	ds *domain.Dataset
}

func (s *fixedSource) Extract(ctx context.Context) (*domain.Dataset, error) {
	return s.ds.Clone(), nil
}

func apiDataset() *domain.Dataset {
	ds := domain.NewDataset("date", "product_id", "quantity", "unit_price", "discount")
	date := handlerNow.Add(-24 * time.Hour).Format("2006-01-02")
	ds.Append(domain.Row{"date": date, "product_id": 1.0, "quantity": 10.0, "unit_price": 5.0, "discount": 0.0})
	ds.Append(domain.Row{"date": date, "product_id": 2.0, "quantity": 20.0, "unit_price": 5.0, "discount": 0.0})
	return ds
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	now := func() time.Time { return handlerNow }
	runner := pipeline.NewRunner(
		&fixedSource{ds: apiDataset()},
		transform.NewPipeline(nil, nil, now),
		quality.NewChecker(quality.DefaultRules(), nil, now),
		nil,
	)
	router := NewRouter(RouterDeps{
		Runner:  runner,
		Version: VersionInfo{Version: "test"},
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, status int) map[string]any {
	t.Helper()
	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, status, resp.StatusCode)

	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return decoded
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	live := getJSON(t, srv, "/healthz", http.StatusOK)
	assert.Equal(t, "alive", live["status"])

	health := getJSON(t, srv, "/api/health", http.StatusOK)
	assert.Equal(t, "healthy", health["status"])
	assert.Equal(t, "test", health["version"])

	version := getJSON(t, srv, "/api/version", http.StatusOK)
	assert.Equal(t, "test", version["version"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQualityReportBeforeAnyRun(t *testing.T) {
	srv := newTestServer(t)
	problem := getJSON(t, srv, "/api/quality/report", http.StatusNotFound)
	assert.Equal(t, "REPORT_NOT_FOUND", problem["error_code"])
}

func TestPipelineRunThenReport(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var runResp map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&runResp))
	assert.Equal(t, true, runResp["success"])
	run := runResp["run"].(map[string]any)
	assert.Equal(t, "completed", run["status"])
	assert.Equal(t, 100.0, run["quality_score"])

	report := getJSON(t, srv, "/api/quality/report", http.StatusOK)
	summary := report["summary"].(map[string]any)
	assert.Equal(t, 100.0, summary["overall_score"])

	short := getJSON(t, srv, "/api/quality/summary", http.StatusOK)
	assert.Equal(t, 0.0, short["critical_issues"])

	status := getJSON(t, srv, "/api/pipeline/status", http.StatusOK)
	assert.Equal(t, false, status["running"])
}

func TestAnalyticsBeforeAnyRun(t *testing.T) {
	srv := newTestServer(t)
	problem := getJSON(t, srv, "/api/analytics/summary", http.StatusNotFound)
	assert.Equal(t, "DATASET_NOT_FOUND", problem["error_code"])
}

func TestAnalyticsAfterRun(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	summary := getJSON(t, srv, "/api/analytics/summary", http.StatusOK)
	assert.Equal(t, 2.0, summary["total_records"])
	assert.Equal(t, 150.0, summary["total_revenue"])
	assert.Equal(t, 2.0, summary["unique_products"])

	products := getJSON(t, srv, "/api/analytics/products?top=1", http.StatusOK)
	list := products["products"].([]any)
	require.Len(t, list, 1)
	best := list[0].(map[string]any)
	assert.Equal(t, "2", best["product_id"])
	assert.Equal(t, 100.0, best["total_revenue"])
	assert.Equal(t, 1.0, best["revenue_rank"])

	trends := getJSON(t, srv, "/api/analytics/trends", http.StatusOK)
	assert.Equal(t, "month", trends["period"])
	// All rows share one period, so there is nothing to compare.
	assert.Empty(t, trends["trends"])

	bad := getJSON(t, srv, "/api/analytics/trends?period=week", http.StatusBadRequest)
	assert.Equal(t, "INVALID_PERIOD", bad["error_code"])

	badTop := getJSON(t, srv, "/api/analytics/products?top=zero", http.StatusBadRequest)
	assert.Equal(t, "INVALID_PARAMETER", badTop["error_code"])
}

func TestQualityReportTextFormat(t *testing.T) {
	srv := newTestServer(t)

	resp, err := srv.Client().Post(srv.URL+"/api/pipeline/run", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	textResp, err := srv.Client().Get(srv.URL + "/api/quality/report?format=txt")
	require.NoError(t, err)
	defer textResp.Body.Close()
	assert.Contains(t, textResp.Header.Get("Content-Type"), "text/plain")
}

func TestPipelineStatusBeforeAnyRun(t *testing.T) {
	srv := newTestServer(t)
	problem := getJSON(t, srv, "/api/pipeline/status", http.StatusNotFound)
	assert.Equal(t, "RUN_NOT_FOUND", problem["error_code"])
}

func TestCacheEndpointsWhenDisabled(t *testing.T) {
	srv := newTestServer(t)
	problem := getJSON(t, srv, "/api/cache/stats", http.StatusServiceUnavailable)
	assert.Equal(t, "CACHE_DISABLED", problem["error_code"])
}

func TestUnknownRouteReturnsProblem(t *testing.T) {
	srv := newTestServer(t)
	problem := getJSON(t, srv, "/api/nope", http.StatusNotFound)
	assert.Equal(t, "/errors/not-found", problem["type"])
}

func TestRequestIDHeaderPropagated(t *testing.T) {
	srv := newTestServer(t)
	resp, err := srv.Client().Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glasshouse/glasshouse/internal/clickhouse"
	"github.com/glasshouse/glasshouse/internal/model"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// fakeStore satisfies QueryStore and records the arguments of the last call.
type fakeStore struct {
	logs      []model.LogRecord
	projected []map[string]interface{}
	buckets   []model.MetricBucket
	bucket    clickhouse.Bucket
	databases []string
	record    *model.LogRecord

	err       error
	healthErr error

	lastFilter  model.Filter
	lastColumns []string
	lastLimits  model.LimitPolicy
	lastQueryID string
	calls       int
}

func (s *fakeStore) Logs(_ context.Context, f model.Filter) ([]model.LogRecord, error) {
	s.calls++
	s.lastFilter = f
	return s.logs, s.err
}

func (s *fakeStore) LogsProjected(_ context.Context, f model.Filter, columns []string, limits model.LimitPolicy) ([]map[string]interface{}, error) {
	s.calls++
	s.lastFilter = f
	s.lastColumns = columns
	s.lastLimits = limits
	return s.projected, s.err
}

func (s *fakeStore) AggregatedMetrics(_ context.Context, f model.Filter) ([]model.MetricBucket, clickhouse.Bucket, error) {
	s.calls++
	s.lastFilter = f
	return s.buckets, s.bucket, s.err
}

func (s *fakeStore) Databases(_ context.Context) ([]string, error) {
	s.calls++
	return s.databases, s.err
}

func (s *fakeStore) LogByID(_ context.Context, queryID string) (*model.LogRecord, error) {
	s.calls++
	s.lastQueryID = queryID
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

func (s *fakeStore) HealthCheck(_ context.Context) error {
	return s.healthErr
}

func newTestServer(store *fakeStore) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer("127.0.0.1:0", store, logger, nil, nil)
}

func doRequest(t *testing.T, srv *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, into interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), into); err != nil {
		t.Fatalf("decoding response: %v\nbody: %s", err, w.Body.String())
	}
}

func TestHandleLogs(t *testing.T) {
	store := &fakeStore{logs: []model.LogRecord{
		{QueryID: "q1", Type: "QueryFinish"},
		{QueryID: "q2", Type: "ExceptionBeforeStart", ExceptionCode: 516},
	}}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs?db_name=analytics&limit=20")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp logsResponse
	decodeJSON(t, w, &resp)
	if len(resp.Data) != 2 {
		t.Errorf("len(data) = %d, want 2", len(resp.Data))
	}
	if resp.Pagination.Limit != 20 || resp.Pagination.Count != 2 {
		t.Errorf("pagination = %+v, want limit 20 count 2", resp.Pagination)
	}
	if store.lastFilter.DBName != "analytics" {
		t.Errorf("filter db_name = %q, want analytics", store.lastFilter.DBName)
	}
}

func TestHandleLogsClampsReportedLimit(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	w := doRequest(t, srv, "/api/v1/logs?limit=99999")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp logsResponse
	decodeJSON(t, w, &resp)
	if resp.Pagination.Limit != model.ListLimits.Max {
		t.Errorf("pagination.limit = %d, want %d", resp.Pagination.Limit, model.ListLimits.Max)
	}
}

func TestHandleLogsEmptyResultIsArray(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	w := doRequest(t, srv, "/api/v1/logs")
	if !strings.Contains(w.Body.String(), `"data":[]`) {
		t.Errorf("empty result should serialize as [], got: %s", w.Body.String())
	}
}

func TestHandleLogsProjected(t *testing.T) {
	store := &fakeStore{projected: []map[string]interface{}{
		{"query_id": "q1", "query_duration_ms": uint64(1500)},
	}}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs?columns=query_id,query_duration_ms")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp projectedLogsResponse
	decodeJSON(t, w, &resp)
	if len(resp.Columns) != 2 || resp.Columns[0] != "query_id" {
		t.Errorf("columns = %v, want [query_id query_duration_ms]", resp.Columns)
	}
	if store.lastLimits != model.ListLimits {
		t.Errorf("limits = %+v, want list policy", store.lastLimits)
	}
}

func TestHandleLogsRejectsUnknownColumn(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs?columns=query_id,password")
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}

	var resp errorResponse
	decodeJSON(t, w, &resp)
	if resp.Error != "invalid_columns" {
		t.Errorf("error = %q, want invalid_columns", resp.Error)
	}
	if !strings.Contains(resp.Message, "password") {
		t.Errorf("message should name the offending column: %q", resp.Message)
	}
	if store.calls != 0 {
		t.Errorf("store called %d times, want 0", store.calls)
	}
}

func TestHandleLogsStoreFailure(t *testing.T) {
	store := &fakeStore{err: errors.New("dial tcp 10.0.0.5:9000: connection refused")}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs")
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}

	var resp errorResponse
	decodeJSON(t, w, &resp)
	if resp.Error != "database_error" {
		t.Errorf("error = %q, want database_error", resp.Error)
	}
	// The raw store error stays in the log, not the response.
	if strings.Contains(w.Body.String(), "10.0.0.5") {
		t.Errorf("store error leaked to client: %s", w.Body.String())
	}
}

func TestHandleAggregatedMetrics(t *testing.T) {
	store := &fakeStore{
		buckets: []model.MetricBucket{{TotalQueries: 7, FailedQueries: 2}},
		bucket:  clickhouse.Bucket1h,
	}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs/metrics?start_time=2024-01-01T00:00:00Z&end_time=2024-01-03T00:00:00Z")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var resp metricsResponse
	decodeJSON(t, w, &resp)
	if resp.BucketSize != "1h" {
		t.Errorf("bucket_size = %q, want 1h", resp.BucketSize)
	}
	if resp.BucketLabel != "1 HOUR" {
		t.Errorf("bucket_label = %q, want 1 HOUR", resp.BucketLabel)
	}
	if len(resp.Data) != 1 || resp.Data[0].FailedQueries != 2 {
		t.Errorf("data = %+v, want one bucket with 2 failures", resp.Data)
	}
	if store.lastFilter.StartTime == nil || store.lastFilter.EndTime == nil {
		t.Error("time bounds not bound into filter")
	}
}

func TestHandleLogByID(t *testing.T) {
	store := &fakeStore{record: &model.LogRecord{QueryID: "abc-123", Query: "SELECT 1"}}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs/abc-123")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	var rec model.LogRecord
	decodeJSON(t, w, &rec)
	if rec.QueryID != "abc-123" {
		t.Errorf("query_id = %q, want abc-123", rec.QueryID)
	}
	if store.lastQueryID != "abc-123" {
		t.Errorf("store looked up %q, want abc-123", store.lastQueryID)
	}
}

func TestHandleLogByIDNotFound(t *testing.T) {
	store := &fakeStore{err: clickhouse.ErrNotFound}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs/missing")
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}

	var resp errorResponse
	decodeJSON(t, w, &resp)
	if resp.Error != "not_found" {
		t.Errorf("error = %q, want not_found", resp.Error)
	}
}

func TestHandleDatabases(t *testing.T) {
	store := &fakeStore{databases: []string{"analytics", "system"}}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/databases")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}

	var resp struct {
		Databases []string `json:"databases"`
	}
	decodeJSON(t, w, &resp)
	if len(resp.Databases) != 2 || resp.Databases[0] != "analytics" {
		t.Errorf("databases = %v, want [analytics system]", resp.Databases)
	}
}

func TestHealthAndReady(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	if w := doRequest(t, srv, "/health"); w.Code != http.StatusOK {
		t.Errorf("health status = %d, want 200", w.Code)
	}
	if w := doRequest(t, srv, "/ready"); w.Code != http.StatusOK {
		t.Errorf("ready status = %d, want 200", w.Code)
	}

	store.healthErr = errors.New("ping: connection refused")
	w := doRequest(t, srv, "/ready")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("ready status = %d, want 503", w.Code)
	}
	if !strings.Contains(w.Body.String(), "database_unavailable") {
		t.Errorf("ready body = %s, want database_unavailable", w.Body.String())
	}
}

func TestRequestIDEcho(t *testing.T) {
	srv := newTestServer(&fakeStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "proxy-supplied-id")
	w := httptest.NewRecorder()
	srv.router().ServeHTTP(w, req)

	if got := w.Header().Get("X-Request-ID"); got != "proxy-supplied-id" {
		t.Errorf("X-Request-ID = %q, want proxy-supplied-id", got)
	}

	// Without a supplied id the server generates one.
	w2 := doRequest(t, srv, "/health")
	if w2.Header().Get("X-Request-ID") == "" {
		t.Error("no X-Request-ID generated")
	}
}

func TestHandleLogsBindsTimeBounds(t *testing.T) {
	store := &fakeStore{}
	srv := newTestServer(store)

	w := doRequest(t, srv, "/api/v1/logs?start_time=2024-06-01T10:00:00Z&min_duration_ms=1000")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if store.lastFilter.StartTime == nil {
		t.Fatal("start_time not bound")
	}
	want := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	if !store.lastFilter.StartTime.Equal(want) {
		t.Errorf("start_time = %v, want %v", store.lastFilter.StartTime, want)
	}
	if store.lastFilter.MinDurationMs != 1000 {
		t.Errorf("min_duration_ms = %d, want 1000", store.lastFilter.MinDurationMs)
	}
}

package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/sqlchart/sqlchart/internal/config"
	"github.com/sqlchart/sqlchart/internal/query"
	"github.com/sqlchart/sqlchart/internal/query/sqlite"
)

func TestHealthEndpoint(t *testing.T) {
	h := NewHandler(testConfig(t, nil), Dependencies{})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["service"] != "sqlchart-server" {
		t.Fatalf("service = %v", body["service"])
	}
	if rr.Header().Get("X-Trace-ID") == "" {
		t.Fatal("trace header missing")
	}
}

func TestReadyEndpointReturns503WhenDependencyFails(t *testing.T) {
	h := NewHandler(testConfig(t, nil), Dependencies{
		Readiness: func(context.Context) error {
			return errors.New("dependency down")
		},
	})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rr.Code)
	}
	body := decodeBody(t, rr)
	if body["error_code"] != "NOT_READY" || body["retryable"] != true {
		t.Fatalf("body = %v", body)
	}
}

func TestReadyEndpointPingsStore(t *testing.T) {
	missing := query.NewExecutor(sqlite.New(filepath.Join(t.TempDir(), "absent.db")))
	h := NewHandler(testConfig(t, nil), Dependencies{Readiness: CheckStore(missing)})
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("missing store status = %d", rr.Code)
	}

	present := query.NewExecutor(sqlite.New(seedStore(t)))
	h = NewHandler(testConfig(t, nil), Dependencies{Readiness: CheckStore(present)})
	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/ready", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("present store status = %d, body=%s", rr.Code, rr.Body.String())
	}
}

func TestCombineReadinessChecksStopsOnFirstFailure(t *testing.T) {
	order := make([]int, 0, 3)
	combined := CombineReadinessChecks(
		func(_ context.Context) error {
			order = append(order, 1)
			return nil
		},
		nil,
		func(_ context.Context) error {
			order = append(order, 2)
			return errors.New("boom")
		},
		func(_ context.Context) error {
			order = append(order, 3)
			return nil
		},
	)

	err := combined(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Fatalf("execution order = %#v", order)
	}
}

func TestCheckChartStoreConfig(t *testing.T) {
	local := testConfig(t, nil)
	if err := CheckChartStoreConfig(local)(context.Background()); err != nil {
		t.Fatalf("local backend error = %v", err)
	}

	s3 := testConfig(t, map[string]string{"SQLCHART_CHART_BACKEND": "s3"})
	s3.ObjectStore.Bucket = ""
	if err := CheckChartStoreConfig(s3)(context.Background()); err == nil {
		t.Fatal("expected missing bucket error")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := NewHandler(testConfig(t, nil), Dependencies{})
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/health", nil))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/v1/metrics", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "sqlchart_http_requests_total") {
		t.Fatal("http request metrics missing")
	}
}

func TestMCPHandlerIsMountedAtConfiguredPath(t *testing.T) {
	cfg := testConfig(t, map[string]string{"SQLCHART_MCP_PATH": "/agents/mcp"})
	var seen string
	h := NewHandler(cfg, Dependencies{
		MCP: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			seen = r.Method
			w.WriteHeader(http.StatusAccepted)
			_, _ = io.WriteString(w, "{}")
		}),
	})

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agents/mcp", strings.NewReader(`{}`)))
	if rr.Code != http.StatusAccepted || seen != http.MethodPost {
		t.Fatalf("status = %d, method = %q", rr.Code, seen)
	}

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/mcp", strings.NewReader(`{}`)))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("default path status = %d", rr.Code)
	}
}

func TestUnconfiguredEngineIsNotImplemented(t *testing.T) {
	h := NewHandler(testConfig(t, nil), Dependencies{})
	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/v1/tables", nil),
		httptest.NewRequest(http.MethodGet, "/v1/tables/readings", nil),
		httptest.NewRequest(http.MethodPost, "/v1/query", strings.NewReader(`{"sql":"SELECT 1"}`)),
		httptest.NewRequest(http.MethodPost, "/v1/charts", strings.NewReader(`{}`)),
	} {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != http.StatusNotImplemented {
			t.Fatalf("%s %s status = %d", req.Method, req.URL.Path, rr.Code)
		}
	}
}

func testConfig(t *testing.T, values map[string]string) config.Config {
	t.Helper()
	if values == nil {
		values = map[string]string{}
	}
	cfg, err := config.Load("sqlchart-server", mapLookup(values))
	if err != nil {
		t.Fatalf("config load failed: %v", err)
	}
	return cfg
}

func mapLookup(values map[string]string) config.LookupFunc {
	return func(key string) (string, bool) {
		value, ok := values[key]
		return value, ok
	}
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &body); err != nil {
		t.Fatalf("json decode failed: %v, body=%s", err, rr.Body.String())
	}
	return body
}

func seedStore(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sensor_readings.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("open seed db: %v", err)
	}
	defer func() { _ = db.Close() }()
	for _, statement := range []string{
		`CREATE TABLE readings (id INTEGER PRIMARY KEY, created_at TEXT NOT NULL, sensor TEXT, value REAL)`,
		`INSERT INTO readings VALUES
			(1, '2024-01-01', 'north', 10.5),
			(2, '2024-01-02', 'north', 20.0),
			(3, '2024-01-01', 'south', 7.25)`,
	} {
		if _, err := db.Exec(statement); err != nil {
			t.Fatalf("seed %q: %v", statement, err)
		}
	}
	return path
}

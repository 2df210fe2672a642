package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveQueryCountsByOutcome(t *testing.T) {
	before := testutil.ToFloat64(queriesTotal.WithLabelValues("query", "ok"))
	ObserveQuery("query", "ok", 15*time.Millisecond)
	ObserveQuery("query", "ok", 5*time.Millisecond)
	after := testutil.ToFloat64(queriesTotal.WithLabelValues("query", "ok"))
	if after-before != 2 {
		t.Fatalf("queries delta = %v", after-before)
	}
}

func TestIncrementGateRejectionUsesReasonLabel(t *testing.T) {
	before := testutil.ToFloat64(gateRejectionsTotal.WithLabelValues("forbidden_keyword"))
	IncrementGateRejection("forbidden_keyword")
	if got := testutil.ToFloat64(gateRejectionsTotal.WithLabelValues("forbidden_keyword")) - before; got != 1 {
		t.Fatalf("rejections delta = %v", got)
	}
}

func TestObserveChartRenderCountsFailures(t *testing.T) {
	before := testutil.ToFloat64(chartsRenderedTotal.WithLabelValues("pie", "error"))
	ObserveChartRender("pie", "error", time.Millisecond)
	if got := testutil.ToFloat64(chartsRenderedTotal.WithLabelValues("pie", "error")) - before; got != 1 {
		t.Fatalf("charts delta = %v", got)
	}
}

func TestMetricsMiddlewareLabelsByRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/tables/{table}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := MetricsMiddleware(mux)

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /v1/tables/{table}", "200"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tables/readings", nil))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/v1/tables/sensors", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues(http.MethodGet, "GET /v1/tables/{table}", "200"))
	if after-before != 2 {
		t.Fatalf("route counter delta = %v", after-before)
	}
}

package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	gateRejectionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlchart_gate_rejections_total",
			Help: "Total number of queries rejected by the query gate.",
		},
		[]string{"reason"},
	)
	queriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlchart_queries_total",
			Help: "Total number of store operations by outcome.",
		},
		[]string{"operation", "outcome"},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sqlchart_query_duration_seconds",
			Help:    "Store operation latency including connection open and close.",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"operation"},
	)
	chartsRenderedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sqlchart_charts_rendered_total",
			Help: "Total number of chart render attempts by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)
	chartRenderDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sqlchart_chart_render_duration_seconds",
			Help:    "Chart render latency including upload to the chart store.",
			Buckets: prometheus.DefBuckets,
		},
	)
)

func init() {
	prometheus.MustRegister(
		gateRejectionsTotal,
		queriesTotal,
		queryDurationSeconds,
		chartsRenderedTotal,
		chartRenderDurationSeconds,
	)
}

func IncrementGateRejection(reason string) {
	gateRejectionsTotal.WithLabelValues(reason).Inc()
}

func ObserveQuery(operation, outcome string, elapsed time.Duration) {
	queriesTotal.WithLabelValues(operation, outcome).Inc()
	queryDurationSeconds.WithLabelValues(operation).Observe(elapsed.Seconds())
}

func ObserveChartRender(kind, outcome string, elapsed time.Duration) {
	chartsRenderedTotal.WithLabelValues(kind, outcome).Inc()
	if outcome == "ok" {
		chartRenderDurationSeconds.Observe(elapsed.Seconds())
	}
}

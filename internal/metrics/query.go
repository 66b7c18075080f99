package metrics

import "github.com/prometheus/client_golang/prometheus"

// Document and query Prometheus metrics.
var (
	DocumentOperationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "firedoc",
			Name:      "document_operations_total",
			Help:      "Total number of document operations",
		},
		[]string{"op", "status"}, // status: "ok" / "not_found" / "invalid" / "error"
	)

	QueryRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "firedoc",
			Name:      "query_rejected_total",
			Help:      "Queries rejected before reaching the store",
		},
		[]string{"reason"},
	)

	QueryResultsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "firedoc",
			Name:      "query_results_returned",
			Help:      "Number of documents returned per query",
			Buckets:   []float64{0, 1, 5, 10, 50, 100, 500, 1000, 5000},
		},
	)
)

var queryMetricsRegistered bool

// RegisterQueryMetrics registers document and query metrics. Must be called once from main.
func RegisterQueryMetrics() {
	if queryMetricsRegistered {
		return
	}
	prometheus.MustRegister(DocumentOperationsTotal)
	prometheus.MustRegister(QueryRejectedTotal)
	prometheus.MustRegister(QueryResultsReturned)
	queryMetricsRegistered = true
}

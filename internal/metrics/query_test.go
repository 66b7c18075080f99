package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestQueryRejectedTotal_CountsByReason(t *testing.T) {
	c := QueryRejectedTotal.WithLabelValues("multiple_restrictive_fields")
	before := testutil.ToFloat64(c)
	c.Inc()

	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("expected %f, got %f", before+1, got)
	}
}

func TestDocumentOperationsTotal_Labels(t *testing.T) {
	DocumentOperationsTotal.WithLabelValues("get", "ok").Inc()
	DocumentOperationsTotal.WithLabelValues("get", "not_found").Inc()

	if n := testutil.CollectAndCount(DocumentOperationsTotal); n < 2 {
		t.Errorf("expected at least 2 series, got %d", n)
	}
}

func TestRegisterQueryMetrics_Idempotent(t *testing.T) {
	RegisterQueryMetrics()
	RegisterQueryMetrics() // second call must not panic
	if !queryMetricsRegistered {
		t.Error("expected metrics to be marked registered")
	}
}

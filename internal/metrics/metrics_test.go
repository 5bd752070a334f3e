package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	return NewWithRegistry("test-explorer", prometheus.NewRegistry())
}

func TestRecordHTTPRequest(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordHTTPRequest("GET", "/api/v1/blocks", "200", 25*time.Millisecond)

	var metric dto.Metric
	if err := m.RequestsTotal.WithLabelValues("GET", "/api/v1/blocks", "200").Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestSetIngestState(t *testing.T) {
	m := newTestMetrics(t)
	states := []string{"init", "bootstrap", "live", "reconnect"}
	m.SetIngestState(states, "live")

	var metric dto.Metric
	if err := m.IngestState.WithLabelValues("live").Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 1 {
		t.Errorf("live state gauge = %v, want 1", metric.Gauge.GetValue())
	}
	if err := m.IngestState.WithLabelValues("init").Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if metric.Gauge.GetValue() != 0 {
		t.Errorf("init state gauge = %v, want 0", metric.Gauge.GetValue())
	}
}

func TestRecordStoreQuery(t *testing.T) {
	m := newTestMetrics(t)
	m.RecordStoreQuery("list_accounts", "ok", 5*time.Millisecond)

	var metric dto.Metric
	if err := m.StoreQueriesTotal.WithLabelValues("list_accounts", "ok").Write(&metric); err != nil {
		t.Fatalf("write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1 {
		t.Errorf("counter = %v, want 1", metric.Counter.GetValue())
	}
}

func TestEnabledDefault(t *testing.T) {
	t.Setenv("METRICS_ENABLED", "")
	if !Enabled() {
		t.Error("Enabled() = false, want true by default")
	}
	t.Setenv("METRICS_ENABLED", "off")
	if Enabled() {
		t.Error("Enabled() = true, want false when METRICS_ENABLED=off")
	}
}

package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shopspring/decimal"
)

func TestLedgerMetricsExportsCountersAndGauges(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewLedgerMetrics(reg)
	metrics.RecordMutation("add", "grams")
	metrics.RecordMutation("add", "grams")
	metrics.RecordMutation("remove", "")
	metrics.SetTotals(decimal.RequireFromString("1037.5"), 2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "ledger_sale_mutations_total", map[string]string{"operation": "add", "mode": "grams"}); err != nil {
		t.Fatalf("fetch add: %v", err)
	} else if got != 2 {
		t.Fatalf("expected add=2, got %f", got)
	}

	if got, err := fetchCounterValue(mfs, "ledger_sale_mutations_total", map[string]string{"operation": "remove", "mode": "unknown"}); err != nil {
		t.Fatalf("fetch remove: %v", err)
	} else if got != 1 {
		t.Fatalf("expected remove=1, got %f", got)
	}

	if got, err := fetchGaugeValue(mfs, "ledger_revenue_total"); err != nil {
		t.Fatalf("fetch revenue: %v", err)
	} else if got != 1037.5 {
		t.Fatalf("expected revenue=1037.5, got %f", got)
	}

	if got, err := fetchGaugeValue(mfs, "ledger_sales"); err != nil {
		t.Fatalf("fetch sales: %v", err)
	} else if got != 2 {
		t.Fatalf("expected sales=2, got %f", got)
	}
}

func TestNilMetricsAreNoops(t *testing.T) {
	var ledger *LedgerMetrics
	ledger.RecordMutation("add", "package")
	ledger.SetTotals(decimal.Zero, 0)
	NewLedgerMetrics(nil).RecordMutation("add", "package")

	var http *HTTPMetrics
	http.Observe("GET", "/", 200, time.Millisecond)
	NewHTTPMetrics(nil).Observe("GET", "/", 200, time.Millisecond)
}

func TestHTTPMetricsObserve(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHTTPMetrics(reg)
	metrics.Observe("POST", "/api/v1/sales", 201, 250*time.Millisecond)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "http_requests_total", map[string]string{"method": "POST", "route": "/api/v1/sales", "status": "201"}); err != nil {
		t.Fatalf("fetch requests: %v", err)
	} else if got != 1 {
		t.Fatalf("expected requests=1, got %f", got)
	}

	if got, err := fetchHistogramSum(mfs, "http_request_duration_seconds", map[string]string{"route": "/api/v1/sales"}); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
}

func fetchCounterValue(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing labels %v", name, labels)
}

func fetchGaugeValue(mfs []*dto.MetricFamily, name string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil || len(mf.GetMetric()) == 0 {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	return mf.GetMetric()[0].GetGauge().GetValue(), nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name string, labels map[string]string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabels(metric.GetLabel(), labels) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing labels %v", name, labels)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabels(pairs []*dto.LabelPair, want map[string]string) bool {
	matched := 0
	for _, pair := range pairs {
		if value, ok := want[pair.GetName()]; ok {
			if value != pair.GetValue() {
				return false
			}
			matched++
		}
	}
	return matched == len(want)
}

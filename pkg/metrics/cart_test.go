package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

func TestCartMetricsCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCartMetrics(reg)
	m.IncItemsAdded()
	m.IncAddRetry("duplicate")
	m.IncAddRetry("duplicate")
	m.IncInsufficientStock("add")
	m.IncEventFailure()
	m.IncMerge("merged")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_cart_add_retries_total", "reason", "duplicate"); err != nil || got != 2 {
		t.Fatalf("expected 2 duplicate retries, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_cart_insufficient_stock_total", "operation", "add"); err != nil || got != 1 {
		t.Fatalf("expected 1 stock rejection, got %f err=%v", got, err)
	}
	if got, err := fetchCounterValue(mfs, "storefront_cart_merges_total", "result", "merged"); err != nil || got != 1 {
		t.Fatalf("expected 1 merge, got %f err=%v", got, err)
	}
}

func TestCartMetricsNilRegistererIsNoop(t *testing.T) {
	m := NewCartMetrics(nil)
	m.IncItemsAdded()
	m.IncAddRetry("")
	var nilMetrics *CartMetrics
	nilMetrics.IncMerge("failed")
}

func TestAbandonmentGaugesSet(t *testing.T) {
	reg := prometheus.NewRegistry()
	g := NewAbandonmentGauges(reg)
	g.Set(4, 1, 25, decimal.RequireFromString("49.95"), time.Unix(1_700_000_000, 0))

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchGaugeValue(mfs, "storefront_abandonment_rate_percent"); err != nil || got != 25 {
		t.Fatalf("expected rate 25, got %f err=%v", got, err)
	}
	if got, err := fetchGaugeValue(mfs, "storefront_abandonment_revenue_lost"); err != nil || got != 49.95 {
		t.Fatalf("expected revenue 49.95, got %f err=%v", got, err)
	}
	if got, err := fetchGaugeValue(mfs, "storefront_abandonment_carts_total"); err != nil || got != 4 {
		t.Fatalf("expected 4 carts, got %f err=%v", got, err)
	}
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// AbandonmentGauges exposes the most recently computed abandonment report.
type AbandonmentGauges struct {
	totalCarts     prometheus.Gauge
	abandonedCarts prometheus.Gauge
	rate           prometheus.Gauge
	revenueLost    prometheus.Gauge
	generatedAt    prometheus.Gauge
}

func NewAbandonmentGauges(reg prometheus.Registerer) *AbandonmentGauges {
	if reg == nil {
		return &AbandonmentGauges{}
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "abandonment",
			Name:      name,
			Help:      help,
		})
	}
	g := &AbandonmentGauges{
		totalCarts:     gauge("carts_total", "Carts considered in the last report window."),
		abandonedCarts: gauge("abandoned_carts", "Abandoned carts in the last report window."),
		rate:           gauge("rate_percent", "Abandonment rate in percent."),
		revenueLost:    gauge("revenue_lost", "Potential revenue held in abandoned carts."),
		generatedAt:    gauge("generated_timestamp_seconds", "Unix time the last report was generated."),
	}
	reg.MustRegister(g.totalCarts, g.abandonedCarts, g.rate, g.revenueLost, g.generatedAt)
	return g
}

// Set publishes one report snapshot.
func (g *AbandonmentGauges) Set(totalCarts, abandoned int, rate float64, revenueLost decimal.Decimal, generatedAt time.Time) {
	if g == nil || g.totalCarts == nil {
		return
	}
	g.totalCarts.Set(float64(totalCarts))
	g.abandonedCarts.Set(float64(abandoned))
	g.rate.Set(rate)
	g.revenueLost.Set(revenueLost.InexactFloat64())
	g.generatedAt.Set(float64(generatedAt.Unix()))
}

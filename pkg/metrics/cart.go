package metrics

import "github.com/prometheus/client_golang/prometheus"

// CartMetrics counts cart mutations and the retry paths they take.
type CartMetrics struct {
	itemsAdded        prometheus.Counter
	addRetries        *prometheus.CounterVec
	insufficientStock *prometheus.CounterVec
	eventFailures     prometheus.Counter
	merges            *prometheus.CounterVec
}

// NewCartMetrics registers the cart metrics on the provided registerer.
// A nil registerer yields a no-op recorder.
func NewCartMetrics(reg prometheus.Registerer) *CartMetrics {
	if reg == nil {
		return &CartMetrics{}
	}
	m := &CartMetrics{
		itemsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "items_added_total",
			Help:      "Successful addItem calls.",
		}),
		addRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "add_retries_total",
			Help:      "addItem attempts retried after losing a race.",
		}, []string{"reason"}),
		insufficientStock: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "insufficient_stock_total",
			Help:      "Operations rejected for lack of stock.",
		}, []string{"operation"}),
		eventFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "event_log_failures_total",
			Help:      "Cart events that could not be recorded.",
		}),
		merges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cart",
			Name:      "merges_total",
			Help:      "Session-to-user cart merges by outcome.",
		}, []string{"result"}),
	}
	reg.MustRegister(m.itemsAdded, m.addRetries, m.insufficientStock, m.eventFailures, m.merges)
	return m
}

func (m *CartMetrics) IncItemsAdded() {
	if m == nil || m.itemsAdded == nil {
		return
	}
	m.itemsAdded.Inc()
}

// IncAddRetry records a retried addItem attempt, e.g. reason "duplicate".
func (m *CartMetrics) IncAddRetry(reason string) {
	if m == nil || m.addRetries == nil {
		return
	}
	m.addRetries.WithLabelValues(normalizeLabel(reason)).Inc()
}

func (m *CartMetrics) IncInsufficientStock(operation string) {
	if m == nil || m.insufficientStock == nil {
		return
	}
	m.insufficientStock.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *CartMetrics) IncEventFailure() {
	if m == nil || m.eventFailures == nil {
		return
	}
	m.eventFailures.Inc()
}

// IncMerge records a merge outcome: merged, skipped or failed.
func (m *CartMetrics) IncMerge(result string) {
	if m == nil || m.merges == nil {
		return
	}
	m.merges.WithLabelValues(normalizeLabel(result)).Inc()
}

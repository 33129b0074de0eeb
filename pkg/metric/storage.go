package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Transaction = (*transactionMetrics)(nil)
	_ Cache       = (*cacheMetrics)(nil)
)

// transactionMetrics covers the dispatcher's activate-and-order transaction
// and any other unit run through the transaction manager.
type transactionMetrics struct {
	duration *prometheus.HistogramVec
	retries  *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func newTransactionMetrics(registry *promRegistry) *transactionMetrics {
	labels := []string{"operation"}

	m := &transactionMetrics{
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: _namespace,
			Subsystem: "db",
			Name:      "transaction_duration_seconds",
			Help:      "Duration of database transactions, retries included",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, labels),
		retries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "db",
			Name:      "transaction_retries_total",
			Help:      "Transactions retried after a serialization or deadlock error",
		}, labels),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "db",
			Name:      "transaction_failures_total",
			Help:      "Transactions that were rolled back",
		}, labels),
	}

	registry.registry.MustRegister(m.duration, m.retries, m.failures)
	return m
}

func (m *transactionMetrics) ObserveDuration(operation string, duration time.Duration) {
	m.duration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *transactionMetrics) IncrementRetries(operation string) {
	m.retries.WithLabelValues(operation).Inc()
}

func (m *transactionMetrics) IncrementFailures(operation string) {
	m.failures.WithLabelValues(operation).Inc()
}

// cacheMetrics is labelled by cache name, e.g. fee_schedule.
type cacheMetrics struct {
	lookups   *prometheus.CounterVec
	evictions *prometheus.CounterVec
	entries   *prometheus.GaugeVec
}

func newCacheMetrics(registry *promRegistry) *cacheMetrics {
	m := &cacheMetrics{
		lookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result (hit or miss)",
		}, []string{"cache", "result"}),
		evictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "cache",
			Name:      "evictions_total",
			Help:      "Entries removed from the cache",
		}, []string{"cache", "reason"}),
		entries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: _namespace,
			Subsystem: "cache",
			Name:      "entries",
			Help:      "Entries currently held",
		}, []string{"cache"}),
	}

	registry.registry.MustRegister(m.lookups, m.evictions, m.entries)
	return m
}

func (m *cacheMetrics) Hit(cache string) {
	m.lookups.WithLabelValues(cache, "hit").Inc()
}

func (m *cacheMetrics) Miss(cache string) {
	m.lookups.WithLabelValues(cache, "miss").Inc()
}

func (m *cacheMetrics) Eviction(cache string, reason string) {
	m.evictions.WithLabelValues(cache, reason).Inc()
}

func (m *cacheMetrics) Size(cache string, size int) {
	m.entries.WithLabelValues(cache).Set(float64(size))
}

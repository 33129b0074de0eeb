package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Reconcile = (*reconcileMetrics)(nil)
	_ Gateway   = (*gatewayMetrics)(nil)
	_ Sweep     = (*sweepMetrics)(nil)
)

type reconcileMetrics struct {
	transitions   *prometheus.CounterVec
	noops         *prometheus.CounterVec
	effectFailure *prometheus.CounterVec
}

func newReconcileMetrics(registry *promRegistry) *reconcileMetrics {
	transitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "payment_transitions_total",
			Help:      "Payment status transitions applied by the reconciliation engine",
		},
		[]string{"trigger", "from", "to"},
	)

	noops := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "payment_reconcile_noop_total",
			Help:      "Reconciliation attempts that did not change payment status",
		},
		[]string{"trigger", "reason"},
	)

	effectFailure := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "payment_effect_failures_total",
			Help:      "Failed downstream effect steps after payment completion",
		},
		[]string{"step"},
	)

	registry.registry.MustRegister(transitions, noops, effectFailure)

	return &reconcileMetrics{
		transitions:   transitions,
		noops:         noops,
		effectFailure: effectFailure,
	}
}

func (m *reconcileMetrics) Transition(trigger, from, to string) {
	m.transitions.WithLabelValues(trigger, from, to).Inc()
}

func (m *reconcileMetrics) Noop(trigger, reason string) {
	m.noops.WithLabelValues(trigger, reason).Inc()
}

func (m *reconcileMetrics) EffectFailed(step string) {
	m.effectFailure.WithLabelValues(step).Inc()
}

type gatewayMetrics struct {
	calls *prometheus.HistogramVec
}

func newGatewayMetrics(registry *promRegistry) *gatewayMetrics {
	calls := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: _namespace,
			Name:      "payment_gateway_call_duration_seconds",
			Help:      "Outbound payment gateway call duration by gateway, operation and outcome",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"gateway", "operation", "outcome"},
	)

	registry.registry.MustRegister(calls)

	return &gatewayMetrics{calls: calls}
}

func (m *gatewayMetrics) Call(gateway, operation, outcome string, duration time.Duration) {
	m.calls.WithLabelValues(gateway, operation, outcome).Observe(duration.Seconds())
}

type sweepMetrics struct {
	runs      *prometheus.HistogramVec
	processed prometheus.Counter
	skipped   *prometheus.CounterVec
}

func newSweepMetrics(registry *promRegistry) *sweepMetrics {
	runs := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: _namespace,
			Name:      "payment_sweep_run_duration_seconds",
			Help:      "Duration of pending-payment sweep runs by outcome",
			Buckets:   []float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300},
		},
		[]string{"outcome"},
	)

	processed := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: _namespace,
		Name:      "payment_sweep_processed_total",
		Help:      "Pending payments re-verified by the sweep job",
	})

	skipped := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: _namespace,
			Name:      "payment_sweep_skipped_total",
			Help:      "Sweep runs skipped because another run held the lock",
		},
		[]string{"reason"},
	)

	registry.registry.MustRegister(runs, processed, skipped)

	return &sweepMetrics{
		runs:      runs,
		processed: processed,
		skipped:   skipped,
	}
}

func (m *sweepMetrics) Run(outcome string, duration time.Duration) {
	m.runs.WithLabelValues(outcome).Observe(duration.Seconds())
}

func (m *sweepMetrics) Processed(count int) {
	m.processed.Add(float64(count))
}

func (m *sweepMetrics) Skipped(reason string) {
	m.skipped.WithLabelValues(reason).Inc()
}

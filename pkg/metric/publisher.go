package metric

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ Publisher = (*publisherMetrics)(nil)
	_ DLQ       = (*dlqMetrics)(nil)
)

type publisherMetrics struct {
	published *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func newPublisherMetrics(registry *promRegistry) *publisherMetrics {
	m := &publisherMetrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "kafka",
			Name:      "events_published_total",
			Help:      "payment.completed events written to Kafka",
		}, []string{"topic"}),
		failed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "kafka",
			Name:      "events_failed_total",
			Help:      "Events that were not written, by reason (dead_lettered, dlq_failed, marshal_failed)",
		}, []string{"topic", "reason"}),
	}

	registry.registry.MustRegister(m.published, m.failed)
	return m
}

func (m *publisherMetrics) MessagePublished(topic string) {
	m.published.WithLabelValues(topic).Inc()
}

func (m *publisherMetrics) MessageFailed(topic string, reason string) {
	m.failed.WithLabelValues(topic, reason).Inc()
}

type dlqMetrics struct {
	parked  *prometheus.CounterVec
	retries *prometheus.HistogramVec
	errors  *prometheus.CounterVec
}

func newDLQMetrics(registry *promRegistry) *dlqMetrics {
	m := &dlqMetrics{
		parked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "dlq",
			Name:      "messages_parked_total",
			Help:      "Messages parked on the dead letter topic",
		}, []string{"dlq_topic", "original_topic"}),
		retries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: _namespace,
			Subsystem: "dlq",
			Name:      "retry_count",
			Help:      "Retry count carried by parked messages",
			Buckets:   prometheus.LinearBuckets(1, 1, 10),
		}, []string{"original_topic"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: _namespace,
			Subsystem: "dlq",
			Name:      "errors_total",
			Help:      "Failures writing to the dead letter topic",
		}, []string{"dlq_topic", "reason"}),
	}

	registry.registry.MustRegister(m.parked, m.retries, m.errors)
	return m
}

func (m *dlqMetrics) DLSent(dlqTopic string, originalTopic string, retryCount int) {
	m.parked.WithLabelValues(dlqTopic, originalTopic).Inc()
	m.DLRetryCount(originalTopic, retryCount)
}

func (m *dlqMetrics) DLRetryCount(originalTopic string, retryCount int) {
	m.retries.WithLabelValues(originalTopic).Observe(float64(retryCount))
}

func (m *dlqMetrics) DLError(dlqTopic string, reason string) {
	m.errors.WithLabelValues(dlqTopic, reason).Inc()
}

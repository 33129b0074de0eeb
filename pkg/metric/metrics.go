package metric

//go:generate mockgen -source=metrics.go -destination=mock/metrics.go -package=mock_metric

import (
	"net/http"
	"time"
)

// _namespace prefixes every collector registered by the factory.
const _namespace = "motoka"

type (
	Factory interface {
		HTTP() HTTP
		Transaction() Transaction
		Cache() Cache
		Publisher() Publisher
		DLQ() DLQ
		Reconcile() Reconcile
		Gateway() Gateway
		Sweep() Sweep
		Handler() http.Handler
	}

	HTTP interface {
		Request(method, path string, status int, duration time.Duration)
		SlowRequest(method, path string, status int, duration time.Duration)
	}

	Transaction interface {
		ObserveDuration(operation string, duration time.Duration)
		IncrementRetries(operation string)
		IncrementFailures(operation string)
	}

	Cache interface {
		Hit(cacheType string)
		Miss(cacheType string)
		Eviction(cacheType string, reason string)
		Size(cacheType string, size int)
	}

	Publisher interface {
		MessagePublished(topic string)
		MessageFailed(topic string, reason string)
	}

	DLQ interface {
		DLSent(topic string, originalTopic string, retryCount int)
		DLError(topic string, reason string)
		DLRetryCount(originalTopic string, retryCount int)
	}

	Reconcile interface {
		Transition(trigger, from, to string)
		Noop(trigger, reason string)
		EffectFailed(step string)
	}

	Gateway interface {
		Call(gateway, operation, outcome string, duration time.Duration)
	}

	Sweep interface {
		Run(outcome string, duration time.Duration)
		Processed(count int)
		Skipped(reason string)
	}
)

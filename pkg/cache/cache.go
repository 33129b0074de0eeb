package cache

import (
	"context"
	"time"
)

type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)
	Put(key K, value V, ttl time.Duration)
	GetOrLoad(ctx context.Context, key K, ttl time.Duration, load func(ctx context.Context, key K) (V, error)) (V, error)
	Has(key K) bool
	Len() int
	Capacity() int
	Purge()
	StartCleanup(interval time.Duration)
	StopCleanup()
}

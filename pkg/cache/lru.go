package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"motoka/pkg/logger"
	"motoka/pkg/metric"
)

const (
	_removePreallocSize = 10
)

var _ Cache[string, struct{}] = (*LRUCache[string, struct{}])(nil)

// LRUCache is a bounded in-memory cache with optional per-entry TTL.
// The name labels every metric the cache emits.
type LRUCache[K comparable, V any] struct {
	name    string
	cache   map[K]*list.Element
	lruList *list.List
	mutex   sync.Mutex
	log     logger.Logger
	metrics metric.Cache

	capacity        int
	cleanupInterval time.Duration
	cleanupStop     chan struct{}
	onEvicted       func(key K, value V)
}

type entry[K comparable, V any] struct {
	key     K
	value   V
	expires time.Time
}

func (e *entry[K, V]) expired(now time.Time) bool {
	return !e.expires.IsZero() && now.After(e.expires)
}

func NewLRUCache[K comparable, V any](
	name string,
	capacity int,
	log logger.Logger,
	metrics metric.Cache,
) (*LRUCache[K, V], error) {
	if name == "" {
		return nil, errors.New("cache.NewLRUCache: name is required")
	}
	if capacity <= 0 {
		return nil, fmt.Errorf("cache.NewLRUCache: capacity must be positive, got %d", capacity)
	}

	return &LRUCache[K, V]{
		name:     name,
		capacity: capacity,
		cache:    make(map[K]*list.Element),
		lruList:  list.New(),
		log:      log,
		metrics:  metrics,
	}, nil
}

func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	var zero V

	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		c.metrics.Miss(c.name)
		return zero, false
	}

	e := elem.Value.(*entry[K, V])
	if e.expired(time.Now()) {
		c.removeElement(elem, "expired")
		c.metrics.Miss(c.name)
		return zero, false
	}

	c.lruList.MoveToFront(elem)
	c.metrics.Hit(c.name)

	return e.value, true
}

func (c *LRUCache[K, V]) Put(key K, value V, ttl time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	var expires time.Time
	if ttl > 0 {
		expires = time.Now().Add(ttl)
	}

	if elem, ok := c.cache[key]; ok {
		e := elem.Value.(*entry[K, V])
		e.value = value
		e.expires = expires
		c.lruList.MoveToFront(elem)
		return
	}

	if c.lruList.Len() >= c.capacity {
		if oldest := c.lruList.Back(); oldest != nil {
			c.removeElement(oldest, "lru")
		}
	}

	c.cache[key] = c.lruList.PushFront(&entry[K, V]{
		key:     key,
		value:   value,
		expires: expires,
	})
	c.metrics.Size(c.name, c.lruList.Len())
}

// GetOrLoad returns the cached value for key, calling load on a miss and
// caching its result. Load errors are returned unchanged and nothing is cached.
func (c *LRUCache[K, V]) GetOrLoad(
	ctx context.Context,
	key K,
	ttl time.Duration,
	load func(ctx context.Context, key K) (V, error),
) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := load(ctx, key)
	if err != nil {
		var zero V
		return zero, err
	}

	c.Put(key, v, ttl)
	return v, nil
}

func (c *LRUCache[K, V]) Has(key K) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	elem, ok := c.cache[key]
	if !ok {
		return false
	}

	return !elem.Value.(*entry[K, V]).expired(time.Now())
}

func (c *LRUCache[K, V]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.lruList.Len()
}

func (c *LRUCache[K, V]) Capacity() int {
	return c.capacity
}

// Purge drops every entry, e.g. after fee schedules are edited.
func (c *LRUCache[K, V]) Purge() {
	c.mutex.Lock()
	evicted := make([]*entry[K, V], 0, c.lruList.Len())
	for _, elem := range c.cache {
		evicted = append(evicted, elem.Value.(*entry[K, V]))
	}
	c.lruList.Init()
	clear(c.cache)
	onEvicted := c.onEvicted
	c.mutex.Unlock()

	c.metrics.Size(c.name, 0)

	if onEvicted == nil {
		return
	}
	for _, e := range evicted {
		onEvicted(e.key, e.value)
	}
}

func (c *LRUCache[K, V]) StartCleanup(interval time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cleanupStop != nil {
		close(c.cleanupStop)
	}

	c.cleanupInterval = interval
	c.cleanupStop = make(chan struct{})
	go c.runCleanup(c.cleanupStop)
}

func (c *LRUCache[K, V]) StopCleanup() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.cleanupStop != nil {
		close(c.cleanupStop)
		c.cleanupStop = nil
	}
}

func (c *LRUCache[K, V]) runCleanup(stop <-chan struct{}) {
	ticker := time.NewTicker(c.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.cleanupExpired()
		case <-stop:
			return
		}
	}
}

func (c *LRUCache[K, V]) cleanupExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := time.Now()
	toRemove := make([]*list.Element, 0, _removePreallocSize)

	for _, elem := range c.cache {
		if elem.Value.(*entry[K, V]).expired(now) {
			toRemove = append(toRemove, elem)
		}
	}

	for _, elem := range toRemove {
		c.removeElement(elem, "expired")
	}

	if len(toRemove) > 0 {
		c.metrics.Size(c.name, c.lruList.Len())
		c.log.Debugw("cache cleanup completed",
			"cache", c.name,
			"removed", len(toRemove),
			"remaining", c.lruList.Len(),
		)
	}
}

func (c *LRUCache[K, V]) removeElement(elem *list.Element, reason string) {
	c.lruList.Remove(elem)
	e := elem.Value.(*entry[K, V])
	delete(c.cache, e.key)
	if c.onEvicted != nil {
		c.onEvicted(e.key, e.value)
	}
	c.metrics.Eviction(c.name, reason)
}

func (c *LRUCache[K, V]) SetOnEvicted(onEvicted func(key K, value V)) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.onEvicted = onEvicted
}

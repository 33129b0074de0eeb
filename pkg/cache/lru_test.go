package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"motoka/pkg/cache"
	mock_logger "motoka/pkg/logger/mock"
	mock_metric "motoka/pkg/metric/mock"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const _cacheName = "fee_schedule"

func newTestCache(t *testing.T, capacity int) *cache.LRUCache[int64, string] {
	t.Helper()

	ctrl := gomock.NewController(t)

	mockLogger := mock_logger.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debugw(gomock.Any(), gomock.Any()).AnyTimes()

	mockMetrics := mock_metric.NewMockCache(ctrl)
	mockMetrics.EXPECT().Hit(_cacheName).AnyTimes()
	mockMetrics.EXPECT().Miss(_cacheName).AnyTimes()
	mockMetrics.EXPECT().Eviction(_cacheName, gomock.Any()).AnyTimes()
	mockMetrics.EXPECT().Size(_cacheName, gomock.Any()).AnyTimes()

	c, err := cache.NewLRUCache[int64, string](_cacheName, capacity, mockLogger, mockMetrics)
	require.NoError(t, err)

	return c
}

type cacheOperation struct {
	op    string
	key   int64
	value string
}

func TestLRUCache_GetPut(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc     string
		capacity int
		ops      []cacheOperation
		present  map[int64]string
		absent   []int64
	}{
		{
			desc:     "BasicGetPut",
			capacity: 2,
			ops: []cacheOperation{
				{"put", 1, "Insurance"},
				{"put", 2, "Road Worthiness"},
			},
			present: map[int64]string{1: "Insurance", 2: "Road Worthiness"},
		},
		{
			desc:     "LeastRecentlyUsedIsEvicted",
			capacity: 2,
			ops: []cacheOperation{
				{"put", 1, "Insurance"},
				{"put", 2, "Road Worthiness"},
				{"get", 1, ""},
				{"put", 3, "Vehicle License"},
			},
			present: map[int64]string{1: "Insurance", 3: "Vehicle License"},
			absent:  []int64{2},
		},
		{
			desc:     "OverwriteKeepsSize",
			capacity: 2,
			ops: []cacheOperation{
				{"put", 1, "Insurance"},
				{"put", 1, "Third Party Insurance"},
			},
			present: map[int64]string{1: "Third Party Insurance"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			c := newTestCache(t, tc.capacity)
			for _, op := range tc.ops {
				switch op.op {
				case "put":
					c.Put(op.key, op.value, 0)
				case "get":
					c.Get(op.key)
				}
			}

			for key, want := range tc.present {
				got, ok := c.Get(key)
				assert.True(t, ok, "key %d", key)
				assert.Equal(t, want, got)
			}
			for _, key := range tc.absent {
				_, ok := c.Get(key)
				assert.False(t, ok, "key %d", key)
			}
			assert.Equal(t, len(tc.present), c.Len())
		})
	}
}

func TestLRUCache_TTL(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc   string
		ttl    time.Duration
		sleep  time.Duration
		wantOK bool
	}{
		{desc: "NotExpired", ttl: 200 * time.Millisecond, sleep: 50 * time.Millisecond, wantOK: true},
		{desc: "Expired", ttl: 50 * time.Millisecond, sleep: 150 * time.Millisecond, wantOK: false},
		{desc: "NoTTL", ttl: 0, sleep: 100 * time.Millisecond, wantOK: true},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			c := newTestCache(t, 1)
			c.Put(1, "Insurance", tc.ttl)
			time.Sleep(tc.sleep)

			_, ok := c.Get(1)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantOK, c.Has(1))
		})
	}
}

func TestLRUCache_GetOrLoad(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, 4)

	var calls int
	load := func(_ context.Context, key int64) (string, error) {
		calls++
		if key == 404 {
			return "", errors.New("not found")
		}
		return "Plate Number", nil
	}

	got, err := c.GetOrLoad(context.Background(), 7, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "Plate Number", got)

	got, err = c.GetOrLoad(context.Background(), 7, time.Minute, load)
	require.NoError(t, err)
	assert.Equal(t, "Plate Number", got)
	assert.Equal(t, 1, calls)

	_, err = c.GetOrLoad(context.Background(), 404, time.Minute, load)
	require.Error(t, err)
	assert.False(t, c.Has(404))
}

func TestLRUCache_OnEvicted(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		desc        string
		capacity    int
		keys        []int64
		purge       bool
		wantEvicted []int64
		wantLen     int
	}{
		{desc: "SingleEviction", capacity: 2, keys: []int64{1, 2, 3}, wantEvicted: []int64{1}, wantLen: 2},
		{desc: "MultipleEvictions", capacity: 1, keys: []int64{1, 2, 3}, wantEvicted: []int64{1, 2}, wantLen: 1},
		{desc: "Purge", capacity: 2, keys: []int64{1, 2}, purge: true, wantEvicted: []int64{1, 2}, wantLen: 0},
	}

	for _, tc := range testCases {
		t.Run(tc.desc, func(t *testing.T) {
			t.Parallel()

			var (
				mu      sync.Mutex
				evicted []int64
			)

			c := newTestCache(t, tc.capacity)
			c.SetOnEvicted(func(key int64, _ string) {
				mu.Lock()
				defer mu.Unlock()
				evicted = append(evicted, key)
			})

			for _, key := range tc.keys {
				c.Put(key, "fee", 0)
			}
			if tc.purge {
				c.Purge()
			}

			mu.Lock()
			defer mu.Unlock()
			assert.ElementsMatch(t, tc.wantEvicted, evicted)
			assert.Equal(t, tc.wantLen, c.Len())
		})
	}
}

func TestLRUCache_Cleanup(t *testing.T) {
	t.Parallel()

	c := newTestCache(t, 4)
	c.Put(1, "Insurance", 20*time.Millisecond)
	c.Put(2, "Hackney Permit", 0)

	c.StartCleanup(10 * time.Millisecond)
	defer c.StopCleanup()

	assert.Eventually(t, func() bool { return c.Len() == 1 }, time.Second, 10*time.Millisecond)
	assert.True(t, c.Has(2))
}

func TestNewLRUCache_Validation(t *testing.T) {
	t.Parallel()

	ctrl := gomock.NewController(t)
	mockLogger := mock_logger.NewMockLogger(ctrl)
	mockMetrics := mock_metric.NewMockCache(ctrl)

	_, err := cache.NewLRUCache[int64, string](_cacheName, 0, mockLogger, mockMetrics)
	assert.Error(t, err)

	_, err = cache.NewLRUCache[int64, string]("", 10, mockLogger, mockMetrics)
	assert.Error(t, err)

	c, err := cache.NewLRUCache[int64, string](_cacheName, 10, mockLogger, mockMetrics)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Capacity())
}

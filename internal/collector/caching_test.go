package collector

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"SpotSentinel/internal/model"
)

type memCache struct {
	mu      sync.Mutex
	data    map[string][]byte
	getErr  error
	setErr  error
	lastTTL time.Duration
}

func newMemCache() *memCache { return &memCache{data: map[string][]byte{}} }

func (c *memCache) Get(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	v, ok := c.data[key]
	return v, ok, nil
}

func (c *memCache) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.setErr != nil {
		return c.setErr
	}
	c.data[key] = value
	c.lastTTL = ttl
	return nil
}

func (c *memCache) Close() error { return nil }

func TestCachingFetcher_HitAfterMiss(t *testing.T) {
	mock := &MockFetcher{}
	mc := newMemCache()
	f := NewCachingFetcher(mock, mc, time.Hour, zap.NewNop())

	first, err := f.FetchPrices(context.Background(), "de", testWindow)
	require.NoError(t, err)
	second, err := f.FetchPrices(context.Background(), "de", testWindow)
	require.NoError(t, err)

	assert.Len(t, mock.Windows, 1)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Hour, mc.lastTTL)
	assert.Contains(t, mc.data, "prices:de:2024-01-14:2024-01-15")
	assert.Equal(t, "mock+cache", f.Name())
}

func TestCachingFetcher_CacheErrorsFallThrough(t *testing.T) {
	mock := &MockFetcher{}
	mc := newMemCache()
	mc.getErr = errors.New("redis down")
	mc.setErr = errors.New("redis down")
	f := NewCachingFetcher(mock, mc, time.Hour, nil)

	raw, err := f.FetchPrices(context.Background(), "de", testWindow)
	require.NoError(t, err)
	assert.NotEmpty(t, raw.Price)

	_, err = f.FetchPrices(context.Background(), "de", testWindow)
	require.NoError(t, err)
	assert.Len(t, mock.Windows, 2)
}

func TestCachingFetcher_CorruptEntryRefetched(t *testing.T) {
	mock := &MockFetcher{}
	mc := newMemCache()
	mc.data[CacheKey("de", testWindow)] = []byte("not json")
	f := NewCachingFetcher(mock, mc, time.Hour, nil)

	_, err := f.FetchPrices(context.Background(), "de", testWindow)
	require.NoError(t, err)
	assert.Len(t, mock.Windows, 1)
}

func TestCachingFetcher_ErrorsNotCached(t *testing.T) {
	mock := &MockFetcher{Err: &model.TransportError{URL: "u", Err: errors.New("timeout")}}
	mc := newMemCache()
	f := NewCachingFetcher(mock, mc, time.Hour, nil)

	_, err := f.FetchPrices(context.Background(), "de", testWindow)

	var te *model.TransportError
	assert.True(t, errors.As(err, &te))
	assert.Empty(t, mc.data)
}

package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"SpotSentinel/internal/cache"
	"SpotSentinel/internal/model"
)

// CachingFetcher serves repeated requests for the same window from a cache.
// Cache failures are logged and fall through to the wrapped fetcher.
type CachingFetcher struct {
	Next   Fetcher
	Cache  cache.Cache
	TTL    time.Duration
	Logger *zap.Logger
}

// NewCachingFetcher wraps next with c.
func NewCachingFetcher(next Fetcher, c cache.Cache, ttl time.Duration, logger *zap.Logger) *CachingFetcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachingFetcher{Next: next, Cache: c, TTL: ttl, Logger: logger}
}

func (f *CachingFetcher) Name() string { return f.Next.Name() + "+cache" }

// CacheKey identifies a response by region and window dates.
func CacheKey(region string, window model.QueryWindow) string {
	return fmt.Sprintf("prices:%s:%s:%s", region, window.StartDate(), window.EndDate())
}

func (f *CachingFetcher) FetchPrices(ctx context.Context, region string, window model.QueryWindow) (*model.RawPriceResponse, error) {
	key := CacheKey(region, window)

	if data, ok, err := f.Cache.Get(ctx, key); err != nil {
		f.Logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
	} else if ok {
		var raw model.RawPriceResponse
		if err := json.Unmarshal(data, &raw); err == nil {
			f.Logger.Debug("cache hit", zap.String("key", key))
			return &raw, nil
		}
		f.Logger.Warn("discarding unreadable cache entry", zap.String("key", key))
	}

	raw, err := f.Next.FetchPrices(ctx, region, window)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(raw); err == nil {
		if err := f.Cache.Set(ctx, key, data, f.TTL); err != nil {
			f.Logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return raw, nil
}

package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/angelmondragon/storefront-cart/pkg/redis"
)

type cacheStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
}

// ReportCache keeps the latest scheduled report in redis.
type ReportCache struct {
	store cacheStore
	key   string
	ttl   time.Duration
}

func NewReportCache(store cacheStore, key string, ttl time.Duration) (*ReportCache, error) {
	if store == nil {
		return nil, fmt.Errorf("cache store required")
	}
	if key == "" {
		return nil, fmt.Errorf("cache key required")
	}
	return &ReportCache{store: store, key: key, ttl: ttl}, nil
}

// Save stores report as the latest one.
func (c *ReportCache) Save(ctx context.Context, report *Report) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	if err := c.store.Set(ctx, c.key, string(payload), c.ttl); err != nil {
		return fmt.Errorf("cache report: %w", err)
	}
	return nil
}

// Latest returns the cached report, or nil when none is cached.
func (c *ReportCache) Latest(ctx context.Context) (*Report, error) {
	raw, err := c.store.Get(ctx, c.key)
	if redis.IsMiss(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cached report: %w", err)
	}
	var report Report
	if err := json.Unmarshal([]byte(raw), &report); err != nil {
		return nil, fmt.Errorf("decode cached report: %w", err)
	}
	return &report, nil
}

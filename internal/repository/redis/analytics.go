package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/insightmart/insightmart/internal/domain"
	apperrors "github.com/insightmart/insightmart/pkg/errors"
)

const analyticsKeyPrefix = "analytics:seller:"

// AnalyticsCache implements repository.AnalyticsCache using Redis.
// A zero TTL disables caching.
type AnalyticsCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAnalyticsCache creates a new Redis-backed analytics cache.
func NewAnalyticsCache(client *redis.Client, ttl time.Duration) *AnalyticsCache {
	return &AnalyticsCache{client: client, ttl: ttl}
}

// Get returns the cached report of a seller.
func (c *AnalyticsCache) Get(ctx context.Context, sellerID string) (*domain.SellerReport, error) {
	if c.ttl <= 0 {
		return nil, apperrors.NotFound("Cached report")
	}

	data, err := c.client.Get(ctx, analyticsKeyPrefix+sellerID).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, apperrors.NotFound("Cached report")
		}
		return nil, fmt.Errorf("redis get analytics: %w", err)
	}

	var report domain.SellerReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("unmarshal analytics: %w", err)
	}
	return &report, nil
}

// Set caches a seller's report.
func (c *AnalyticsCache) Set(ctx context.Context, sellerID string, report *domain.SellerReport) error {
	if c.ttl <= 0 {
		return nil
	}

	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal analytics: %w", err)
	}
	if err := c.client.Set(ctx, analyticsKeyPrefix+sellerID, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set analytics: %w", err)
	}
	return nil
}

// Invalidate drops the cached reports of sellerIDs.
func (c *AnalyticsCache) Invalidate(ctx context.Context, sellerIDs ...string) error {
	if len(sellerIDs) == 0 {
		return nil
	}

	keys := make([]string, len(sellerIDs))
	for i, id := range sellerIDs {
		keys[i] = analyticsKeyPrefix + id
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("redis del analytics: %w", err)
	}
	return nil
}

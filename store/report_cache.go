package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"pulse/api/models"
)

const reportKeyPrefix = "pulse:report:"

// ReportCache stores computed live reports in Redis for a short TTL so
// dashboards polling the same range do not rescan the event tables.
type ReportCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewReportCache(rdb *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{rdb: rdb, ttl: ttl}
}

func reportKey(siteID, rangeToken string) string {
	return reportKeyPrefix + siteID + ":" + rangeToken
}

func (c *ReportCache) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}

// Get returns (nil, false, nil) on a miss.
func (c *ReportCache) Get(ctx context.Context, siteID, rangeToken string) (*models.AnalyticsReport, bool, error) {
	raw, err := c.rdb.Get(ctx, reportKey(siteID, rangeToken)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cached report: %w", err)
	}

	var report models.AnalyticsReport
	if err := json.Unmarshal(raw, &report); err != nil {
		return nil, false, fmt.Errorf("failed to decode cached report: %w", err)
	}
	return &report, true, nil
}

func (c *ReportCache) Set(ctx context.Context, siteID, rangeToken string, report *models.AnalyticsReport) error {
	raw, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.rdb.Set(ctx, reportKey(siteID, rangeToken), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache report: %w", err)
	}
	return nil
}

// Invalidate drops every cached range for a site.
func (c *ReportCache) Invalidate(ctx context.Context, siteID string) error {
	iter := c.rdb.Scan(ctx, 0, reportKeyPrefix+siteID+":*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cached reports: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached reports: %w", err)
	}
	return nil
}

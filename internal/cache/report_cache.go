package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/irfndi/ratepulse/internal/metrics"
	"github.com/irfndi/ratepulse/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const reportKeyPrefix = "ratepulse:report:"

// ReportCache stores analysis reports between page renders.
type ReportCache interface {
	Get(ctx context.Context, assetID string, k int) (*models.AnalysisReport, bool)
	Set(ctx context.Context, assetID string, k int, report *models.AnalysisReport)
	Invalidate(ctx context.Context, assetID string) (int, error)
}

// ReportCacheStats tracks cache performance
type ReportCacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Sets   int64 `json:"sets"`
}

// RedisReportCache implements ReportCache on Redis with a fixed TTL.
// Redis failures are logged and treated as misses.
type RedisReportCache struct {
	redis   *redis.Client
	ttl     time.Duration
	logger  logrus.FieldLogger
	metrics *metrics.Metrics

	mu    sync.Mutex
	stats ReportCacheStats
}

// NewRedisReportCache creates a Redis-backed report cache.
func NewRedisReportCache(client *redis.Client, ttl time.Duration, logger logrus.FieldLogger, m *metrics.Metrics) *RedisReportCache {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &RedisReportCache{
		redis:   client,
		ttl:     ttl,
		logger:  logger.WithField("component", "report_cache"),
		metrics: m,
	}
}

// ReportKey builds the cache key for an asset and ranking size.
func ReportKey(assetID string, k int) string {
	return fmt.Sprintf("%s%s:%d", reportKeyPrefix, strings.ToUpper(assetID), k)
}

// Get returns a cached report if present and decodable.
func (c *RedisReportCache) Get(ctx context.Context, assetID string, k int) (*models.AnalysisReport, bool) {
	key := ReportKey(assetID, k)

	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("Redis error reading cached report")
		}
		c.miss()
		return nil, false
	}

	var report models.AnalysisReport
	if err := json.Unmarshal(data, &report); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Discarding undecodable cached report")
		c.miss()
		return nil, false
	}

	c.mu.Lock()
	c.stats.Hits++
	c.mu.Unlock()
	c.metrics.RecordCacheHit()
	return &report, true
}

// Set stores a report under the asset's key.
func (c *RedisReportCache) Set(ctx context.Context, assetID string, k int, report *models.AnalysisReport) {
	if report == nil {
		return
	}
	key := ReportKey(assetID, k)

	data, err := json.Marshal(report)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to serialize report")
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Failed to cache report")
		return
	}

	c.mu.Lock()
	c.stats.Sets++
	c.mu.Unlock()
}

// Invalidate drops every cached report for the asset, whatever its k.
func (c *RedisReportCache) Invalidate(ctx context.Context, assetID string) (int, error) {
	pattern := reportKeyPrefix + strings.ToUpper(assetID) + ":*"

	var keys []string
	iter := c.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return 0, fmt.Errorf("error scanning cache keys: %w", err)
	}
	if len(keys) == 0 {
		return 0, nil
	}

	if err := c.redis.Del(ctx, keys...).Err(); err != nil {
		return 0, fmt.Errorf("error clearing cache: %w", err)
	}
	c.logger.WithField("asset", assetID).Infof("Cleared %d cached reports", len(keys))
	return len(keys), nil
}

// GetStats returns current cache statistics
func (c *RedisReportCache) GetStats() ReportCacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *RedisReportCache) miss() {
	c.mu.Lock()
	c.stats.Misses++
	c.mu.Unlock()
	c.metrics.RecordCacheMiss()
}

package repository

import (
	"context"
	"creative_learning_backend/internal/model"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// MetricsCache 仪表盘指标缓存，命中时返回与写入时相同的数据
type MetricsCache interface {
	Get(ctx context.Context, userID string) (*model.DashboardMetrics, bool, error)
	Set(ctx context.Context, userID string, metrics *model.DashboardMetrics) error
	Invalidate(ctx context.Context, userID string) error
}

type cacheEntry struct {
	metrics  *model.DashboardMetrics
	storedAt time.Time
}

type MemoryMetricsCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	entries    map[string]cacheEntry
}

func NewMemoryMetricsCache(ttl time.Duration, maxEntries int, now func() time.Time) *MemoryMetricsCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryMetricsCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        now,
		entries:    make(map[string]cacheEntry),
	}
}

func (c *MemoryMetricsCache) Get(_ context.Context, userID string) (*model.DashboardMetrics, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[userID]
	if !ok {
		return nil, false, nil
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		delete(c.entries, userID)
		return nil, false, nil
	}
	return e.metrics, true, nil
}

func (c *MemoryMetricsCache) Set(_ context.Context, userID string, metrics *model.DashboardMetrics) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if _, exists := c.entries[userID]; !exists && c.maxEntries > 0 && len(c.entries) >= c.maxEntries {
		c.evictLocked(now)
	}
	c.entries[userID] = cacheEntry{metrics: metrics, storedAt: now}
	return nil
}

func (c *MemoryMetricsCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	return nil
}

// evictLocked 先清理过期条目，仍然满的话淘汰最早写入的一条
func (c *MemoryMetricsCache) evictLocked(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.entries {
		if now.Sub(e.storedAt) >= c.ttl {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.storedAt.Before(oldest) {
			oldestKey, oldest = k, e.storedAt
		}
	}
	if len(c.entries) >= c.maxEntries && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}

func (c *MemoryMetricsCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// RedisMetricsCache 多实例部署时共享缓存，过期交给 Redis
type RedisMetricsCache struct {
	Redis *redis.Client
	TTL   time.Duration
}

func NewRedisMetricsCache(rdb *redis.Client, ttl time.Duration) *RedisMetricsCache {
	return &RedisMetricsCache{Redis: rdb, TTL: ttl}
}

func metricsKey(userID string) string {
	return fmt.Sprintf("creative:dashboard:metrics:%s", userID)
}

func (c *RedisMetricsCache) Get(ctx context.Context, userID string) (*model.DashboardMetrics, bool, error) {
	data, err := c.Redis.Get(ctx, metricsKey(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var m model.DashboardMetrics
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, err
	}
	return &m, true, nil
}

func (c *RedisMetricsCache) Set(ctx context.Context, userID string, metrics *model.DashboardMetrics) error {
	data, err := json.Marshal(metrics)
	if err != nil {
		return err
	}
	return c.Redis.Set(ctx, metricsKey(userID), data, c.TTL).Err()
}

func (c *RedisMetricsCache) Invalidate(ctx context.Context, userID string) error {
	return c.Redis.Del(ctx, metricsKey(userID)).Err()
}

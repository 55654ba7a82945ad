package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/MrSnakeDoc/pinmap/internal/domain"
)

const (
	// DefaultStatsTTL is the default TTL for cached stats (1 minute)
	DefaultStatsTTL = time.Minute
	// DefaultConfigTTL is the default TTL for the cached site config (10 minutes)
	DefaultConfigTTL = 10 * time.Minute
)

// Cache keeps read-mostly documents in Redis.
// A Cache built on a nil client is disabled: reads miss and writes are no-ops.
type Cache struct {
	client    *redis.Client
	statsTTL  time.Duration
	configTTL time.Duration
}

// NewCache creates a Redis cache. Zero TTLs fall back to the defaults.
func NewCache(client *redis.Client, statsTTL, configTTL time.Duration) *Cache {
	if statsTTL <= 0 {
		statsTTL = DefaultStatsTTL
	}
	if configTTL <= 0 {
		configTTL = DefaultConfigTTL
	}
	return &Cache{client: client, statsTTL: statsTTL, configTTL: configTTL}
}

// Enabled reports whether a Redis client backs the cache
func (c *Cache) Enabled() bool {
	return c != nil && c.client != nil
}

// Ping checks Redis; a disabled cache is always healthy.
func (c *Cache) Ping(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// GetStats returns cached stats for a UTC day, ok=false on miss
func (c *Cache) GetStats(ctx context.Context, day string) (domain.Stats, bool, error) {
	var stats domain.Stats
	ok, err := c.get(ctx, StatsKey(day), &stats)
	return stats, ok, err
}

// SetStats caches stats for a UTC day
func (c *Cache) SetStats(ctx context.Context, day string, stats domain.Stats) error {
	return c.set(ctx, StatsKey(day), stats, c.statsTTL)
}

// InvalidateStats removes every cached stats entry
func (c *Cache) InvalidateStats(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	iter := c.client.Scan(ctx, 0, KeyStats+":*", 0).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("failed to delete stats key: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to invalidate stats: %w", err)
	}
	return nil
}

// GetSiteConfig returns the cached site config, ok=false on miss
func (c *Cache) GetSiteConfig(ctx context.Context) (domain.SiteConfig, bool, error) {
	var cfg domain.SiteConfig
	ok, err := c.get(ctx, SiteConfigKey(), &cfg)
	return cfg, ok, err
}

// SetSiteConfig caches the site config
func (c *Cache) SetSiteConfig(ctx context.Context, cfg domain.SiteConfig) error {
	return c.set(ctx, SiteConfigKey(), cfg, c.configTTL)
}

// InvalidateSiteConfig removes the cached site config
func (c *Cache) InvalidateSiteConfig(ctx context.Context) error {
	if !c.Enabled() {
		return nil
	}
	if err := c.client.Del(ctx, SiteConfigKey()).Err(); err != nil {
		return fmt.Errorf("failed to invalidate site config: %w", err)
	}
	return nil
}

func (c *Cache) get(ctx context.Context, key string, dst any) (bool, error) {
	if !c.Enabled() {
		return false, nil
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil // Cache miss
		}
		return false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (c *Cache) set(ctx context.Context, key string, v any, ttl time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache %s: %w", key, err)
	}
	return nil
}

// Package cache stores expensive upstream results (AI analyses, market
// overviews) for a limited time.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache is a JSON key/value store with per-instance expiry.
type Cache interface {
	// GetJSON decodes the cached value into dst. It reports false on a miss.
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any) error
	Close() error
}

// AnalysisKey is the cache key of the AI analysis for a ticker.
func AnalysisKey(ticker string) string {
	return "analysis:" + ticker
}

// MarketOverviewKey is the cache key of the market overview.
const MarketOverviewKey = "market:overview"

// RedisCache implements Cache on top of Redis.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
	prefix string
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(addr, password string, db int, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisCache{client: client, ttl: ttl, prefix: "stocklens:"}, nil
}

func (c *RedisCache) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, fmt.Errorf("get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("decode cached %s: %w", key, err)
	}
	return true, nil
}

func (c *RedisCache) SetJSON(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := c.client.Set(ctx, c.prefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set %s in redis: %w", key, err)
	}
	return nil
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoopCache never stores anything; used when Redis is not configured.
type NoopCache struct{}

func (NoopCache) GetJSON(context.Context, string, any) (bool, error) { return false, nil }
func (NoopCache) SetJSON(context.Context, string, any) error         { return nil }
func (NoopCache) Close() error                                       { return nil }

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package cache

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/danielhkuo/matchday-vote/models"
)

const tallyKey = "matchday:tally"

// TallyCache holds the last computed tally between writes
type TallyCache interface {
	Get(ctx context.Context) (models.Tally, bool, error)
	Set(ctx context.Context, tally models.Tally) error
	Invalidate(ctx context.Context) error
}

// RedisTallyCache is a cache-aside layer in Redis. With a nil client every
// operation is a no-op and Get always misses.
type RedisTallyCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisTallyCache connects to redisURL. An empty URL, a bad URL or a
// failed ping disables caching instead of failing startup.
func NewRedisTallyCache(redisURL string, ttl time.Duration) *RedisTallyCache {
	if redisURL == "" {
		slog.Info("redis: no URL configured, tally cache disabled")
		return &RedisTallyCache{}
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		slog.Warn("redis: invalid URL, tally cache disabled", "error", err)
		return &RedisTallyCache{}
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		slog.Warn("redis: connection failed, tally cache disabled", "error", err)
		rdb.Close()
		return &RedisTallyCache{}
	}

	slog.Info("redis: connected, tally cache enabled", "ttl", ttl)
	return NewTallyCache(rdb, ttl)
}

// NewTallyCache wraps an existing client
func NewTallyCache(rdb *redis.Client, ttl time.Duration) *RedisTallyCache {
	return &RedisTallyCache{rdb: rdb, ttl: ttl}
}

// Enabled reports whether a Redis client is attached
func (c *RedisTallyCache) Enabled() bool {
	return c.rdb != nil
}

func (c *RedisTallyCache) Get(ctx context.Context) (models.Tally, bool, error) {
	if c.rdb == nil {
		return nil, false, nil
	}

	data, err := c.rdb.Get(ctx, tallyKey).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var tally models.Tally
	if err := json.Unmarshal(data, &tally); err != nil {
		return nil, false, err
	}
	return tally, true, nil
}

func (c *RedisTallyCache) Set(ctx context.Context, tally models.Tally) error {
	if c.rdb == nil {
		return nil
	}

	data, err := json.Marshal(tally)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, tallyKey, data, c.ttl).Err()
}

func (c *RedisTallyCache) Invalidate(ctx context.Context) error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Del(ctx, tallyKey).Err()
}

func (c *RedisTallyCache) Close() error {
	if c.rdb == nil {
		return nil
	}
	return c.rdb.Close()
}

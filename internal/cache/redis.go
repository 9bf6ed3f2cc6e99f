package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/emberdate/engine/internal/config"
	"github.com/redis/go-redis/v9"
)

// admirerCountTTL bounds staleness of the cached "people who liked you" badge.
const admirerCountTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	return &RedisCache{Client: redis.NewClient(opts)}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return c.Client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) (string, error) {
	return c.Client.Get(ctx, key).Result()
}

func (c *RedisCache) Del(ctx context.Context, key string) error {
	return c.Client.Del(ctx, key).Err()
}

// Publish sends a JSON payload to subscribers of the given channel.
// Used for the matched event fan-out to the messaging layer.
func (c *RedisCache) Publish(ctx context.Context, channel string, payload []byte) error {
	return c.Client.Publish(ctx, channel, payload).Err()
}

// KeyForAdmirerCount generates the Redis key for a user's incoming-like count.
func (c *RedisCache) KeyForAdmirerCount(userID uint64) string {
	return fmt.Sprintf("admirers:count:%d", userID)
}

// SetAdmirerCount stores the count with a fresh TTL.
func (c *RedisCache) SetAdmirerCount(ctx context.Context, userID uint64, count int64) error {
	return c.Set(ctx, c.KeyForAdmirerCount(userID), count, admirerCountTTL)
}

// DropAdmirerCount invalidates the cached count. Used when the admirer list
// changes out from under the badge, e.g. by a block cascade.
func (c *RedisCache) DropAdmirerCount(ctx context.Context, userID uint64) error {
	return c.Del(ctx, c.KeyForAdmirerCount(userID))
}

// GetAdmirerCount returns (count, true) on a cache hit. TTL is refreshed on
// access so active users keep a warm badge.
func (c *RedisCache) GetAdmirerCount(ctx context.Context, userID uint64) (int64, bool, error) {
	key := c.KeyForAdmirerCount(userID)
	val, err := c.Get(ctx, key)
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	_ = c.Client.Expire(ctx, key, admirerCountTTL).Err()
	n, err := strconv.ParseInt(val, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return n, true, nil
}

// BumpAdmirerCount adjusts a warm cached count after a like write. A cold key
// is left cold: incrementing a missing key would invent a count of delta.
func (c *RedisCache) BumpAdmirerCount(ctx context.Context, userID uint64, delta int64) error {
	key := c.KeyForAdmirerCount(userID)
	exists, err := c.Client.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return err
	}
	if err := c.Client.IncrBy(ctx, key, delta).Err(); err != nil {
		return err
	}
	return c.Client.Expire(ctx, key, admirerCountTTL).Err()
}

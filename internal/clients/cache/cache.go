// Package cache is a fail-safe Redis wrapper: connectivity errors behave
// like cache misses so callers always fall through to the source.
package cache

import (
	"context"
	"errors"
	"time"

	"crypto-pulse/internal/logger"

	"github.com/redis/go-redis/v9"
)

// Client wraps redis.Client. A nil *Client is a valid, always-missing cache.
type Client struct {
	client *redis.Client
}

// New creates a Redis-backed cache. An empty addr returns nil (cache disabled).
func New(addr, password string, db int) *Client {
	if addr == "" {
		return nil
	}
	return &Client{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Get returns the stored value or nil on miss or Redis failure.
func (c *Client) Get(ctx context.Context, key string) []byte {
	if c == nil || c.client == nil {
		return nil
	}
	res, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.L().Warn("cache get failed", "key", key, "error", err)
		}
		return nil
	}
	return res
}

// Set stores value with ttl, ignoring Redis failures.
func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Set(ctx, key, value, ttl).Err(); err != nil {
		logger.L().Warn("cache set failed", "key", key, "error", err)
	}
}

// Delete removes a key, ignoring Redis failures.
func (c *Client) Delete(ctx context.Context, key string) {
	if c == nil || c.client == nil {
		return
	}
	if err := c.client.Del(ctx, key).Err(); err != nil {
		logger.L().Warn("cache delete failed", "key", key, "error", err)
	}
}

// Ping reports whether Redis answers. A disabled cache is always healthy.
func (c *Client) Ping(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

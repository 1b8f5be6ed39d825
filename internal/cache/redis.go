// Package cache owns the service's Redis access: session lookup for
// the dashboard API and the Lua token buckets behind rate limiting.
// The alert pipeline borrows the raw client for its stream calls.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache wraps a Redis client shared by the session store and the
// rate limiter.
type Cache struct {
	client *redis.Client
}

// New connects to Redis and verifies the connection.
func New(ctx context.Context, redisURL string) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Every authenticated request costs a session read plus a
	// rate-limit script call, so the pool runs larger than the
	// default.
	opt.PoolSize = 20
	opt.MinIdleConns = 4
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return &Cache{client: client}, nil
}

// Ping checks Redis connectivity. Used by the readiness probe.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client for the alert stream
// publisher and worker, which speak Streams commands directly.
func (c *Cache) Client() *redis.Client {
	return c.client
}

package idgen

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey is the counter key used when none is configured.
const DefaultRedisKey = "jsonrpc-client:request-id"

// RedisCounter allocates ids with INCR, so every process sharing the key sees unique ids.
type RedisCounter struct {
	client *redis.Client
	key    string
}

// NewRedisCounter connects to addr and checks the connection.
func NewRedisCounter(ctx context.Context, addr, key string) (*RedisCounter, error) {
	cl := redis.NewClient(&redis.Options{Addr: addr})
	if err := cl.Ping(ctx).Err(); err != nil {
		_ = cl.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisCounterFromClient(cl, key), nil
}

// NewRedisCounterFromClient uses an existing client.
func NewRedisCounterFromClient(cl *redis.Client, key string) *RedisCounter {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisCounter{client: cl, key: key}
}

func (c *RedisCounter) Next(ctx context.Context) (int64, error) {
	id, err := c.client.Incr(ctx, c.key).Result()
	if err != nil {
		return 0, fmt.Errorf("redis incr %s: %w", c.key, err)
	}
	return id, nil
}

// Close closes the Redis client.
func (c *RedisCounter) Close() error { return c.client.Close() }

// Package idgen allocates JSON-RPC request ids.
//
// Ids start at 1 and grow by exactly one per dispatched call. A Counter is owned
// by a single client; a RedisCounter lets several processes draw from one id space.
package idgen

import (
	"context"
	"sync/atomic"
)

// Generator hands out request ids. Implementations must be goroutine-safe.
type Generator interface {
	Next(ctx context.Context) (int64, error)
}

// Counter is a lock-free in-process generator. The zero value is ready to use.
type Counter struct {
	last atomic.Int64
}

// NewCounter returns a counter whose first id is 1.
func NewCounter() *Counter {
	return &Counter{}
}

func (c *Counter) Next(ctx context.Context) (int64, error) {
	return c.last.Add(1), nil
}

// Last returns the most recently issued id, or 0 if none was issued.
func (c *Counter) Last() int64 {
	return c.last.Load()
}

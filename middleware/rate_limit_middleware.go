package middleware

import (
	"context"
	"fmt"

	"golang.org/x/time/rate"

	"jsonrpc-client/rpcerr"
	"jsonrpc-client/transport"
)

// RateLimitMiddleware 创建一个基于令牌桶算法的限流中间件
// Calls over the limit are rejected with a transport error without touching the network.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (*transport.Response, error) {
			if !limiter.Allow() {
				return nil, rpcerr.Transport(fmt.Sprintf("rate limit exceeded for server %q", req.Server), nil)
			}
			return next(ctx, req)
		}
	}
}

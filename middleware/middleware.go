package middleware

import (
	"context"

	"jsonrpc-client/message"
	"jsonrpc-client/transport"
)

// Request is one outbound call as seen by the chain.
type Request struct {
	Server  string            // endpoint name
	URL     string            // endpoint URL
	Headers map[string]string // merged headers, Content-Type already forced
	Call    *message.Request  // the envelope
	Body    []byte            // the encoded envelope
}

type HandlerFunc func(ctx context.Context, req *Request) (*transport.Response, error)

type Middleware func(next HandlerFunc) HandlerFunc

// Chain 将多个中间件组合成一个中间件
func Chain(middlewares ...Middleware) Middleware {
	return func(next HandlerFunc) HandlerFunc {
		for i := len(middlewares) - 1; i >= 0; i-- {
			next = middlewares[i](next)
		}
		return next
	}
}

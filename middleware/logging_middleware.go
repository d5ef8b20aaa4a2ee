package middleware

import (
	"context"
	"time"

	"go.uber.org/zap"

	"jsonrpc-client/transport"
)

// LoggingMiddleware logs every exchange with its server, method, id, status and duration.
func LoggingMiddleware(logger *zap.Logger) Middleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *Request) (*transport.Response, error) {
			start := time.Now()
			resp, err := next(ctx, req)

			fields := []zap.Field{
				zap.String("server", req.Server),
				zap.String("method", req.Call.Method),
				zap.Int64("id", req.Call.ID),
				zap.Duration("duration", time.Since(start)),
			}
			if resp != nil {
				fields = append(fields, zap.Int("status", resp.Status))
			}
			if err != nil {
				logger.Warn("jsonrpc call failed", append(fields, zap.Error(err))...)
				return resp, err
			}
			logger.Debug("jsonrpc call", fields...)
			return resp, err
		}
	}
}

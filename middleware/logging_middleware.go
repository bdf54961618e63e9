package middleware

import (
	"context"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
)

// LoggingMiddleware records the method, duration, and any error for each
// call, using the same structured logger the rest of the core is built on
// rather than the standard log package.
func LoggingMiddleware(log rpclog.Logger) Middleware {
	if log == nil {
		log = rpclog.NoOp()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) message.SerializedMessage {
			start := time.Now()

			resp := next(ctx, req)

			duration := time.Since(start)
			if isError, errText := responseError(resp); isError {
				log.Warn("call failed", "method", string(req.Method), "duration", duration, "error", errText)
			} else {
				log.Debug("call completed", "method", string(req.Method), "duration", duration)
			}
			return resp
		}
	}
}

package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
)

// RetryMiddleware retries a failed call with exponential backoff when the
// error text suggests a transient transport problem ("timeout",
// "connection refused"), and returns immediately on any other error.
func RetryMiddleware(maxRetries int, baseDelay time.Duration, log rpclog.Logger) Middleware {
	if log == nil {
		log = rpclog.NoOp()
	}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) message.SerializedMessage {
			resp := next(ctx, req)
			for i := 0; i < maxRetries; i++ {
				isError, errText := responseError(resp)
				if !isError {
					return resp
				}
				if !strings.Contains(errText, "timeout") && !strings.Contains(errText, "connection refused") {
					return resp
				}
				log.Debug("retrying call", "method", string(req.Method), "attempt", i+1, "error", errText)
				time.Sleep(baseDelay * time.Duration(uint(1)<<uint(i)))
				resp = next(ctx, req)
			}
			return resp
		}
	}
}

package middleware

import (
	"context"

	"golang.org/x/time/rate"

	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

// RateLimitMiddleware creates a rate limiter using the token bucket algorithm.
//
// Token bucket: tokens are added at rate r per second, up to a burst size.
// Each request consumes one token. If the bucket is empty, the request is rejected.
//
// The limiter is created in the outer closure (once per middleware creation),
// not per request — a fresh limiter per call would defeat the point of rate
// limiting.
func RateLimitMiddleware(r float64, burst int) Middleware {
	limiter := rate.NewLimiter(rate.Limit(r), burst)
	ser := codec.Serializer{}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) message.SerializedMessage {
			if !limiter.Allow() {
				sm, err := ser.SerializeErrorResponse(req.ID, "rate limit exceeded")
				if err != nil {
					return message.NewSerializedMessage(nil)
				}
				return sm
			}
			return next(ctx, req)
		}
	}
}

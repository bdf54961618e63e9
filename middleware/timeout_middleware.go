package middleware

import (
	"context"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

// TimeOutMiddleware enforces a maximum duration for each call.
// If the handler doesn't complete within the timeout, it returns an error
// response immediately.
//
// The handler goroutine is NOT cancelled — it keeps running in the
// background. The timeout only controls when the caller gives up waiting;
// true cancellation would need the handler to check ctx.Done() itself.
func TimeOutMiddleware(timeout time.Duration) Middleware {
	ser := codec.Serializer{}
	return func(next HandlerFunc) HandlerFunc {
		return func(ctx context.Context, req *message.Request) message.SerializedMessage {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			done := make(chan message.SerializedMessage, 1)
			go func() {
				done <- next(ctx, req)
			}()

			select {
			case resp := <-done:
				return resp
			case <-ctx.Done():
				sm, err := ser.SerializeErrorResponse(req.ID, "request timed out")
				if err != nil {
					return message.NewSerializedMessage(nil)
				}
				return sm
			}
		}
	}
}

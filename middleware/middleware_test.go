package middleware

import (
	"context"
	"testing"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

func echoHandler(ctx context.Context, req *message.Request) message.SerializedMessage {
	sm, _ := codec.Serializer{}.SerializeSuccessfulResponse(req.ID, "ok")
	return sm
}

func slowHandler(ctx context.Context, req *message.Request) message.SerializedMessage {
	time.Sleep(200 * time.Millisecond)
	sm, _ := codec.Serializer{}.SerializeSuccessfulResponse(req.ID, "ok")
	return sm
}

func TestLogging(t *testing.T) {
	handler := LoggingMiddleware(nil)(echoHandler)

	req := &message.Request{ID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if isError, _ := responseError(resp); isError {
		t.Fatalf("expected no error response")
	}
}

func TestTimeoutPass(t *testing.T) {
	handler := TimeOutMiddleware(500 * time.Millisecond)(echoHandler)

	req := &message.Request{ID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if isError, errText := responseError(resp); isError {
		t.Fatalf("expect no error, got %q", errText)
	}
}

func TestTimeoutExceeded(t *testing.T) {
	handler := TimeOutMiddleware(50 * time.Millisecond)(slowHandler)

	req := &message.Request{ID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	isError, errText := responseError(resp)
	if !isError || errText != "request timed out" {
		t.Fatalf("expect timeout error, got isError=%v text=%q", isError, errText)
	}
}

func TestRateLimit(t *testing.T) {
	// rate=1/s, burst=2: first two pass immediately, the third is rejected.
	handler := RateLimitMiddleware(1, 2)(echoHandler)
	req := &message.Request{ID: 1, Method: "Arith.Add"}

	for i := 0; i < 2; i++ {
		resp := handler(context.Background(), req)
		if isError, errText := responseError(resp); isError {
			t.Fatalf("request %d should pass, got error: %s", i, errText)
		}
	}

	resp := handler(context.Background(), req)
	isError, errText := responseError(resp)
	if !isError || errText != "rate limit exceeded" {
		t.Fatalf("request 3 should be rate limited, got isError=%v text=%q", isError, errText)
	}
}

func TestChain(t *testing.T) {
	chained := Chain(LoggingMiddleware(nil), TimeOutMiddleware(500*time.Millisecond))
	handler := chained(echoHandler)

	req := &message.Request{ID: 1, Method: "Arith.Add"}
	resp := handler(context.Background(), req)

	if isError, errText := responseError(resp); isError {
		t.Fatalf("expect no error, got %q", errText)
	}
}

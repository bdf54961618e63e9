package client

import (
	"context"
	"testing"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

func TestCallListHandleFulfillsPromise(t *testing.T) {
	cl := NewCallList(nil)
	id, p := cl.Create()

	cl.Handle(&message.Response{ID: id, Result: message.Raw{0x2a}}, nil)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	result, err := p.Wait(ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.OK {
		t.Fatalf("expected a successful result")
	}
}

func TestCallListHandleUnknownIDIsSilentlyDropped(t *testing.T) {
	cl := NewCallList(nil)
	cl.Handle(&message.Response{ID: 999}, nil) // should not panic
	if cl.Len() != 0 {
		t.Fatalf("expected no pending calls")
	}
}

func TestCallListAbortAllFailsOutstandingCalls(t *testing.T) {
	cl := NewCallList(nil)
	_, p1 := cl.Create()
	_, p2 := cl.Create()

	cl.AbortAll(status.New(status.OperationAborted, "stopped"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for _, p := range []*Promise{p1, p2} {
		_, err := p.Wait(ctx)
		if !status.Is(err, status.OperationAborted) {
			t.Fatalf("expected OperationAborted, got %v", err)
		}
	}
	if cl.Len() != 0 {
		t.Fatalf("expected CallList drained after AbortAll")
	}
}

package methods

import (
	"context"
	"fmt"
	"testing"

	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
)

type Arith struct{}

func (Arith) Add(a, b int64) (int64, error) {
	return a + b, nil
}

func (Arith) Fail(a, b int64) (int64, error) {
	return 0, fmt.Errorf("boom")
}

func parseOneFrame(t *testing.T, sm message.SerializedMessage) *message.ParsedMessage {
	t.Helper()
	p, err := codec.NewParser(config.DefaultMessageParserConfig())
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	buf := p.PrepareBuffer()
	n := copy(buf, sm.Bytes())
	p.Consumed(n)
	msg, err := p.TryParse()
	if err != nil {
		t.Fatalf("TryParse: %v", err)
	}
	if msg == nil {
		t.Fatalf("expected a complete frame")
	}
	return msg
}

func TestProcessorCallDispatchesRegisteredMethod(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&Arith{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	p := NewProcessor(reg, nil)

	sm, err := codec.Serializer{}.SerializeRequest("Arith.Add", 1, int64(2), int64(3))
	if err != nil {
		t.Fatalf("serialize request: %v", err)
	}
	parsed := parseOneFrame(t, sm)

	resp := p.Call(context.Background(), parsed.Request)
	respMsg := parseOneFrame(t, resp)

	if respMsg.Response.IsError {
		t.Fatalf("expected success, got error response")
	}
	v, err := message.As[int64](respMsg.Response.Result)
	if err != nil || v != 5 {
		t.Fatalf("unexpected result %v err=%v", v, err)
	}
}

func TestProcessorCallUnknownMethodReturnsErrorResponse(t *testing.T) {
	reg := NewRegistry()
	p := NewProcessor(reg, nil)

	sm, err := codec.Serializer{}.SerializeRequest("Nope.Method", 1, int64(1), int64(2))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed := parseOneFrame(t, sm)

	resp := p.Call(context.Background(), parsed.Request)
	respMsg := parseOneFrame(t, resp)

	if !respMsg.Response.IsError {
		t.Fatalf("expected an error response for an unknown method")
	}
}

func TestProcessorCallHandlerErrorReturnsErrorResponse(t *testing.T) {
	reg := NewRegistry()
	if err := reg.Register(&Arith{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	p := NewProcessor(reg, nil)

	sm, err := codec.Serializer{}.SerializeRequest("Arith.Fail", 1, int64(1), int64(2))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed := parseOneFrame(t, sm)

	resp := p.Call(context.Background(), parsed.Request)
	respMsg := parseOneFrame(t, resp)

	if !respMsg.Response.IsError {
		t.Fatalf("expected an error response when the handler fails")
	}
}

func TestProcessorNotifyInvokesHandlerWithoutResponse(t *testing.T) {
	reg := NewRegistry()
	called := make(chan struct{}, 1)
	if err := reg.Register(&notifyReceiver{called: called}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	p := NewProcessor(reg, nil)

	sm, err := codec.Serializer{}.SerializeNotification("notifyReceiver.Ping", int64(1), int64(2))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	parsed := parseOneFrame(t, sm)

	p.Notify(context.Background(), parsed.Notification)

	select {
	case <-called:
	default:
		t.Fatalf("expected Ping to have been invoked")
	}
}

type notifyReceiver struct{ called chan struct{} }

func (r *notifyReceiver) Ping(a, b int64) (int64, error) {
	r.called <- struct{}{}
	return 0, nil
}

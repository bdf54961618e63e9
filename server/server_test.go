package server

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/codec"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/executor"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/transport"
)

func newExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	e, err := executor.New(config.ExecutorConfig{TransportThreads: 2, CallbackThreads: 2})
	if err != nil {
		t.Fatalf("executor.New: %v", err)
	}
	go e.Run(context.Background())
	return e
}

type Arith struct{}

func (Arith) Add(a, b int64) (int64, error) { return a + b, nil }

func TestServerCallRoundTrip(t *testing.T) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ex := newExecutor(t)
	s := New(ex, config.DefaultMessageParserConfig(), nil)
	if err := s.Register(&Arith{}); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := s.Listen(context.Background(), ln); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Stop()

	tcpAddr := s.Addresses()[0].(address.TCP)

	conn, err := transport.DialSocket(net.Dial, "tcp", tcpAddr.HostPort())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Shutdown()

	sm, err := codec.Serializer{}.SerializeRequest("Arith.Add", 1, int64(2), int64(3))
	if err != nil {
		t.Fatalf("serialize request: %v", err)
	}
	if err := conn.WriteAll(sm.Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := codec.NewParser(config.DefaultMessageParserConfig())
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}

	var resp *message.ParsedMessage
	deadline := time.Now().Add(3 * time.Second)
	for resp == nil {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for response")
		}
		buf := p.PrepareBuffer()
		n, err := conn.ReadSome(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		p.Consumed(n)
		resp, err = p.TryParse()
		if err != nil {
			t.Fatalf("TryParse: %v", err)
		}
	}

	if resp.Response.IsError {
		t.Fatalf("expected success, got error response")
	}
	v, err := message.As[int64](resp.Response.Result)
	if err != nil || v != 5 {
		t.Fatalf("unexpected result %v err=%v", v, err)
	}
}

func TestServerUnknownMethodReturnsErrorResponse(t *testing.T) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ex := newExecutor(t)
	s := New(ex, config.DefaultMessageParserConfig(), nil)
	if err := s.Listen(context.Background(), ln); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer s.Stop()

	tcpAddr := s.Addresses()[0].(address.TCP)
	conn, err := transport.DialSocket(net.Dial, "tcp", tcpAddr.HostPort())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Shutdown()

	sm, err := codec.Serializer{}.SerializeRequest("Nope.Method", 1, int64(1))
	if err != nil {
		t.Fatalf("serialize: %v", err)
	}
	if err := conn.WriteAll(sm.Bytes()); err != nil {
		t.Fatalf("write: %v", err)
	}

	p, err := codec.NewParser(config.DefaultMessageParserConfig())
	if err != nil {
		t.Fatalf("NewParser: %v", err)
	}
	var resp *message.ParsedMessage
	deadline := time.Now().Add(3 * time.Second)
	for resp == nil {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for response")
		}
		buf := p.PrepareBuffer()
		n, err := conn.ReadSome(buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		p.Consumed(n)
		resp, err = p.TryParse()
		if err != nil {
			t.Fatalf("TryParse: %v", err)
		}
	}
	if !resp.Response.IsError {
		t.Fatalf("expected an error response for an unknown method")
	}
}

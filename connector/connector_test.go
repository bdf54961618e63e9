package connector

import (
	"context"
	"testing"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/executor"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
	"github.com/msgpack-rpc/msgpackrpc-go/transport"
)

func newExecutor(t *testing.T) *executor.Executor {
	t.Helper()
	e, err := executor.New(config.ExecutorConfig{TransportThreads: 2, CallbackThreads: 1})
	if err != nil {
		t.Fatalf("executor.New: %v", err)
	}
	go e.Run(context.Background())
	return e
}

func TestConnectSucceeds(t *testing.T) {
	ln, err := transport.ListenTCP("127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		sock, err := ln.Accept()
		if err == nil {
			defer sock.Shutdown()
		}
	}()

	ex := newExecutor(t)
	c := New(ex, config.DefaultMessageParserConfig(), nil, time.Second)

	tcp := ln.LocalAddress().(address.TCP)
	conn, err := c.Connect(context.Background(), tcp, connection.Callbacks{})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	defer conn.Close()
	if conn.State() != connection.Processing {
		t.Fatalf("expected Processing, got %v", conn.State())
	}
}

func TestConnectFailureIsConnectionFailure(t *testing.T) {
	ex := newExecutor(t)
	c := New(ex, config.DefaultMessageParserConfig(), nil, 200*time.Millisecond)

	// Port 1 is reserved and should refuse immediately on loopback.
	addr := address.TCP{Host: "127.0.0.1", Port: 1}
	_, err := c.Connect(context.Background(), addr, connection.Callbacks{})
	if !status.Is(err, status.ConnectionFailure) {
		t.Fatalf("expected ConnectionFailure, got %v", err)
	}
}

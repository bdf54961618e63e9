// Package server implements the Server core (§4.7): one or more Acceptors
// feeding a shared MethodProcessor through a middleware chain, generalizing
// the teacher's single-listener Server (server/server.go) to multiple
// listening endpoints (TCP and Unix) sharing one service registry and one
// executor.
package server

import (
	"context"
	"sync"

	"github.com/msgpack-rpc/msgpackrpc-go/acceptor"
	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/executor"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/methods"
	"github.com/msgpack-rpc/msgpackrpc-go/middleware"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
	"github.com/msgpack-rpc/msgpackrpc-go/transport"
)

// Server owns a set of Acceptors and the method dispatch behind them. All
// accepted connections across all listeners share one Registry, one
// middleware chain, and one Executor, matching the teacher's one-process,
// one-service-map model generalized to several transports.
type Server struct {
	ex        *executor.Executor
	registry  *methods.Registry
	log       rpclog.Logger
	parserCfg config.MessageParserConfig

	mu          sync.Mutex
	middlewares []middleware.Middleware
	handler     middleware.HandlerFunc
	processor   methods.Processor

	acceptors []*acceptor.Acceptor
}

// New builds a Server over an already-running Executor. Register services
// and middleware before calling Listen/Start.
func New(ex *executor.Executor, parserCfg config.MessageParserConfig, log rpclog.Logger) *Server {
	if log == nil {
		log = rpclog.NoOp()
	}
	return &Server{
		ex:        ex,
		registry:  methods.NewRegistry(),
		log:       log,
		parserCfg: parserCfg,
	}
}

// Register registers a service receiver's exported positional-argument
// methods for dispatch, per methods.Registry.Register.
func (s *Server) Register(rcvr any) error {
	return s.registry.Register(rcvr)
}

// Use appends a middleware to the chain wrapping every Call. Must be called
// before Listen; the chain is built once, the way the teacher builds its
// handler chain once in Serve rather than per request.
func (s *Server) Use(mw middleware.Middleware) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.middlewares = append(s.middlewares, mw)
}

// Listen binds a new listening endpoint and starts accepting connections on
// it immediately, reusing the Server's shared processor and executor. It
// may be called more than once to serve several addresses (e.g. a TCP
// endpoint and a Unix-socket endpoint) from the same Server.
func (s *Server) Listen(ctx context.Context, ln transport.Listener) error {
	s.mu.Lock()
	if s.handler == nil {
		s.processor = methods.NewProcessor(s.registry, s.log)
		s.handler = middleware.Chain(s.middlewares...)(processorHandler(s.processor))
	}
	handler, processor := s.handler, s.processor
	s.mu.Unlock()

	a := acceptor.New(ln, s.ex, s.parserCfg, s.log)
	s.mu.Lock()
	s.acceptors = append(s.acceptors, a)
	s.mu.Unlock()

	return a.Start(ctx, func(c *connection.Connection) connection.Callbacks {
		sc := newServerConnection(c, handler, processor, s.ex, s.log)
		return connection.Callbacks{
			OnReceived: sc.onReceived,
			OnClosed:   sc.onClosed,
		}
	})
}

// Addresses reports the bound endpoint of every live listener, in the order
// Listen was called.
func (s *Server) Addresses() []address.Address {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]address.Address, 0, len(s.acceptors))
	for _, a := range s.acceptors {
		out = append(out, a.LocalAddress())
	}
	return out
}

// Stop stops every Acceptor, transitively closing all accepted connections.
// Idempotent (Acceptor.Stop is idempotent).
func (s *Server) Stop() {
	s.mu.Lock()
	acceptors := append([]*acceptor.Acceptor(nil), s.acceptors...)
	s.mu.Unlock()
	for _, a := range acceptors {
		a.Stop()
	}
}

// Wait blocks until every Acceptor's accept loop has exited.
func (s *Server) Wait() {
	s.mu.Lock()
	acceptors := append([]*acceptor.Acceptor(nil), s.acceptors...)
	s.mu.Unlock()
	for _, a := range acceptors {
		a.Wait()
	}
}

// processorHandler adapts a methods.Processor's Call into the innermost
// middleware.HandlerFunc of the chain, mirroring the teacher's businessHandler
// as the terminal link in Chain(middlewares...)(businessHandler).
func processorHandler(p methods.Processor) middleware.HandlerFunc {
	return func(ctx context.Context, req *message.Request) message.SerializedMessage {
		return p.Call(ctx, req)
	}
}

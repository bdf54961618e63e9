// Package acceptor implements Acceptor (§4.3): a listening endpoint that
// wraps every accepted socket in a connection.Connection and hands it to a
// caller-supplied callback. Its own lifecycle mirrors Connection's, grounded
// on the teacher's accept-loop in server/server.go generalized to work over
// transport.Listener instead of a bare net.Listener, so it accepts both TCP
// and Unix endpoints identically.
package acceptor

import (
	"context"
	"os"
	"sync"
	"sync/atomic"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/executor"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
	"github.com/msgpack-rpc/msgpackrpc-go/transport"
)

// State mirrors connection.State's four-stage lifecycle (§4.3: "Acceptor's
// own state machine mirrors Connection's").
type State int32

const (
	Init State = iota
	Starting
	Processing
	Stopped
)

// Acceptor owns a transport.Listener and the connections it has accepted.
type Acceptor struct {
	ln        transport.Listener
	ex        *executor.Executor
	parserCfg config.MessageParserConfig
	log       rpclog.Logger

	state     atomic.Int32
	stopOnce  sync.Once
	closeDone chan struct{}

	mu    sync.Mutex
	conns map[*connection.Connection]struct{}
}

// New wraps an already-bound Listener.
func New(ln transport.Listener, ex *executor.Executor, parserCfg config.MessageParserConfig, log rpclog.Logger) *Acceptor {
	if log == nil {
		log = rpclog.NoOp()
	}
	a := &Acceptor{
		ln:        ln,
		ex:        ex,
		parserCfg: parserCfg,
		log:       log,
		conns:     make(map[*connection.Connection]struct{}),
		closeDone: make(chan struct{}),
	}
	a.state.Store(int32(Init))
	return a
}

// LocalAddress reports the bound endpoint.
func (a *Acceptor) LocalAddress() address.Address { return a.ln.LocalAddress() }

// Start enters Processing and loops Accept. Each accepted socket is wrapped
// in a not-yet-started Connection and handed to onConnection, which returns
// the Callbacks to start it with — this lets the caller build a
// ServerConnection that closes over the real Connection reference before
// any message can arrive. Calling Start twice fails with
// PreconditionNotMet.
func (a *Acceptor) Start(ctx context.Context, onConnection func(*connection.Connection) connection.Callbacks) error {
	if !a.state.CompareAndSwap(int32(Init), int32(Starting)) {
		return status.Newf(status.PreconditionNotMet, "acceptor: Start called from unexpected state")
	}
	a.state.Store(int32(Processing))

	a.ex.Spawn(func(context.Context) {
		defer close(a.closeDone)
		for {
			sock, err := a.ln.Accept()
			if err != nil {
				if State(a.state.Load()) == Stopped {
					return
				}
				a.log.Debug("accept failed", "error", err)
				return
			}

			conn, err := connection.New(sock, a.parserCfg, a.ex, a.log)
			if err != nil {
				a.log.Warn("failed to build connection for accepted socket", "error", err)
				_ = sock.Shutdown()
				continue
			}
			a.track(conn)

			var cb connection.Callbacks
			if onConnection != nil {
				cb = onConnection(conn)
			}
			userOnClosed := cb.OnClosed
			cb.OnClosed = func(err error) {
				a.Untrack(conn)
				if userOnClosed != nil {
					userOnClosed(err)
				}
			}

			if err := conn.Start(ctx, cb); err != nil {
				a.log.Warn("failed to start accepted connection", "error", err)
			}
		}
	})
	return nil
}

func (a *Acceptor) track(c *connection.Connection) {
	a.mu.Lock()
	a.conns[c] = struct{}{}
	a.mu.Unlock()
}

// Untrack removes a closed connection from the accepted-connection set.
// Start's OnClosed wrapper already calls it for every accepted connection,
// so Stop only closes connections that are still open.
func (a *Acceptor) Untrack(c *connection.Connection) {
	a.mu.Lock()
	delete(a.conns, c)
	a.mu.Unlock()
}

// Stop cancels the accept loop, closes the listener, closes every accepted
// connection, and — for a Unix-socket Acceptor — unlinks the socket path.
// Idempotent.
func (a *Acceptor) Stop() {
	a.stopOnce.Do(func() {
		a.state.Store(int32(Stopped))
		_ = a.ln.Close()

		a.mu.Lock()
		conns := make([]*connection.Connection, 0, len(a.conns))
		for c := range a.conns {
			conns = append(conns, c)
		}
		a.conns = make(map[*connection.Connection]struct{})
		a.mu.Unlock()

		for _, c := range conns {
			c.Close()
		}

		if path, ok := transport.UnixSocketPath(a.ln); ok && path != "" {
			_ = os.Remove(path)
		}
	})
}

// Wait blocks until the accept loop has exited, used by tests and by Server
// to join on shutdown.
func (a *Acceptor) Wait() { <-a.closeDone }

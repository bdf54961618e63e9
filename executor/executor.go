// Package executor implements the two logical task pools the core is built
// on (§4.5): Transport (socket I/O and codec work) and Callback (user
// method bodies, request continuations, connection callbacks). This
// generalizes the teacher's ad-hoc goroutine-per-task style
// (`go svr.handleRequest(...)`, `go transport.recvLoop()`,
// `go svr.handleConn(conn)`) into a reusable, stoppable primitive with a
// bounded worker count per context, supervised by
// golang.org/x/sync/errgroup the way this pack's marmos91-dittofs
// dependency tree uses it to manage goroutine groups with shared
// cancellation. Post's pools are for short-lived tasks only; a loop that
// blocks for a connection's or listener's lifetime goes through Spawn
// instead, on its own dedicated goroutine, the way the teacher's recvLoop
// and handleConn never shared a pool with anything else.
package executor

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/msgpack-rpc/msgpackrpc-go/config"
)

// Context names the two logical task pools (§4.5).
type Context int

const (
	Transport Context = iota
	Callback
)

func (c Context) String() string {
	if c == Callback {
		return "callback"
	}
	return "transport"
}

type pool struct {
	tasks chan func(context.Context)
}

// Executor drives the Transport and Callback contexts. post is
// thread-safe; submissions to a context with exactly one worker are
// serialized in submission order (§4.5).
type Executor struct {
	cfg    config.ExecutorConfig
	pools  [2]*pool
	group  *errgroup.Group
	ctx    context.Context
	cancel context.CancelFunc
}

// New builds an Executor from cfg but does not start its workers — call
// Run for that.
func New(cfg config.ExecutorConfig) (*Executor, error) {
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	e := &Executor{
		cfg: cfg,
		pools: [2]*pool{
			Transport: {tasks: make(chan func(context.Context), 256)},
			Callback:  {tasks: make(chan func(context.Context), 256)},
		},
	}
	return e, nil
}

// Run starts all worker goroutines for both contexts and blocks until Stop
// is called or a worker returns a fatal error. The caller typically calls
// Run in its own goroutine.
func (e *Executor) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	e.ctx = ctx
	e.cancel = cancel
	g, gctx := errgroup.WithContext(ctx)
	e.group = g

	spawn := func(c Context, workers int) {
		p := e.pools[c]
		for i := 0; i < workers; i++ {
			g.Go(func() error {
				for {
					select {
					case <-gctx.Done():
						return nil
					case task, ok := <-p.tasks:
						if !ok {
							return nil
						}
						task(gctx)
					}
				}
			})
		}
	}
	spawn(Transport, e.cfg.TransportThreads)
	spawn(Callback, e.cfg.CallbackThreads)

	return g.Wait()
}

// Post schedules fn on the given context's worker pool. Post never blocks
// the caller on task completion; it only blocks briefly if the pool's
// internal queue is momentarily full.
//
// Post is for short-lived work: a pool has a fixed number of workers, and a
// fn that never returns (an accept loop, a connection's read loop) parks
// that worker forever, permanently shrinking the pool by one. Use Spawn for
// anything that blocks for the life of a connection or listener.
func (e *Executor) Post(c Context, fn func(context.Context)) {
	e.pools[c].tasks <- fn
}

// Spawn runs fn on its own dedicated goroutine rather than a pool worker,
// the way the teacher starts its blocking loops directly
// (`go transport.recvLoop()`, `go svr.handleConn(conn)`) instead of handing
// them to a bounded pool. Accept loops and read loops must use Spawn, not
// Post: Post's pools have a fixed worker count, and a blocking fn posted
// there never gives the worker back, so it can starve out the short-lived
// tasks (like outbound writes) the pool also has to run.
func (e *Executor) Spawn(fn func(context.Context)) {
	go fn(context.Background())
}

// Stop signals every worker to exit after finishing its current task. It
// does not wait for Run to return; callers that need that can wait on Run's
// error channel/goroutine themselves.
func (e *Executor) Stop() {
	if e.cancel != nil {
		e.cancel()
	}
}

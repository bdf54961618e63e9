package client

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/connector"
	"github.com/msgpack-rpc/msgpackrpc-go/message"
	"github.com/msgpack-rpc/msgpackrpc-go/resolver"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
	"github.com/msgpack-rpc/msgpackrpc-go/rpcuri"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// AddressSelector orders (or filters) resolved candidate addresses before
// the ClientConnector tries them in sequence — the "Address selection"
// addition (local ordering only, not cluster discovery). The adapted
// loadbalance package's strategies implement this.
type AddressSelector interface {
	Order(candidates []address.Address) []address.Address
}

// identitySelector leaves resolver order untouched — the zero-value default.
type identitySelector struct{}

func (identitySelector) Order(c []address.Address) []address.Address { return c }

// ClientConnector maintains at most one live Connection across an ordered
// list of server URIs, reconnecting with bounded exponential backoff and
// jitter on failure or disconnection (§4.6).
type ClientConnector struct {
	uris     []rpcuri.URI
	resolve  resolver.Resolver
	dial     *connector.Connector
	selector AddressSelector
	cfg      config.ReconnectConfig
	log      rpclog.Logger

	onMessage func(*message.ParsedMessage)
	sender    *MessageSender

	stopped atomic.Bool
	stopCh  chan struct{}

	mu   sync.Mutex
	conn *connection.Connection
}

// NewClientConnector builds a ClientConnector. selector may be nil, which
// keeps the resolver's own candidate order.
func NewClientConnector(uris []rpcuri.URI, resolve resolver.Resolver, dial *connector.Connector, selector AddressSelector, cfg config.ReconnectConfig, log rpclog.Logger, sender *MessageSender, onMessage func(*message.ParsedMessage)) *ClientConnector {
	if selector == nil {
		selector = identitySelector{}
	}
	if log == nil {
		log = rpclog.NoOp()
	}
	return &ClientConnector{
		uris: uris, resolve: resolve, dial: dial, selector: selector,
		cfg: cfg, log: log, sender: sender, onMessage: onMessage,
		stopCh: make(chan struct{}),
	}
}

// Start spawns the background reconnect loop.
func (cc *ClientConnector) Start(ctx context.Context) {
	go cc.run(ctx)
}

// Stop halts reconnection attempts and closes the current connection, if
// any.
func (cc *ClientConnector) Stop() {
	if cc.stopped.CompareAndSwap(false, true) {
		close(cc.stopCh)
	}
	cc.mu.Lock()
	conn := cc.conn
	cc.conn = nil
	cc.mu.Unlock()
	if conn != nil {
		conn.Close()
	}
	cc.sender.SetConnection(nil)
}

func (cc *ClientConnector) run(ctx context.Context) {
	delay := cc.cfg.InitialDelay
	for {
		if cc.stopped.Load() || ctx.Err() != nil {
			return
		}

		closed := make(chan struct{})
		conn, err := cc.tryConnectOnce(ctx, closed)
		if err != nil {
			cc.log.Debug("client connect attempt failed", "error", err)
			if !cc.sleep(ctx, jitter(delay)) {
				return
			}
			delay = nextDelay(delay, cc.cfg)
			continue
		}

		delay = cc.cfg.InitialDelay
		cc.mu.Lock()
		cc.conn = conn
		cc.mu.Unlock()
		cc.sender.SetConnection(conn)

		select {
		case <-closed:
		case <-cc.stopCh:
			return
		case <-ctx.Done():
			return
		}

		cc.mu.Lock()
		cc.conn = nil
		cc.mu.Unlock()
		cc.sender.SetConnection(nil)
	}
}

// tryConnectOnce resolves every configured URI in order, orders each URI's
// candidates with the selector, and attempts to connect to each candidate
// in turn, returning the first success.
func (cc *ClientConnector) tryConnectOnce(ctx context.Context, closed chan struct{}) (*connection.Connection, error) {
	var lastErr error
	for _, u := range cc.uris {
		candidates, err := cc.resolve.Resolve(ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		for _, addr := range cc.selector.Order(candidates) {
			conn, err := cc.dial.Connect(ctx, addr, connection.Callbacks{
				OnReceived: cc.onMessage,
				OnSent:     cc.sender.Sent,
				OnClosed:   func(error) { close(closed) },
			})
			if err != nil {
				lastErr = err
				continue
			}
			return conn, nil
		}
	}
	if lastErr == nil {
		lastErr = status.New(status.ConnectionFailure, "no server URIs configured")
	}
	return nil, lastErr
}

func (cc *ClientConnector) sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-cc.stopCh:
		return false
	case <-ctx.Done():
		return false
	}
}

func nextDelay(d time.Duration, cfg config.ReconnectConfig) time.Duration {
	next := time.Duration(float64(d) * cfg.Multiplier)
	if next > cfg.MaxDelay {
		next = cfg.MaxDelay
	}
	return next
}

// jitter scales d by a random factor in [0.5, 1.5) so many clients reconnecting to
// the same address don't retry in lockstep.
func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return d
	}
	factor := 0.5 + rand.Float64()
	return time.Duration(float64(d) * factor)
}

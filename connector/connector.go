// Package connector implements Connector (§4.4): attempting to establish a
// Connection to a given Address. The client core (package client) layers
// retry/backoff on top of this.
package connector

import (
	"context"
	"net"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/config"
	"github.com/msgpack-rpc/msgpackrpc-go/connection"
	"github.com/msgpack-rpc/msgpackrpc-go/executor"
	"github.com/msgpack-rpc/msgpackrpc-go/rpclog"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
	"github.com/msgpack-rpc/msgpackrpc-go/transport"
)

// Connector dials a single Address and wraps the resulting socket in a
// connection.Connection.
type Connector struct {
	ex        *executor.Executor
	parserCfg config.MessageParserConfig
	log       rpclog.Logger
	dialer    net.Dialer
}

// New builds a Connector. timeout bounds each individual dial attempt; zero
// means no timeout.
func New(ex *executor.Executor, parserCfg config.MessageParserConfig, log rpclog.Logger, timeout time.Duration) *Connector {
	if log == nil {
		log = rpclog.NoOp()
	}
	return &Connector{ex: ex, parserCfg: parserCfg, log: log, dialer: net.Dialer{Timeout: timeout}}
}

// Connect dials addr and, on success, builds and starts a Connection with
// cb wired as its callbacks. It never returns both a non-nil error and a
// non-nil Connection.
func (c *Connector) Connect(ctx context.Context, addr address.Address, cb connection.Callbacks) (*connection.Connection, error) {
	var sock transport.Socket

	if shmAddr, ok := addr.(address.Shm); ok {
		s, err := transport.DialShm(ctx, shmAddr.Name)
		if err != nil {
			return nil, err
		}
		sock = s
	} else {
		network, dialAddr, err := dialTarget(addr)
		if err != nil {
			return nil, err
		}

		conn, err := c.dialer.DialContext(ctx, network, dialAddr)
		if err != nil {
			return nil, status.Wrap(status.ConnectionFailure, err)
		}

		if network == "unix" {
			sock = transport.NewUnixSocket(conn)
		} else {
			sock = transport.NewTCPSocket(conn)
		}
	}

	cxn, err := connection.New(sock, c.parserCfg, c.ex, c.log)
	if err != nil {
		_ = sock.Shutdown()
		return nil, err
	}
	if err := cxn.Start(ctx, cb); err != nil {
		_ = sock.Shutdown()
		return nil, err
	}
	return cxn, nil
}

func dialTarget(addr address.Address) (network, dialAddr string, err error) {
	switch a := addr.(type) {
	case address.TCP:
		return "tcp", a.HostPort(), nil
	case address.Unix:
		return "unix", a.Path, nil
	default:
		return "", "", status.Newf(status.InvalidArgument, "connector: unsupported address kind %v", addr.Kind())
	}
}

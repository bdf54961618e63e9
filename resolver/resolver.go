// Package resolver implements Resolver (§4.4): turning a URI into zero or
// more candidate Addresses. DNS lookups back the TCP case; Unix and Shm
// URIs resolve trivially to a single Address since they already name their
// endpoint directly.
package resolver

import (
	"context"
	"net"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/rpcuri"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// Resolver turns a URI into an ordered list of candidate Addresses.
type Resolver interface {
	Resolve(ctx context.Context, u rpcuri.URI) ([]address.Address, error)
}

// LookupFunc matches net.DefaultResolver.LookupIPAddr's signature, so tests
// can substitute a fake without touching the network.
type LookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

type resolver struct {
	lookup LookupFunc
}

// New builds a Resolver backed by the system DNS resolver.
func New() Resolver {
	return resolver{lookup: net.DefaultResolver.LookupIPAddr}
}

// NewWithLookup builds a Resolver backed by a caller-supplied lookup
// function, for tests.
func NewWithLookup(lookup LookupFunc) Resolver {
	return resolver{lookup: lookup}
}

func (r resolver) Resolve(ctx context.Context, u rpcuri.URI) ([]address.Address, error) {
	switch u.Scheme {
	case rpcuri.SchemeUnix, rpcuri.SchemeShm:
		a, err := address.FromURI(u)
		if err != nil {
			return nil, status.Wrap(status.HostUnresolved, err)
		}
		return []address.Address{a}, nil

	case rpcuri.SchemeTCP:
		ips, err := r.lookup(ctx, u.HostOrPath)
		if err != nil {
			return nil, status.Wrap(status.HostUnresolved, err)
		}
		if len(ips) == 0 {
			return nil, status.Newf(status.HostUnresolved, "no addresses for host %q", u.HostOrPath)
		}
		out := make([]address.Address, 0, len(ips))
		for _, ip := range ips {
			out = append(out, address.TCP{
				Host: ip.IP.String(),
				Port: u.Port,
				IPv6: ip.IP.To4() == nil,
			})
		}
		return out, nil

	default:
		return nil, status.Newf(status.HostUnresolved, "unresolvable scheme %q", u.Scheme)
	}
}

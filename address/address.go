// Package address implements the tagged-variant Address type (§3): Tcp,
// Unix, or Shm. Addresses are plain values — cheap to copy, structurally
// comparable — grounded on the original cpp-msgpack-rpc address variants
// (addresses/tcp_address.h, posix_shared_memory_address.h,
// unix_socket_address.h) and expressed the idiomatic Go way as a small
// closed interface instead of a tagged union.
package address

import (
	"fmt"

	"github.com/msgpack-rpc/msgpackrpc-go/rpcuri"
)

// Kind identifies which Address variant a value holds.
type Kind int

const (
	KindTCP Kind = iota
	KindUnix
	KindShm
)

func (k Kind) String() string {
	switch k {
	case KindTCP:
		return "tcp"
	case KindUnix:
		return "unix"
	case KindShm:
		return "shm"
	default:
		return "unknown"
	}
}

// Address is implemented by TCP, Unix, and Shm. It round-trips to a URI and
// has a display form, per §3.
type Address interface {
	Kind() Kind
	URI() rpcuri.URI
	String() string
	Network() string // net.Addr-style network name, e.g. "tcp", "unix"
}

// TCP is a host/port Address.
type TCP struct {
	Host string
	Port uint16
	IPv6 bool
}

func (a TCP) Kind() Kind { return KindTCP }

func (a TCP) URI() rpcuri.URI {
	return rpcuri.URI{Scheme: rpcuri.SchemeTCP, HostOrPath: a.Host, Port: a.Port, IsIPv6Bracketed: a.IPv6}
}

func (a TCP) String() string { return a.URI().String() }

func (a TCP) Network() string { return "tcp" }

// HostPort renders "host:port" (or "[host]:port" for bracketed IPv6), the
// form net.Dial and net.Listen expect.
func (a TCP) HostPort() string {
	if a.IPv6 {
		return fmt.Sprintf("[%s]:%d", a.Host, a.Port)
	}
	return fmt.Sprintf("%s:%d", a.Host, a.Port)
}

// Unix is a filesystem-path Address.
type Unix struct {
	Path string
}

func (a Unix) Kind() Kind          { return KindUnix }
func (a Unix) URI() rpcuri.URI     { return rpcuri.URI{Scheme: rpcuri.SchemeUnix, HostOrPath: a.Path} }
func (a Unix) String() string      { return a.URI().String() }
func (a Unix) Network() string     { return "unix" }

// Shm is a POSIX-shared-memory-region-name Address.
type Shm struct {
	Name string
}

func (a Shm) Kind() Kind      { return KindShm }
func (a Shm) URI() rpcuri.URI { return rpcuri.URI{Scheme: rpcuri.SchemeShm, HostOrPath: a.Name} }
func (a Shm) String() string  { return a.URI().String() }
func (a Shm) Network() string { return "shm" }

// Equal reports structural equality between two Address values of
// (possibly) different concrete types.
func Equal(a, b Address) bool {
	if a.Kind() != b.Kind() {
		return false
	}
	return a.URI() == b.URI()
}

// FromURI builds the Address variant named by a parsed URI. TCP URIs that
// name a hostname rather than a literal IP still produce a TCP Address;
// resolving the hostname to one or more IPs is the Resolver's job (§4.4),
// not this constructor's.
func FromURI(u rpcuri.URI) (Address, error) {
	switch u.Scheme {
	case rpcuri.SchemeTCP:
		return TCP{Host: u.HostOrPath, Port: u.Port, IPv6: u.IsIPv6Bracketed}, nil
	case rpcuri.SchemeUnix:
		return Unix{Path: u.HostOrPath}, nil
	case rpcuri.SchemeShm:
		return Shm{Name: u.HostOrPath}, nil
	default:
		return nil, fmt.Errorf("address: unrecognized scheme %q", u.Scheme)
	}
}

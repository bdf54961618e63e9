// Package transport implements the byte-stream socket abstraction the
// Connection state machine is built on (§4.2, §9: "collapse TCP/Unix
// behind one stream-socket interface instead of per-transport template
// instantiation"). It generalizes the teacher's ClientTransport, which
// hard-codes net.Conn and reads/writes length-prefixed frames itself, into a
// thinner Socket that only knows how to move bytes; framing now belongs to
// codec.Parser and codec.Serializer.
package transport

import (
	"net"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// Socket is the polymorphic transport surface a Connection drives: a
// blocking partial read, a blocking full write, a one-shot shutdown, and
// endpoint queries (§4.2). "Async" in the spec maps to Go's usual idiom of
// calling these blocking operations from a dedicated goroutine rather than
// a callback-based async API; Connection supplies that goroutine.
type Socket interface {
	// ReadSome performs at most one underlying read into buf and returns the
	// number of bytes read. It blocks until some data, EOF, or an error.
	ReadSome(buf []byte) (int, error)

	// WriteAll writes the entirety of data, blocking until done or an error.
	WriteAll(data []byte) error

	// Shutdown closes the socket. Safe to call more than once.
	Shutdown() error

	// LocalAddress and RemoteAddress report this socket's endpoints.
	LocalAddress() address.Address
	RemoteAddress() address.Address
}

// netSocket adapts a net.Conn (TCP or Unix stream) to Socket.
type netSocket struct {
	conn net.Conn
	kind address.Kind
}

// NewTCPSocket wraps a connected TCP net.Conn.
func NewTCPSocket(conn net.Conn) Socket { return &netSocket{conn: conn, kind: address.KindTCP} }

// NewUnixSocket wraps a connected Unix-domain net.Conn.
func NewUnixSocket(conn net.Conn) Socket { return &netSocket{conn: conn, kind: address.KindUnix} }

func (s *netSocket) ReadSome(buf []byte) (int, error) { return s.conn.Read(buf) }

func (s *netSocket) WriteAll(data []byte) error {
	for len(data) > 0 {
		n, err := s.conn.Write(data)
		if err != nil {
			return err
		}
		data = data[n:]
	}
	return nil
}

func (s *netSocket) Shutdown() error { return s.conn.Close() }

func (s *netSocket) LocalAddress() address.Address  { return addrFromNet(s.kind, s.conn.LocalAddr()) }
func (s *netSocket) RemoteAddress() address.Address { return addrFromNet(s.kind, s.conn.RemoteAddr()) }

func addrFromNet(kind address.Kind, a net.Addr) address.Address {
	switch v := a.(type) {
	case *net.TCPAddr:
		return address.TCP{Host: v.IP.String(), Port: uint16(v.Port), IPv6: v.IP.To4() == nil}
	case *net.UnixAddr:
		return address.Unix{Path: v.Name}
	default:
		if kind == address.KindUnix {
			return address.Unix{Path: a.String()}
		}
		return address.TCP{Host: a.String()}
	}
}

// Dialer opens a Socket to a resolved Address. TCP and Unix share this
// signature; Connector (§4.4) selects which network a given Address needs.
type Dialer func(network, addr string) (net.Conn, error)

// DialSocket connects to addr over network ("tcp" or "unix") using dial and
// wraps the resulting connection as a Socket.
func DialSocket(dial Dialer, network, addr string) (Socket, error) {
	conn, err := dial(network, addr)
	if err != nil {
		return nil, err
	}
	if network == "unix" {
		return NewUnixSocket(conn), nil
	}
	return NewTCPSocket(conn), nil
}

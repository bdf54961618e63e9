package transport

import (
	"net"
	"os"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// Listener accepts Sockets on a bound local endpoint. Acceptor (§4.3) drives
// this; it does not know whether the underlying network is "tcp" or
// "unix".
type Listener interface {
	Accept() (Socket, error)
	Close() error
	LocalAddress() address.Address
}

type netListener struct {
	ln   net.Listener
	kind address.Kind
}

// ListenTCP binds a TCP listener on hostPort (e.g. "0.0.0.0:6379").
func ListenTCP(hostPort string) (Listener, error) {
	ln, err := net.Listen("tcp", hostPort)
	if err != nil {
		return nil, err
	}
	return &netListener{ln: ln, kind: address.KindTCP}, nil
}

// ListenUnix binds a Unix-domain listener at path. Any stale socket file
// left by a prior crashed process is removed first, matching the
// fail-then-unlink-then-retry dance most Unix RPC servers do.
func ListenUnix(path string) (Listener, error) {
	if _, err := os.Stat(path); err == nil {
		_ = os.Remove(path)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	return &netListener{ln: ln, kind: address.KindUnix}, nil
}

func (l *netListener) Accept() (Socket, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	if l.kind == address.KindUnix {
		return NewUnixSocket(conn), nil
	}
	return NewTCPSocket(conn), nil
}

func (l *netListener) Close() error { return l.ln.Close() }

func (l *netListener) LocalAddress() address.Address {
	return addrFromNet(l.kind, l.ln.Addr())
}

// UnixSocketPath returns the filesystem path for a Unix listener's address,
// used to unlink the socket file on Stop (§4.3).
func UnixSocketPath(l Listener) (string, bool) {
	a, ok := l.LocalAddress().(address.Unix)
	if !ok {
		return "", false
	}
	return a.Path, true
}

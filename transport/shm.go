package transport

import (
	"context"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/shm"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// shmListener adapts *shm.Listener to the Listener interface: shm itself
// does not import this package (to avoid a cycle, since shm.Socket
// structurally satisfies Socket without needing to import it), so this
// thin wrapper is where the two meet.
type shmListener struct {
	l *shm.Listener
}

// ListenShm creates (and transitions to Running) a server shared-memory
// region named name under shm.DefaultDir.
func ListenShm(name string) (Listener, error) {
	l, err := shm.Listen("", name)
	if err != nil {
		return nil, err
	}
	return &shmListener{l: l}, nil
}

func (s *shmListener) Accept() (Socket, error) {
	sock, err := s.l.Accept()
	if err != nil {
		return nil, err
	}
	return sock, nil
}

func (s *shmListener) Close() error { return s.l.Close() }

func (s *shmListener) LocalAddress() address.Address { return s.l.LocalAddress() }

// DialShm runs the client half of the shared-memory bootstrap protocol
// against a server region named name, bounded by ctx.
func DialShm(ctx context.Context, name string) (Socket, error) {
	sock, err := shm.Dial(ctx, "", name)
	if err != nil {
		return nil, status.Wrap(status.ConnectionFailure, err)
	}
	return sock, nil
}

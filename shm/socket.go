package shm

import (
	"context"
	"io"
	"sync"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// Socket adapts a per-client shared-memory region to transport.Socket
// (ReadSome/WriteAll/Shutdown/addresses), so Connection can drive a shm
// connection exactly the way it drives a TCP or Unix one: the ring-buffer
// wait loop described in §4.8 ("reader thread... snapshot changes-count...
// attempt a read... otherwise wait on the changes-count condvar with a
// bounded timeout") lives inside ReadSome/WriteAll rather than in a
// separate dedicated OS thread, since Connection already runs its
// read/write loops on their own goroutines (§5: "dedicated OS threads (one
// reader per connection)" maps onto Go's usual one-goroutine-per-loop
// idiom).
type Socket struct {
	cr         *clientRegion
	server     *serverRegion // the server's region on both sides: StateChanged posts, and Destroyed on client Shutdown
	clientID   uint32
	serverSide bool // true: write s2c/read c2s. false (client): write c2s/read s2c.

	localAddr  address.Address
	remoteAddr address.Address

	closeOnce sync.Once
	onClose   func()

	closed    context.Context
	closeFunc context.CancelFunc
}

// newSocket builds a Socket with its internal shutdown context wired up;
// every constructor in listener.go/dial.go should use this instead of a
// bare struct literal so Shutdown can interrupt a pending ReadSome/WriteAll
// immediately instead of waiting out the poll timeout.
func newSocket(cr *clientRegion, server *serverRegion, clientID uint32, serverSide bool, local, remote address.Address) *Socket {
	ctx, cancel := context.WithCancel(context.Background())
	return &Socket{
		cr:         cr,
		server:     server,
		clientID:   clientID,
		serverSide: serverSide,
		localAddr:  local,
		remoteAddr: remote,
		closed:     ctx,
		closeFunc:  cancel,
	}
}

// ReadSome blocks until some bytes arrive in the peer's ring, the peer
// disconnects, or Shutdown fires (transport.Socket's method set has no
// context parameter, so the internal s.closed context is what lets
// Shutdown interrupt a pending read instead of making it wait out a full
// poll timeout).
func (s *Socket) ReadSome(buf []byte) (int, error) {
	ring := s.readRing()
	for {
		if n := ring.readSome(buf); n > 0 {
			s.cr.changes.bump()
			return n, nil
		}
		if s.cr.State() == ClientDisconnected || s.cr.State() == ClientErrored {
			return 0, io.EOF
		}
		if s.closed.Err() != nil {
			return 0, io.EOF
		}
		last := s.cr.changes.snapshot()
		if _, changed := s.cr.changes.waitForChange(s.closed, last, 0); !changed {
			// Poll timeout (or Shutdown firing s.closed) with no state
			// change: loop and re-check state, bounding shutdown latency
			// per §5.
			continue
		}
	}
}

// WriteAll writes all of data into the writer-side ring, waiting on the
// changes-count generation counter whenever the ring is momentarily full.
func (s *Socket) WriteAll(data []byte) error {
	ring := s.writeRing()
	for len(data) > 0 {
		n := ring.writeSome(data)
		if n > 0 {
			data = data[n:]
			s.cr.changes.bump()
			s.postStateChanged()
			continue
		}
		if s.cr.State() == ClientDisconnected || s.cr.State() == ClientErrored || s.closed.Err() != nil {
			return errClosed()
		}
		last := s.cr.changes.snapshot()
		s.cr.changes.waitForChange(s.closed, last, 0)
	}
	return nil
}

func (s *Socket) readRing() *ringBuffer {
	if s.serverSide {
		return s.cr.c2s
	}
	return s.cr.s2c
}

func (s *Socket) writeRing() *ringBuffer {
	if s.serverSide {
		return s.cr.s2c
	}
	return s.cr.c2s
}

func (s *Socket) postStateChanged() {
	if s.server == nil {
		return
	}
	s.server.events.Push(Event{ClientID: s.clientID, Type: EventStateChanged})
}

// Shutdown marks the region Disconnected, pushes Destroyed (client side
// only, per §4.8: "on disconnect the client pushes Destroyed"), and
// unmaps. Safe to call more than once.
func (s *Socket) Shutdown() error {
	var err error
	s.closeOnce.Do(func() {
		s.closeFunc()
		s.cr.setState(ClientDisconnected)
		if !s.serverSide {
			if s.server != nil {
				s.server.events.Push(Event{ClientID: s.clientID, Type: EventDestroyed})
			}
		}
		if s.onClose != nil {
			s.onClose()
		}
		err = s.cr.Close()
	})
	return err
}

// setOnClose registers a callback Shutdown runs after tearing the region
// down, used by Listener to release the connection's SlotPool slot.
func (s *Socket) setOnClose(f func()) { s.onClose = f }

func (s *Socket) LocalAddress() address.Address  { return s.localAddr }
func (s *Socket) RemoteAddress() address.Address { return s.remoteAddr }

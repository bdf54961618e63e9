package shm

import (
	"fmt"
	"sync"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// eventPollTick bounds how often Accept re-checks the server event queue
// when it finds nothing new, the server-side counterpart of the
// changes-count poll bound used by a connection's read/write loops.
const eventPollTick = 2 * time.Millisecond

// Listener implements the server half of the bootstrap protocol (§4.8):
// "Server creates shm://NAME as its region and transitions server-state to
// Running." It does not itself implement transport.Listener: this package
// does not import transport (to avoid a cycle), and Accept returns the
// concrete *Socket, so transport's thin ListenShm wrapper adapts it.
type Listener struct {
	region  *serverRegion
	dir     string
	name    string
	ringCap int

	// pool hands out the stable small-integer back-reference each accepted
	// client is tracked under (§4.8's back-reference pool), so Close can
	// tear down every still-live accepted region without a growable map.
	pool    *SlotPool
	regions []*clientRegion

	mu     sync.Mutex
	closed bool
}

// DefaultMaxClients bounds how many concurrently accepted connections one
// server region's SlotPool tracks.
const DefaultMaxClients = 1024

// Listen creates a fresh server region named name under dir ("" means
// DefaultDir) and transitions it to Running.
func Listen(dir, name string) (*Listener, error) {
	sr, err := createServerRegion(dir, name, DefaultEventQueueCapacity)
	if err != nil {
		return nil, err
	}
	sr.setState(ServerRunning)
	return &Listener{
		region:  sr,
		dir:     dir,
		name:    name,
		ringCap: DefaultRingCapacity,
		pool:    NewSlotPool(DefaultMaxClients),
		regions: make([]*clientRegion, DefaultMaxClients),
	}, nil
}

// Accept blocks until a client pushes Created, then opens that client's
// region ("A client opens that region, chooses a fresh 32-bit client_id,
// creates its own region shm://NAME.CLIENTID, pushes a Created event, and
// waits for the server to open the client's region") and flips its state
// to Connected, the handshake's final step.
func (l *Listener) Accept() (*Socket, error) {
	for {
		l.mu.Lock()
		closed := l.closed
		l.mu.Unlock()
		if closed {
			return nil, errClosed()
		}

		ev, ok := l.region.events.Pop()
		if !ok {
			time.Sleep(eventPollTick)
			continue
		}
		if ev.Type != EventCreated {
			// StateChanged/Destroyed on an already-accepted connection;
			// nothing for the accept loop itself to do with it.
			continue
		}

		clientName := fmt.Sprintf("%s.%d", l.name, ev.ClientID)
		cr, err := openClientRegion(l.dir, clientName, l.ringCap)
		if err != nil {
			continue
		}

		idx, ok := l.pool.TryStartUse()
		if !ok {
			// Pool exhausted (the back-reference pool's bad_alloc case):
			// refuse this connection rather than accept it untracked.
			cr.setState(ClientErrored)
			cr.Close()
			continue
		}
		l.mu.Lock()
		l.regions[idx] = cr
		l.mu.Unlock()

		cr.setState(ClientConnected)

		sock := newSocket(cr, l.region, ev.ClientID, true,
			address.Shm{Name: l.name}, address.Shm{Name: clientName})
		sock.setOnClose(func() {
			l.mu.Lock()
			l.regions[idx] = nil
			l.mu.Unlock()
			l.pool.Release(idx)
		})
		return sock, nil
	}
}

// Close transitions the region to Stopped, unmaps it, and unlinks the
// backing file.
func (l *Listener) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	live := make([]*clientRegion, 0)
	for _, cr := range l.regions {
		if cr != nil {
			live = append(live, cr)
		}
	}
	l.mu.Unlock()

	for _, cr := range live {
		cr.setState(ClientDisconnected)
		cr.Close()
	}

	l.region.setState(ServerStopped)
	err := l.region.Close()
	_ = Remove(l.dir, l.name)
	return err
}

func (l *Listener) LocalAddress() address.Address { return address.Shm{Name: l.name} }

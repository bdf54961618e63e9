package shm

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
	"github.com/msgpack-rpc/msgpackrpc-go/status"
)

// Dial is the client half of the bootstrap protocol (§4.8 / §4.9): open
// the server's region, choose a fresh client_id, create
// "NAME.CLIENTID", push Created, then wait for the server to open it and
// flip its state to Connected, bounded by ctx.
func Dial(ctx context.Context, dir, name string) (*Socket, error) {
	sr, err := openServerRegion(dir, name, DefaultEventQueueCapacity)
	if err != nil {
		return nil, err
	}
	if sr.State() != ServerRunning {
		sr.Close()
		return nil, status.Newf(status.ConnectionFailure, "shm: server region %q is not running", name)
	}

	clientID := rand.Uint32()
	clientName := fmt.Sprintf("%s.%d", name, clientID)
	cr, err := createClientRegion(dir, clientName, DefaultRingCapacity)
	if err != nil {
		sr.Close()
		return nil, err
	}

	sr.events.Push(Event{ClientID: clientID, Type: EventCreated})

	for cr.State() != ClientConnected {
		select {
		case <-ctx.Done():
			cr.setState(ClientErrored)
			cr.Close()
			sr.Close()
			return nil, status.Wrap(status.Timeout, ctx.Err())
		case <-time.After(eventPollTick):
		}
	}

	return newSocket(cr, sr, clientID, false,
		address.Shm{Name: clientName}, address.Shm{Name: name}), nil
}

package loadbalance

import (
	"sync/atomic"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// RoundRobinSelector rotates which candidate sorts first across successive
// calls, so repeated reconnects spread their first attempt evenly across
// every resolved address instead of always preferring the same one. Uses an
// atomic counter for lock-free, goroutine-safe operation, same as the
// teacher's RoundRobinBalancer.
type RoundRobinSelector struct {
	counter int64
}

func (b *RoundRobinSelector) Order(candidates []address.Address) []address.Address {
	if len(candidates) == 0 {
		return candidates
	}
	start := int(atomic.AddInt64(&b.counter, 1)) % len(candidates)
	out := make([]address.Address, len(candidates))
	for i := range candidates {
		out[i] = candidates[(start+i)%len(candidates)]
	}
	return out
}

func (b *RoundRobinSelector) Name() string { return "RoundRobin" }

package loadbalance

import (
	"fmt"
	"hash/crc32"
	"sort"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// ConsistentHashSelector maps a caller-supplied affinity Key to a preferred
// candidate via a hash ring, the same virtual-node scheme as the teacher's
// ConsistentHashBalancer, re-targeted from a fixed instance set maintained by
// Add to the resolver's per-call candidate list: the ring is rebuilt from
// whatever candidates Order is given, so it tracks DNS changes for free
// instead of requiring a separate registry-watch callback to call Add.
//
// Virtual nodes: each candidate gets 100 positions on the ring so no single
// candidate's region is disproportionately large purely due to hash luck.
type ConsistentHashSelector struct {
	// Key returns the affinity key for this selection (e.g. a shard id, a
	// session id) — the same key always prefers the same candidate as long
	// as the candidate list is stable.
	Key func() string

	replicas int
}

// NewConsistentHashSelector builds a selector keyed by key.
func NewConsistentHashSelector(key func() string) *ConsistentHashSelector {
	return &ConsistentHashSelector{Key: key, replicas: 100}
}

func (b *ConsistentHashSelector) Order(candidates []address.Address) []address.Address {
	if len(candidates) == 0 {
		return candidates
	}
	replicas := b.replicas
	if replicas <= 0 {
		replicas = 100
	}

	type ringEntry struct {
		hash uint32
		idx  int
	}
	ring := make([]ringEntry, 0, len(candidates)*replicas)
	for i, c := range candidates {
		for v := 0; v < replicas; v++ {
			key := fmt.Sprintf("%s#%d", c.String(), v)
			ring = append(ring, ringEntry{hash: crc32.ChecksumIEEE([]byte(key)), idx: i})
		}
	}
	sort.Slice(ring, func(i, j int) bool { return ring[i].hash < ring[j].hash })

	keyFn := b.Key
	if keyFn == nil {
		keyFn = func() string { return "" }
	}
	hash := crc32.ChecksumIEEE([]byte(keyFn()))
	pos := sort.Search(len(ring), func(i int) bool { return ring[i].hash >= hash })
	if pos == len(ring) {
		pos = 0
	}
	picked := ring[pos].idx

	out := make([]address.Address, 0, len(candidates))
	out = append(out, candidates[picked])
	for i, c := range candidates {
		if i != picked {
			out = append(out, c)
		}
	}
	return out
}

func (b *ConsistentHashSelector) Name() string { return "ConsistentHash" }

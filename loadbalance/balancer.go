// Package loadbalance adapts the teacher's instance-picking strategies
// (round-robin, weighted-random, consistent-hash) from selecting a
// registry.ServiceInstance out of an etcd-backed instance list to ordering
// the local candidate list an AddressSelector sees (client package, §4.6):
// resolver-yielded address.Address values for one logical endpoint, not
// cluster-wide service discovery. The teacher's registry-polling and
// weighting-by-instance-metadata concerns are gone along with the registry
// package itself (DESIGN.md); what survives is the selection algorithm
// shape, re-targeted at "which of these addresses do we try first".
package loadbalance

import "github.com/msgpack-rpc/msgpackrpc-go/address"

// Selector reorders a resolved candidate list so the address a strategy
// prefers sorts first. It is structurally identical to
// client.AddressSelector — this package is kept decoupled from the client
// package's import to avoid a cycle (client would import loadbalance, not
// the reverse), so client wires a Selector in wherever it expects its own
// AddressSelector.
type Selector interface {
	Order(candidates []address.Address) []address.Address
	Name() string
}

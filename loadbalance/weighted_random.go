package loadbalance

import (
	"math/rand"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

// WeightedRandomSelector picks which candidate sorts first probabilistically
// according to Weight, the same proportional-subtraction algorithm as the
// teacher's WeightedRandomBalancer. Address resolution carries no built-in
// weight (unlike a registry.ServiceInstance), so Weight is caller-supplied —
// e.g. preferring IPv4 over IPv6 results, or a static per-host table; a nil
// Weight falls back to uniform weighting, equivalent to a plain random pick.
type WeightedRandomSelector struct {
	Weight func(address.Address) int
}

func (b *WeightedRandomSelector) Order(candidates []address.Address) []address.Address {
	if len(candidates) == 0 {
		return candidates
	}
	weight := b.Weight
	if weight == nil {
		weight = func(address.Address) int { return 1 }
	}

	total := 0
	for _, c := range candidates {
		total += weight(c)
	}
	if total <= 0 {
		return candidates
	}

	r := rand.Intn(total)
	picked := 0
	for i, c := range candidates {
		r -= weight(c)
		if r < 0 {
			picked = i
			break
		}
	}

	out := make([]address.Address, 0, len(candidates))
	out = append(out, candidates[picked])
	for i, c := range candidates {
		if i != picked {
			out = append(out, c)
		}
	}
	return out
}

func (b *WeightedRandomSelector) Name() string { return "WeightedRandom" }

package loadbalance

import (
	"fmt"
	"testing"

	"github.com/msgpack-rpc/msgpackrpc-go/address"
)

var testCandidates = []address.Address{
	address.TCP{Host: "10.0.0.1", Port: 8001},
	address.TCP{Host: "10.0.0.2", Port: 8002},
	address.TCP{Host: "10.0.0.3", Port: 8003},
}

func TestRoundRobin(t *testing.T) {
	b := &RoundRobinSelector{}

	results := make([]address.Address, 3)
	for i := 0; i < 3; i++ {
		ordered := b.Order(testCandidates)
		results[i] = ordered[0]
	}

	ordered := b.Order(testCandidates)
	if ordered[0] != results[0] {
		t.Fatalf("expect wrap around to %v, got %v", results[0], ordered[0])
	}
}

func TestRoundRobinEmpty(t *testing.T) {
	b := &RoundRobinSelector{}
	ordered := b.Order(nil)
	if len(ordered) != 0 {
		t.Fatalf("expect empty result for empty candidates")
	}
}

func TestWeightedRandom(t *testing.T) {
	weights := map[string]int{"10.0.0.1:8001": 10, "10.0.0.2:8002": 5, "10.0.0.3:8003": 10}
	b := &WeightedRandomSelector{Weight: func(a address.Address) int {
		return weights[a.(address.TCP).HostPort()]
	}}

	counts := map[string]int{}
	n := 10000
	for i := 0; i < n; i++ {
		ordered := b.Order(testCandidates)
		counts[ordered[0].(address.TCP).HostPort()]++
	}

	ratio := float64(counts["10.0.0.1:8001"]) / float64(counts["10.0.0.2:8002"])
	if ratio < 1.5 || ratio > 2.5 {
		t.Fatalf("weight ratio 8001/8002 = %.2f, expect ~2.0", ratio)
	}
}

func TestConsistentHash(t *testing.T) {
	key := "user-123"
	b := NewConsistentHashSelector(func() string { return key })

	ordered1 := b.Order(testCandidates)
	ordered2 := b.Order(testCandidates)
	if ordered1[0] != ordered2[0] {
		t.Fatalf("same key mapped to different candidates: %v vs %v", ordered1[0], ordered2[0])
	}

	seen := map[address.Address]bool{}
	for i := 0; i < 100; i++ {
		k := fmt.Sprintf("key-%d", i)
		bb := NewConsistentHashSelector(func() string { return k })
		ordered := bb.Order(testCandidates)
		seen[ordered[0]] = true
	}

	if len(seen) < 2 {
		t.Fatalf("expect at least 2 different preferred candidates, got %d", len(seen))
	}
}

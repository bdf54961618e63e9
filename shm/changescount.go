package shm

import (
	"context"
	"sync/atomic"
	"time"
)

// defaultPollTimeout bounds how long a reader sleeps waiting for the
// changes-count to move before re-checking state, matching §5's "bounded
// poll timeout (default 100 ms)" — the substitute for a cross-process
// condition variable, which Go cannot wait on portably without cgo.
const defaultPollTimeout = 100 * time.Millisecond

// changesCount is a per-region generation counter: every byte movement
// (a ring-buffer write or read) increments it, and peers detect progress
// by polling for a value change instead of blocking on a condvar.
type changesCount struct {
	word *uint32
}

func newChangesCount(word *uint32) *changesCount {
	return &changesCount{word: word}
}

func (c *changesCount) snapshot() uint32 {
	return atomic.LoadUint32(c.word)
}

func (c *changesCount) bump() {
	atomic.AddUint32(c.word, 1)
}

// waitForChange blocks until the counter differs from last, ctx is done, or
// timeout elapses (0 means defaultPollTimeout). It returns the new value
// and whether it actually changed (false on timeout or ctx cancellation).
func (c *changesCount) waitForChange(ctx context.Context, last uint32, timeout time.Duration) (uint32, bool) {
	if timeout <= 0 {
		timeout = defaultPollTimeout
	}
	deadline := time.Now().Add(timeout)
	poll := time.Millisecond
	const pollCap = 5 * time.Millisecond

	for {
		if v := c.snapshot(); v != last {
			return v, true
		}
		if time.Now().After(deadline) {
			return c.snapshot(), false
		}
		select {
		case <-ctx.Done():
			return c.snapshot(), false
		case <-time.After(poll):
		}
		poll *= 2
		if poll > pollCap {
			poll = pollCap
		}
	}
}

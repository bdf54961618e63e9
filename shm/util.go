package shm

import (
	"sync/atomic"
	"time"
)

func loadIndex(p *uint32) uint32  { return atomic.LoadUint32(p) }
func storeIndex(p *uint32, v uint32) { atomic.StoreUint32(p, v) }

// spinWaitTick is the short pause a producer takes between attempts to
// push into a full event queue, giving the consumer a chance to drain
// without the producer burning a full core.
func spinWaitTick() { time.Sleep(50 * time.Microsecond) }

package shm

import (
	"sync/atomic"
	"time"
)

// spinlock states, stored in a single uint32 in the region.
const (
	lockFree uint32 = 0
	lockHeld uint32 = 1
)

// lockBackoffCap bounds the exponential backoff between CAS retries so a
// contended lock doesn't burn a full core spinning at a fixed rate.
const lockBackoffCap = 200 * time.Microsecond

// lockLease is the maximum time a holder is trusted to hold the lock
// before a contending acquirer treats it as abandoned (a crashed process
// died mid-section) and force-clears it — this implementation's analogue
// of pthread robust-mutex OWNERDEAD recovery, per spec §9's suggested
// "supervisor that periodically reaps wedged slots" escape hatch for
// platforms without robust mutexes.
const lockLease = 2 * time.Second

// spinLock is a cross-process mutex living entirely inside a shared-memory
// region: one uint32 word, acquired with CAS and bounded exponential
// backoff. It protects the ServerEventQueue's producer section (§4.8); the
// consumer side is wait-free and never takes it.
type spinLock struct {
	word *uint32
}

func newSpinLock(word *uint32) *spinLock {
	return &spinLock{word: word}
}

// Lock spins until the word transitions free->held, force-clearing it if
// held for longer than lockLease (the crashed-holder case).
func (l *spinLock) Lock() {
	backoff := time.Microsecond
	heldSince := time.Time{}
	for {
		if atomic.CompareAndSwapUint32(l.word, lockFree, lockHeld) {
			return
		}
		if heldSince.IsZero() {
			heldSince = time.Now()
		} else if time.Since(heldSince) > lockLease {
			atomic.StoreUint32(l.word, lockFree)
			heldSince = time.Time{}
			continue
		}
		time.Sleep(backoff)
		backoff *= 2
		if backoff > lockBackoffCap {
			backoff = lockBackoffCap
		}
	}
}

// Unlock releases the lock. Safe to call only by the current holder.
func (l *spinLock) Unlock() {
	atomic.StoreUint32(l.word, lockFree)
}

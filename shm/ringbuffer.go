package shm

import "sync/atomic"

// ringBuffer is `{next_written: atomic<u32>, next_read: atomic<u32>,
// buffer: [u8; N]}` (§4.8): a single-writer single-reader byte ring living
// inside a shared-memory region. One slot is always reserved so
// next_written catching up to next_read-1 unambiguously means full, never
// confused with empty (next_written == next_read).
//
// The writer release-stores the advanced next_written after the memcpy; the
// reader acquire-loads it before reading, and vice versa for next_read —
// the minimum ordering sufficient for both sides to see a consistent
// memcpy, per §5's "shared-memory atomics use acquire on load of the
// peer's index and release on store of our own index".
type ringBuffer struct {
	nextWritten *uint32
	nextRead    *uint32
	buf         []byte
}

func newRingBuffer(nextWritten, nextRead *uint32, buf []byte) *ringBuffer {
	return &ringBuffer{nextWritten: nextWritten, nextRead: nextRead, buf: buf}
}

func (r *ringBuffer) capacity() int { return len(r.buf) }

// writableSpan returns the single contiguous writable run starting at
// next_written: either up to next_read-1 (wrap case) or the buffer end,
// whichever is reached first, reserving one slot so full never equals
// empty.
func (r *ringBuffer) writableSpan() (start, n int) {
	n1 := len(r.buf)
	written := int(atomic.LoadUint32(r.nextWritten))
	read := int(atomic.LoadUint32(r.nextRead))

	if written >= read {
		// writable run to the end of the buffer, minus the reserved slot
		// when read == 0 (else wrapping to read-1 happens on the next call).
		end := n1
		if read == 0 {
			end = n1 - 1
		}
		if written >= end {
			return written, 0
		}
		return written, end - written
	}
	// written < read: writable run is [written, read-1)
	avail := read - 1 - written
	if avail < 0 {
		avail = 0
	}
	return written, avail
}

// writeSome copies as much of data as the buffer currently has room for,
// looping across the wrap boundary when the writable region is split into
// two contiguous spans (e.g. capacity 7, next_written=5, next_read=4: the
// first span is [5,7), the second [0,3) after the index wraps), and
// returns the total bytes written. A short return means the buffer filled
// up to its reserved slot; callers loop across calls for the rest.
func (r *ringBuffer) writeSome(data []byte) int {
	total := 0
	for total < len(data) {
		start, n := r.writableSpan()
		if n == 0 {
			break
		}
		if n > len(data)-total {
			n = len(data) - total
		}
		copy(r.buf[start:start+n], data[total:total+n])
		next := (start + n) % len(r.buf)
		atomic.StoreUint32(r.nextWritten, uint32(next))
		total += n
	}
	return total
}

// readableSpan returns the single contiguous readable run starting at
// next_read: either up to next_written (wrap case) or the buffer end.
func (r *ringBuffer) readableSpan() (start, n int) {
	written := int(atomic.LoadUint32(r.nextWritten))
	read := int(atomic.LoadUint32(r.nextRead))

	if read <= written {
		return read, written - read
	}
	return read, len(r.buf) - read
}

// readSome copies as many readable bytes into buf as fit, looping across
// the wrap boundary symmetrically with writeSome, and returns the total
// bytes read.
func (r *ringBuffer) readSome(buf []byte) int {
	total := 0
	for total < len(buf) {
		start, n := r.readableSpan()
		if n == 0 {
			break
		}
		if n > len(buf)-total {
			n = len(buf) - total
		}
		copy(buf[total:total+n], r.buf[start:start+n])
		next := (start + n) % len(r.buf)
		atomic.StoreUint32(r.nextRead, uint32(next))
		total += n
	}
	return total
}

func (r *ringBuffer) isEmpty() bool {
	return atomic.LoadUint32(r.nextWritten) == atomic.LoadUint32(r.nextRead)
}

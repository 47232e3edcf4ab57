// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import (
	"code.hybscloud.com/spin"
)

// Elem64 constrains the wide queue to 64-bit primitive element types.
type Elem64 interface {
	~int64 | ~uint64 | ~float64
}

// wideLanes is the batch width of the wide fast path.
const wideLanes = 4

// MPMC64 is an MPMC queue for 64-bit primitive elements with adaptive
// batch operations.
//
// EnqueueMany and DequeueMany opportunistically claim four adjacent slots
// with a single index CAS, guarded by a four-wide comparison of the slot
// sequences against the expected lane vector. The fast path requires the
// four slot indices to be contiguous in the buffer; when the batch would
// wrap the ring, or fewer than four elements remain, the operations fall
// back to the single-element protocol. The observable behavior is
// identical to a loop of Enqueue/Dequeue calls.
//
// The single-element operations of the embedded queue remain available
// and may be mixed freely with the batch operations.
type MPMC64[T Elem64] struct {
	MPMC[T]
}

// NewMPMC64 creates a new wide MPMC queue.
// Capacity rounds up to the next power of 2, with a minimum of 8 so that
// the ring always fits two non-wrapping four-wide batches.
// Panics if capacity < 1.
func NewMPMC64[T Elem64](capacity int) *MPMC64[T] {
	if capacity < 1 {
		panic("mpmcq: capacity must be >= 1")
	}

	n := uint64(roundToPow2(capacity))
	if n < 2*wideLanes {
		n = 2 * wideLanes
	}
	q := &MPMC64[T]{}
	q.buffer = make([]mpmcSlot[T], n)
	q.mask = n - 1
	q.capacity = n

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q
}

// seqMatch4 reports whether the four adjacent slots starting at buffer
// index base all carry the expected sequences want..want+3.
// Valid only when base+3 does not wrap the buffer.
func (q *MPMC64[T]) seqMatch4(base, want uint64) bool {
	b := q.buffer[base : base+wideLanes]
	return b[0].seq.LoadAcquire() == want &&
		b[1].seq.LoadAcquire() == want+1 &&
		b[2].seq.LoadAcquire() == want+2 &&
		b[3].seq.LoadAcquire() == want+3
}

// EnqueueMany adds as many leading elements of elems as currently possible
// and returns the accepted count. The untransferred suffix remains the
// caller's. Never blocks; a return short of len(elems) means the queue
// filled up.
func (q *MPMC64[T]) EnqueueMany(elems []T) int {
	n := 0
	sw := spin.Wait{}
	for n < len(elems) {
		tail := q.tail.LoadAcquire()
		base := tail & q.mask

		if len(elems)-n >= wideLanes && base <= q.mask-(wideLanes-1) &&
			q.seqMatch4(base, tail) {
			if q.tail.CompareAndSwapAcqRel(tail, tail+wideLanes) {
				for k := uint64(0); k < wideLanes; k++ {
					slot := &q.buffer[base+k]
					slot.data = elems[n+int(k)]
					slot.seq.StoreRelease(tail + k + 1)
				}
				n += wideLanes
				continue
			}
			sw.Once()
			continue
		}

		slot := &q.buffer[base]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = elems[n]
				slot.seq.StoreRelease(tail + 1)
				n++
				continue
			}
		} else if diff < 0 {
			head := q.head.LoadAcquire()
			if tail-head >= q.capacity {
				return n
			}
		}
		sw.Once()
	}
	return n
}

// DequeueMany fills as much of buf as currently possible and returns the
// number of elements written. Never blocks; a return short of len(buf)
// means the queue ran empty.
func (q *MPMC64[T]) DequeueMany(buf []T) int {
	n := 0
	sw := spin.Wait{}
	for n < len(buf) {
		head := q.head.LoadAcquire()
		base := head & q.mask

		if len(buf)-n >= wideLanes && base <= q.mask-(wideLanes-1) &&
			q.seqMatch4(base, head+1) {
			if q.head.CompareAndSwapAcqRel(head, head+wideLanes) {
				for k := uint64(0); k < wideLanes; k++ {
					slot := &q.buffer[base+k]
					buf[n+int(k)] = slot.data
					var zero T
					slot.data = zero
					slot.seq.StoreRelease(head + k + q.capacity)
				}
				n += wideLanes
				continue
			}
			sw.Once()
			continue
		}

		slot := &q.buffer[base]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				buf[n] = slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.capacity)
				n++
				continue
			}
		} else if diff < 0 {
			if q.tail.LoadAcquire() == head {
				return n
			}
		}
		sw.Once()
	}
	return n
}

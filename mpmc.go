// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is a CAS-based multi-producer multi-consumer bounded queue.
//
// Each slot carries a monotonic sequence number whose congruence class
// modulo the capacity distinguishes empty from full for that slot. The
// sequence transitions are the sole synchronization between producers and
// consumers:
//
//	seq == pos       slot empty, ready for the producer claiming pos
//	seq == pos+1     slot full, ready for the consumer claiming pos
//	seq ahead        another agent won the race at this slot; re-read
//	seq behind       full (producer side) or empty (consumer side)
//
// Sequence-based validation provides full ABA safety across index
// wrap-around; comparisons use signed wrapping subtraction so that counter
// wrap never inverts the classification.
//
// All operations are non-blocking: they never sleep, park, or allocate.
// Enqueue and Dequeue return ErrWouldBlock instead of waiting.
//
// Memory: n slots (64+ bytes per slot), n a power of two
type MPMC[T any] struct {
	_        pad
	tail     atomix.Uint64 // Producer index
	_        pad
	head     atomix.Uint64 // Consumer index
	_        pad
	buffer   []mpmcSlot[T]
	mask     uint64
	capacity uint64
}

type mpmcSlot[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort // Pad to cache line
}

// NewMPMC creates a new CAS-based MPMC queue.
// Capacity rounds up to the next power of 2. The minimum capacity is 1.
// Panics if capacity < 1.
func NewMPMC[T any](capacity int) *MPMC[T] {
	if capacity < 1 {
		panic("mpmcq: capacity must be >= 1")
	}

	n := uint64(roundToPow2(capacity))
	q := &MPMC[T]{
		buffer:   make([]mpmcSlot[T], n),
		mask:     n - 1,
		capacity: n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full; the caller's value is
// untouched and remains the caller's to retry, discard, or reroute.
func (q *MPMC[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapAcqRel(tail, tail+1) {
				slot.data = *elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			// Slot still holds the previous round. Confirm against the
			// consumer index before reporting full: a stale tail read
			// classifies behind transiently.
			head := q.head.LoadAcquire()
			if tail-head >= q.capacity {
				return ErrWouldBlock
			}
		}
		// diff > 0: another producer advanced past this slot, retry
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue.
// Returns (zero-value, ErrWouldBlock) if the queue is empty.
func (q *MPMC[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapAcqRel(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				slot.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
		} else if diff < 0 {
			// Slot not yet released by a producer. Confirm against the
			// producer index before reporting empty.
			if q.tail.LoadAcquire() == head {
				var zero T
				return zero, ErrWouldBlock
			}
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}

// Len returns the approximate number of queued elements.
//
// The indices are read with relaxed ordering, so the result is advisory:
// under concurrent access it may over- or under-count in-flight operations,
// but it is always within [0, Cap()].
func (q *MPMC[T]) Len() int {
	return queueLen(q.tail.LoadRelaxed(), q.head.LoadRelaxed(), q.capacity)
}

// IsEmpty reports whether the queue appears empty.
// Advisory snapshot; see Len.
func (q *MPMC[T]) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether the queue appears full.
// Advisory snapshot; see Len.
func (q *MPMC[T]) IsFull() bool {
	return q.Len() == int(q.capacity)
}

// Reset drains residual elements and restores the initial empty state.
//
// Every cell whose sequence marks it live is zeroed so references held by
// undelivered elements are released to the garbage collector, all sequences
// return to their initial values, and both indices return to zero.
//
// The caller must have exclusive access: Reset is for teardown, or reuse
// after all producers and consumers have stopped. Calling it concurrently
// with Enqueue or Dequeue corrupts the queue.
func (q *MPMC[T]) Reset() {
	head := q.head.LoadAcquire()
	tail := q.tail.LoadAcquire()
	var zero T
	for p := head; p != tail; p++ {
		slot := &q.buffer[p&q.mask]
		if slot.seq.LoadAcquire() == p+1 {
			slot.data = zero
		}
	}
	for i := uint64(0); i < q.capacity; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}
	q.head.StoreRelaxed(0)
	q.tail.StoreRelaxed(0)
}

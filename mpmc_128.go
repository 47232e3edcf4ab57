// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMCIndirect is a CAS-based MPMC queue for uintptr values.
//
// Uses 128-bit atomic operations to pack sequence and value into a single
// atomic entry, reducing atomics per operation from 2-3 to 1. The entry CAS
// is the claim: the index CAS afterwards only helps other agents advance.
//
// Entry format: [lo=sequence | hi=value]
//
// Memory: n slots, 16 bytes per slot (padded to a cache line)
type MPMCIndirect struct {
	_        pad
	tail     atomix.Uint64 // Producer index
	_        pad
	head     atomix.Uint64 // Consumer index
	_        pad
	buffer   []mpmc128Slot
	mask     uint64
	capacity uint64
}

type mpmc128Slot struct {
	entry atomix.Uint128 // lo=seq, hi=value
	_     [64 - 16]byte  // Pad to cache line
}

// NewMPMCIndirect creates a new CAS-based MPMC queue for uintptr values.
// Capacity rounds up to the next power of 2. The minimum capacity is 1.
// Panics if capacity < 1.
func NewMPMCIndirect(capacity int) *MPMCIndirect {
	if capacity < 1 {
		panic("mpmcq: capacity must be >= 1")
	}

	n := uint64(roundToPow2(capacity))
	q := &MPMCIndirect{
		buffer:   make([]mpmc128Slot, n),
		mask:     n - 1,
		capacity: n,
	}

	// Initialize: seq[i] = i (ready for write at round 0), val = 0
	for i := uint64(0); i < n; i++ {
		q.buffer[i].entry.StoreRelaxed(i, 0)
	}

	return q
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
func (q *MPMCIndirect) Enqueue(elem uintptr) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buffer[tail&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()
		diff := int64(seqLo) - int64(tail)

		if diff == 0 {
			// Slot ready for writing (seq == tail)
			// Single: atomically update seq AND store value
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, tail+1, uint64(elem)) {
				// Help advance tail for other producers
				q.tail.CompareAndSwapRelaxed(tail, tail+1)
				return nil
			}
		} else if diff < 0 {
			// Queue is full (slot from old round not yet consumed)
			return ErrWouldBlock
		}
		// diff > 0: another producer succeeded, retry with fresh tail
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue.
// Returns (0, ErrWouldBlock) if the queue is empty.
func (q *MPMCIndirect) Dequeue() (uintptr, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()
		diff := int64(seqLo) - int64(head+1)

		if diff == 0 {
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, head+q.capacity, 0) {
				q.head.CompareAndSwapRelaxed(head, head+1)
				return uintptr(valHi), nil
			}
		} else if diff < 0 {
			return 0, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMCIndirect) Cap() int {
	return int(q.capacity)
}

// Len returns the approximate number of queued elements.
// Advisory: the helper-advanced indices may lag in-flight operations.
// Always within [0, Cap()].
func (q *MPMCIndirect) Len() int {
	return queueLen(q.tail.LoadRelaxed(), q.head.LoadRelaxed(), q.capacity)
}

// IsEmpty reports whether the queue appears empty. Advisory snapshot.
func (q *MPMCIndirect) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether the queue appears full. Advisory snapshot.
func (q *MPMCIndirect) IsFull() bool {
	return q.Len() == int(q.capacity)
}

// MPMCPtr is a CAS-based MPMC queue for unsafe.Pointer values.
//
// Same entry protocol as MPMCIndirect; the producer transfers ownership of
// the pointed-to object to the consumer.
//
// Entry format: [lo=sequence | hi=pointer as uint64]
type MPMCPtr struct {
	_        pad
	tail     atomix.Uint64 // Producer index
	_        pad
	head     atomix.Uint64 // Consumer index
	_        pad
	buffer   []mpmc128Slot // Reuse same slot type
	mask     uint64
	capacity uint64
}

// NewMPMCPtr creates a new CAS-based MPMC queue for unsafe.Pointer values.
// Capacity rounds up to the next power of 2. The minimum capacity is 1.
// Panics if capacity < 1.
func NewMPMCPtr(capacity int) *MPMCPtr {
	if capacity < 1 {
		panic("mpmcq: capacity must be >= 1")
	}

	n := uint64(roundToPow2(capacity))
	q := &MPMCPtr{
		buffer:   make([]mpmc128Slot, n),
		mask:     n - 1,
		capacity: n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].entry.StoreRelaxed(i, 0)
	}

	return q
}

// Enqueue adds an element to the queue.
// Returns ErrWouldBlock if the queue is full.
func (q *MPMCPtr) Enqueue(elem unsafe.Pointer) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadAcquire()
		slot := &q.buffer[tail&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()
		diff := int64(seqLo) - int64(tail)

		if diff == 0 {
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, tail+1, uint64(uintptr(elem))) {
				q.tail.CompareAndSwapRelaxed(tail, tail+1)
				return nil
			}
		} else if diff < 0 {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue.
// Returns (nil, ErrWouldBlock) if the queue is empty.
func (q *MPMCPtr) Dequeue() (unsafe.Pointer, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadAcquire()
		slot := &q.buffer[head&q.mask]
		seqLo, valHi := slot.entry.LoadAcquire()
		diff := int64(seqLo) - int64(head+1)

		if diff == 0 {
			if slot.entry.CompareAndSwapAcqRel(seqLo, valHi, head+q.capacity, 0) {
				q.head.CompareAndSwapRelaxed(head, head+1)
				return *(*unsafe.Pointer)(unsafe.Pointer(&valHi)), nil
			}
		} else if diff < 0 {
			return nil, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMCPtr) Cap() int {
	return int(q.capacity)
}

// Len returns the approximate number of queued elements.
// Advisory: the helper-advanced indices may lag in-flight operations.
// Always within [0, Cap()].
func (q *MPMCPtr) Len() int {
	return queueLen(q.tail.LoadRelaxed(), q.head.LoadRelaxed(), q.capacity)
}

// IsEmpty reports whether the queue appears empty. Advisory snapshot.
func (q *MPMCPtr) IsEmpty() bool {
	return q.Len() == 0
}

// IsFull reports whether the queue appears full. Advisory snapshot.
func (q *MPMCPtr) IsFull() bool {
	return q.Len() == int(q.capacity)
}

// queueLen clamps tail-head to [0, capacity].
func queueLen(tail, head, capacity uint64) int {
	n := int64(tail - head)
	if n < 0 {
		return 0
	}
	if n > int64(capacity) {
		return int(capacity)
	}
	return int(n)
}

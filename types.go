// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

import "unsafe"

// Queue is the combined producer-consumer interface for an MPMC queue.
//
// Queue provides non-blocking Enqueue and Dequeue operations. Both
// operations return ErrWouldBlock when they cannot proceed (queue full or
// empty), never waiting for the other side.
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Inspector
}

// Producer is the send-only view of a queue.
//
// A producer handle is nothing more than a shared reference to the queue
// narrowed to its enqueue half; it carries no state of its own, and any
// number of them may coexist.
type Producer[T any] interface {
	// Enqueue adds an element to the queue (non-blocking).
	// The element is copied into the queue's internal buffer; on failure
	// the caller's value is untouched.
	// Returns nil on success, ErrWouldBlock if the queue is full.
	Enqueue(elem *T) error
}

// Consumer is the receive-only view of a queue.
//
// Like Producer, a consumer handle is a stateless narrowed reference;
// any number of them may coexist.
type Consumer[T any] interface {
	// Dequeue removes and returns an element from the queue (non-blocking).
	// The vacated slot is cleared so references held by the element are
	// released to the garbage collector.
	// Returns (zero-value, ErrWouldBlock) if the queue is empty.
	Dequeue() (T, error)
}

// Inspector exposes the advisory introspection surface shared by all
// queue variants.
//
// Len, IsEmpty, and IsFull are snapshots taken with relaxed loads: they
// establish no happens-before relationship with subsequent Enqueue or
// Dequeue calls and may over- or under-count in-flight operations. Len is
// always within [0, Cap()].
type Inspector interface {
	// Cap returns the capacity, rounded up to a power of two at
	// construction.
	Cap() int
	// Len returns the approximate number of queued elements.
	Len() int
	// IsEmpty reports whether the queue appears empty.
	IsEmpty() bool
	// IsFull reports whether the queue appears full.
	IsFull() bool
}

// QueueIndirect is the combined interface for uintptr queues.
//
// QueueIndirect passes indices or handles instead of full objects. This is
// useful for buffer pools, object pools, or any index-based data structure.
type QueueIndirect interface {
	ProducerIndirect
	ConsumerIndirect
	Inspector
}

// ProducerIndirect enqueues uintptr values (non-blocking).
type ProducerIndirect interface {
	// Enqueue adds an element to the queue.
	// Returns ErrWouldBlock immediately if the queue is full.
	Enqueue(elem uintptr) error
}

// ConsumerIndirect dequeues uintptr values (non-blocking).
type ConsumerIndirect interface {
	// Dequeue removes and returns an element from the queue.
	// Returns (0, ErrWouldBlock) immediately if the queue is empty.
	Dequeue() (uintptr, error)
}

// QueuePtr is the combined interface for unsafe.Pointer queues.
//
// QueuePtr passes pointers directly without copying. The producer
// transfers ownership to the consumer: after enqueueing, the producer must
// not access the object.
type QueuePtr interface {
	ProducerPtr
	ConsumerPtr
	Inspector
}

// ProducerPtr enqueues unsafe.Pointer values (non-blocking).
type ProducerPtr interface {
	// Enqueue adds an element to the queue.
	// Returns ErrWouldBlock immediately if the queue is full.
	Enqueue(elem unsafe.Pointer) error
}

// ConsumerPtr dequeues unsafe.Pointer values (non-blocking).
type ConsumerPtr interface {
	// Dequeue removes and returns an element from the queue.
	// Returns (nil, ErrWouldBlock) immediately if the queue is empty.
	Dequeue() (unsafe.Pointer, error)
}

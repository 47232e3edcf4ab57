// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package mpmcq provides a bounded lock-free multi-producer multi-consumer
// FIFO queue.
//
// The queue is a fixed-capacity ring of slots, each guarded by a monotonic
// sequence number. Producers and consumers coordinate exclusively through
// the per-slot sequences plus two cache-line-isolated position indices;
// there are no locks, and no operation ever blocks, parks, or allocates.
//
// # Quick Start
//
// Direct constructors:
//
//	q := mpmcq.NewMPMC[Event](1024)        // any element type
//	q := mpmcq.NewMPMC64[int64](1024)      // 64-bit elements, batch ops
//	q := mpmcq.NewMPMCIndirect(1024)       // uintptr (indices, handles)
//	q := mpmcq.NewMPMCPtr(1024)            // unsafe.Pointer (zero-copy)
//
// Builder API for uniform call sites:
//
//	q := mpmcq.Build[Event](mpmcq.New(1024))
//	q := mpmcq.BuildWide[int64](mpmcq.New(1024))
//	q := mpmcq.New(1024).BuildIndirect()
//
// # Basic Usage
//
//	q := mpmcq.NewMPMC[int](1024)
//
//	// Enqueue (non-blocking)
//	value := 42
//	err := q.Enqueue(&value)
//	if mpmcq.IsWouldBlock(err) {
//	    // Queue is full - handle backpressure; value stays with the caller
//	}
//
//	// Dequeue (non-blocking)
//	elem, err := q.Dequeue()
//	if mpmcq.IsWouldBlock(err) {
//	    // Queue is empty - try again later
//	}
//
// # Algorithm
//
// Slot i starts with sequence i. A producer claiming position p (slot
// p mod capacity) requires sequence == p, advances the producer index by
// CAS, writes the element, and releases the slot by storing p+1. A
// consumer claiming p requires sequence == p+1, advances the consumer
// index by CAS, moves the element out, and releases the slot by storing
// p+capacity, handing it to the producer of the next round.
//
// All sequence inspections are acquire loads and all releases are release
// stores; that pair is the only synchronization between the producer's
// write of an element and the consumer's read of it. Sequence comparisons
// use signed wrapping subtraction, so index wrap-around over the uint64
// counter space never inverts the full/empty classification (ABA safety).
//
// The queue is lock-free: an individual Enqueue or Dequeue may retry when
// it loses a claim race, but every successful claim advances the whole
// system. No fairness guarantee is made between competing producers (or
// consumers); under heavy contention the winner distribution is whatever
// CAS timing produces.
//
// # Batch Operations
//
// For 64-bit primitive element types, [MPMC64] adds adaptive batch
// operations:
//
//	q := mpmcq.NewMPMC64[int64](1024)
//	accepted := q.EnqueueMany(values)   // partial success: leading prefix
//	filled := q.DequeueMany(buf)        // partial success: available run
//
// Both opportunistically claim four adjacent slots with one index CAS,
// guarded by a four-wide sequence comparison, and fall back to the
// single-element protocol for batch tails and ring wrap. Their observable
// behavior is identical to a loop of single-element calls, and they never
// report zero progress while progress is possible.
//
// # Introspection
//
// Cap reports the capacity (rounded up to a power of two at
// construction). Len, IsEmpty, and IsFull are advisory snapshots taken
// with relaxed loads; Len is always within [0, Cap()] but may over- or
// under-count operations in flight.
//
// # Teardown
//
// The queue pre-allocates all storage and holds no back-references, so an
// abandoned queue is collected as a unit. Dequeue clears each vacated
// slot; [MPMC.Reset] lets the last holder additionally drop elements that
// were never delivered, releasing their references before the queue
// itself becomes garbage. Reset requires exclusive access.
//
// # Error Handling
//
// Queues return [ErrWouldBlock] when operations cannot proceed. This error
// is sourced from [code.hybscloud.com/iox] for ecosystem consistency.
//
//	backoff := iox.Backoff{}
//	for {
//	    err := q.Enqueue(&item)
//	    if err == nil {
//	        backoff.Reset()
//	        break
//	    }
//	    if !mpmcq.IsWouldBlock(err) {
//	        return err // Unexpected error
//	    }
//	    backoff.Wait()
//	}
//
// # Capacity
//
// Capacity rounds up to the next power of 2:
//
//	q := mpmcq.NewMPMC[int](3)     // Actual capacity: 4
//	q := mpmcq.NewMPMC[int](1000)  // Actual capacity: 1024
//
// The minimum capacity is 1 (8 for [MPMC64], so the ring always fits two
// non-wrapping four-wide batches). Constructors panic on capacity < 1.
//
// # Race Detection
//
// Go's race detector cannot observe happens-before relationships
// established through atomic memory orderings on separate variables, so it
// reports false positives against the sequence protocol. Concurrent tests
// incompatible with race detection skip themselves when [RaceEnabled] is
// true, and the examples are excluded via //go:build !race.
//
// # Dependencies
//
// This package uses [code.hybscloud.com/iox] for semantic errors,
// [code.hybscloud.com/atomix] for atomic primitives with explicit
// memory ordering, and [code.hybscloud.com/spin] for CPU pause
// instructions.
package mpmcq

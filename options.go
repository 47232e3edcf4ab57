// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq

// Builder creates queues with fluent configuration.
//
// The only recognized option is the capacity; it rounds up to the next
// power of 2 at build time. The builder exists so call sites construct
// queues the same way across element flavors:
//
//	q := mpmcq.Build[Event](mpmcq.New(1024))
//	q := mpmcq.BuildWide[int64](mpmcq.New(1024))
//	q := mpmcq.New(1024).BuildIndirect()
//	q := mpmcq.New(1024).BuildPtr()
type Builder struct {
	capacity int
}

// New creates a queue builder with the given capacity.
//
// Capacity rounds up to the next power of 2 at build time. For example,
// capacity=4 results in actual capacity=4, capacity=1000 results in
// actual capacity=1024.
//
// Panics if capacity < 1.
func New(capacity int) *Builder {
	if capacity < 1 {
		panic("mpmcq: capacity must be >= 1")
	}
	return &Builder{capacity: capacity}
}

// Build creates a generic MPMC queue for any element type.
func Build[T any](b *Builder) *MPMC[T] {
	return NewMPMC[T](b.capacity)
}

// BuildWide creates an MPMC queue for 64-bit primitive elements with
// adaptive batch operations. The built capacity is at least 8.
func BuildWide[T Elem64](b *Builder) *MPMC64[T] {
	return NewMPMC64[T](b.capacity)
}

// BuildIndirect creates an MPMC queue for uintptr values.
func (b *Builder) BuildIndirect() *MPMCIndirect {
	return NewMPMCIndirect(b.capacity)
}

// BuildPtr creates an MPMC queue for unsafe.Pointer values.
func (b *Builder) BuildPtr() *MPMCPtr {
	return NewMPMCPtr(b.capacity)
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n <= 1 {
		return 1
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing.
type pad [64]byte

// padShort is padding to fill cache line after 8-byte field.
type padShort [64 - 8]byte

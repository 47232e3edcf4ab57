// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package mpmcq_test

import (
	"errors"
	"slices"
	"sync"
	"testing"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"code.hybscloud.com/mpmcq"
)

// =============================================================================
// Wide Queue - Construction
// =============================================================================

// TestMPMC64MinimumCapacity tests that the wide queue rounds any request
// up to at least 8 slots.
func TestMPMC64MinimumCapacity(t *testing.T) {
	tests := []struct {
		request int
		want    int
	}{
		{1, 8},
		{7, 8},
		{8, 8},
		{9, 16},
		{1000, 1024},
	}

	for tt := range slices.Values(tests) {
		q := mpmcq.NewMPMC64[int64](tt.request)
		if q.Cap() != tt.want {
			t.Errorf("NewMPMC64(%d).Cap() = %d, want %d", tt.request, q.Cap(), tt.want)
		}
	}
}

// TestMPMC64InvalidCapacity tests that invalid capacities panic.
func TestMPMC64InvalidCapacity(t *testing.T) {
	cases := []struct {
		name string
		fn   func()
	}{
		{"Zero", func() { mpmcq.NewMPMC64[int64](0) }},
		{"Negative", func() { mpmcq.NewMPMC64[uint64](-1) }},
	}

	for c := range slices.Values(cases) {
		t.Run(c.name, func(t *testing.T) {
			defer func() {
				if r := recover(); r == nil {
					t.Fatal("expected panic for capacity < 1")
				}
			}()
			c.fn()
		})
	}
}

// =============================================================================
// Wide Queue - Batch Operations
// =============================================================================

// TestMPMC64Batch tests a batch round trip with a mixed wide/single tail.
func TestMPMC64Batch(t *testing.T) {
	q := mpmcq.NewMPMC64[int64](16)

	in := []int64{1, 2, 3, 4, 5, 6, 7}
	if n := q.EnqueueMany(in); n != 7 {
		t.Fatalf("EnqueueMany: got %d, want 7", n)
	}
	if q.Len() != 7 {
		t.Fatalf("Len after batch enqueue: got %d, want 7", q.Len())
	}

	buf := make([]int64, 10)
	if n := q.DequeueMany(buf); n != 7 {
		t.Fatalf("DequeueMany: got %d, want 7", n)
	}
	if !slices.Equal(buf[:7], in) {
		t.Fatalf("DequeueMany: got %v, want %v", buf[:7], in)
	}

	if n := q.DequeueMany(buf); n != 0 {
		t.Fatalf("DequeueMany on empty: got %d, want 0", n)
	}
}

// TestMPMC64BatchPartial tests the partial-success contract at the
// capacity boundary.
func TestMPMC64BatchPartial(t *testing.T) {
	q := mpmcq.NewMPMC64[int64](8)

	// An oversized batch on an empty queue accepts exactly cap elements
	big := make([]int64, 100)
	for i := range big {
		big[i] = int64(i)
	}
	if n := q.EnqueueMany(big); n != 8 {
		t.Fatalf("EnqueueMany oversized: got %d, want 8", n)
	}

	// A full queue accepts nothing
	if n := q.EnqueueMany(big); n != 0 {
		t.Fatalf("EnqueueMany on full: got %d, want 0", n)
	}

	// A dequeue asking for more than the current length returns exactly
	// the current length
	buf := make([]int64, 100)
	if n := q.DequeueMany(buf); n != 8 {
		t.Fatalf("DequeueMany oversized: got %d, want 8", n)
	}
	if !slices.Equal(buf[:8], big[:8]) {
		t.Fatalf("DequeueMany: got %v, want %v", buf[:8], big[:8])
	}
}

// TestMPMC64BatchWrap tests that batches spanning the ring boundary fall
// back to the single-element path without reordering or loss.
func TestMPMC64BatchWrap(t *testing.T) {
	q := mpmcq.NewMPMC64[int64](8)

	// Advance the indices so the next batch starts at slot 6 and wraps
	pre := []int64{-1, -2, -3, -4, -5, -6}
	if n := q.EnqueueMany(pre); n != 6 {
		t.Fatalf("EnqueueMany: got %d, want 6", n)
	}
	buf := make([]int64, 6)
	if n := q.DequeueMany(buf); n != 6 {
		t.Fatalf("DequeueMany: got %d, want 6", n)
	}

	in := []int64{10, 20, 30, 40, 50}
	if n := q.EnqueueMany(in); n != 5 {
		t.Fatalf("EnqueueMany across wrap: got %d, want 5", n)
	}

	out := make([]int64, 5)
	if n := q.DequeueMany(out); n != 5 {
		t.Fatalf("DequeueMany across wrap: got %d, want 5", n)
	}
	if !slices.Equal(out, in) {
		t.Fatalf("wrap round trip: got %v, want %v", out, in)
	}
}

// TestMPMC64MixedSingles tests that batch and single operations interleave
// into one FIFO stream.
func TestMPMC64MixedSingles(t *testing.T) {
	q := mpmcq.NewMPMC64[int64](16)

	v := int64(1)
	if err := q.Enqueue(&v); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if n := q.EnqueueMany([]int64{2, 3, 4, 5}); n != 4 {
		t.Fatalf("EnqueueMany: got %d, want 4", n)
	}
	v = 6
	if err := q.Enqueue(&v); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	got, err := q.Dequeue()
	if err != nil || got != 1 {
		t.Fatalf("Dequeue: got (%d, %v), want (1, nil)", got, err)
	}
	buf := make([]int64, 3)
	if n := q.DequeueMany(buf); n != 3 {
		t.Fatalf("DequeueMany: got %d, want 3", n)
	}
	if !slices.Equal(buf, []int64{2, 3, 4}) {
		t.Fatalf("DequeueMany: got %v, want [2 3 4]", buf)
	}
	for _, want := range []int64{5, 6} {
		got, err := q.Dequeue()
		if err != nil || got != want {
			t.Fatalf("Dequeue: got (%d, %v), want (%d, nil)", got, err, want)
		}
	}
	if _, err := q.Dequeue(); !errors.Is(err, mpmcq.ErrWouldBlock) {
		t.Fatalf("Dequeue on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestMPMC64FloatElements tests the float64 lane type.
func TestMPMC64FloatElements(t *testing.T) {
	q := mpmcq.NewMPMC64[float64](8)

	in := []float64{0.5, 1.5, 2.5, 3.5, 4.5}
	if n := q.EnqueueMany(in); n != 5 {
		t.Fatalf("EnqueueMany: got %d, want 5", n)
	}

	out := make([]float64, 8)
	if n := q.DequeueMany(out); n != 5 {
		t.Fatalf("DequeueMany: got %d, want 5", n)
	}
	if !slices.Equal(out[:5], in) {
		t.Fatalf("round trip: got %v, want %v", out[:5], in)
	}
}

// TestMPMC64BatchWraparoundStress drives batches through many ring rounds
// single-threaded and verifies the FIFO stream.
func TestMPMC64BatchWraparoundStress(t *testing.T) {
	q := mpmcq.NewMPMC64[int64](8)

	next := int64(0)
	expect := int64(0)
	buf := make([]int64, 5)
	for round := range 100 {
		in := []int64{next, next + 1, next + 2, next + 3, next + 4}
		if n := q.EnqueueMany(in); n != 5 {
			t.Fatalf("round %d: EnqueueMany: got %d, want 5", round, n)
		}
		next += 5

		if n := q.DequeueMany(buf); n != 5 {
			t.Fatalf("round %d: DequeueMany: got %d, want 5", round, n)
		}
		for i := range 5 {
			if buf[i] != expect {
				t.Fatalf("round %d: got %d at offset %d, want %d", round, buf[i], i, expect)
			}
			expect++
		}
	}
}

// =============================================================================
// Wide Queue - Concurrency
// =============================================================================

// TestMPMC64ConcurrentBatch tests batch producers against batch consumers
// for conservation: every value is delivered exactly once.
func TestMPMC64ConcurrentBatch(t *testing.T) {
	if mpmcq.RaceEnabled {
		t.Skip("skip: lock-free algorithm uses cross-variable memory ordering")
	}

	const (
		numProducers = 4
		numConsumers = 4
		itemsPerProd = 10000
		chunk        = 7 // Odd size keeps wide and single paths mixing
	)

	q := mpmcq.NewMPMC64[int64](64)
	expectedTotal := numProducers * itemsPerProd
	seen := make([]atomix.Int32, expectedTotal)

	var wg sync.WaitGroup
	var consumed atomix.Int64

	for p := range numProducers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			vals := make([]int64, 0, chunk)
			for i := 0; i < itemsPerProd; {
				vals = vals[:0]
				for k := 0; k < chunk && i+k < itemsPerProd; k++ {
					vals = append(vals, int64(id*itemsPerProd+i+k))
				}
				rest := vals
				for len(rest) > 0 {
					n := q.EnqueueMany(rest)
					rest = rest[n:]
					if n == 0 {
						backoff.Wait()
					} else {
						backoff.Reset()
					}
				}
				i += len(vals)
			}
		}(p)
	}

	for range numConsumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			buf := make([]int64, chunk)
			for consumed.Load() < int64(expectedTotal) {
				n := q.DequeueMany(buf)
				if n == 0 {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				for _, v := range buf[:n] {
					if v >= 0 && v < int64(expectedTotal) {
						seen[v].Add(1)
					}
				}
				consumed.Add(int64(n))
			}
		}()
	}

	wg.Wait()

	for i := range seen {
		if got := seen[i].Load(); got != 1 {
			t.Fatalf("value %d delivered %d times, want exactly once", i, got)
		}
	}
}

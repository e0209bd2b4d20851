package alloc

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/joshuapare/mallockit/heap"
)

// newTestAllocator creates an allocator over a 1 MiB in-memory heap.
func newTestAllocator(t testing.TB, opts ...Option) *SegAllocator {
	t.Helper()
	a, err := New(heap.NewMem(1<<20), opts...)
	require.NoError(t, err)
	return a
}

// assertInvariants verifies the index and the full heap walk.
func assertInvariants(t testing.TB, a *SegAllocator) {
	t.Helper()
	require.NoError(t, a.CheckHeap())
	require.True(t, a.Valid())
}

// mustAlloc allocates n bytes and fails the test on error.
func mustAlloc(t testing.TB, a *SegAllocator, n int) Ptr {
	t.Helper()
	p, err := a.Alloc(n)
	require.NoError(t, err)
	require.NotEqual(t, Nil, p)
	return p
}

// fill writes a position-dependent pattern derived from seed.
func fill(b []byte, seed byte) {
	for i := range b {
		b[i] = seed + byte(i*7)
	}
}

// requirePattern checks the first n bytes against fill's pattern.
func requirePattern(t testing.TB, b []byte, n int, seed byte) {
	t.Helper()
	require.GreaterOrEqual(t, len(b), n)
	for i := range n {
		if b[i] != seed+byte(i*7) {
			require.Failf(t, "pattern mismatch", "byte %d = %#x, want %#x", i, b[i], seed+byte(i*7))
		}
	}
}

// heapSize returns the provider's current high end.
func heapSize(a *SegAllocator) int {
	_, hi := a.Heap().Bounds()
	return hi
}

// recordingTracker keeps every range reported by the allocator.
type recordingTracker struct {
	ranges [][2]int
}

func (r *recordingTracker) Add(off, length int) {
	r.ranges = append(r.ranges, [2]int{off, length})
}

func (r *recordingTracker) covers(off, length int) bool {
	for _, rg := range r.ranges {
		if rg[0] <= off && off+length <= rg[0]+rg[1] {
			return true
		}
	}
	return false
}

package alloc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allocBlock allocates a block whose total size is exactly size (a multiple
// of 16 above 32).
func allocBlock(t *testing.T, a *SegAllocator, size int) Ptr {
	t.Helper()
	p := mustAlloc(t, a, size-16)
	require.Equal(t, size, a.h.Size(p))
	return p
}

// chain returns the members of bucket i from head to tail.
func chain(a *SegAllocator, i int) []Ptr {
	var out []Ptr
	for bp := a.buckets[i].head; bp != Nil; bp = a.h.NextFree(bp) {
		out = append(out, bp)
	}
	return out
}

func TestFreeList_HeadBiasedInsert(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(1<<16))

	x := allocBlock(t, a, 2112)
	mustAlloc(t, a, 16)
	y := allocBlock(t, a, 3008)
	mustAlloc(t, a, 16)
	z := allocBlock(t, a, 2064)
	mustAlloc(t, a, 16)

	bucket := a.bucketIndex(2112)
	require.Equal(t, bucket, a.bucketIndex(3008))
	require.Equal(t, bucket, a.bucketIndex(2064))

	a.Free(x)
	assert.Equal(t, []Ptr{x}, chain(a, bucket), "empty bucket takes the block as head")

	a.Free(y)
	assert.Equal(t, []Ptr{y, x}, chain(a, bucket), "larger block becomes head")

	a.Free(z)
	assert.Equal(t, []Ptr{y, z, x}, chain(a, bucket), "smaller block goes after the head")
	assert.Equal(t, 3, a.buckets[bucket].count)
	assertInvariants(t, a)
}

func TestFreeList_FindFitInspectsHeadsOnly(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(1<<16))

	x := allocBlock(t, a, 2112)
	mustAlloc(t, a, 16)
	y := allocBlock(t, a, 3008)
	mustAlloc(t, a, 16)
	z := allocBlock(t, a, 2064)
	mustAlloc(t, a, 16)
	a.Free(x)
	a.Free(y)
	a.Free(z)

	// Exact fit on the head empties it; the bucket is now [z(2064), x(2112)].
	require.Equal(t, y, allocBlock(t, a, 3008))
	bucket := a.bucketIndex(2064)
	require.Equal(t, []Ptr{z, x}, chain(a, bucket))

	// 2096 fits x, but x is not the head; the head (z) is too small, so the
	// request is served from a higher bucket.
	p := allocBlock(t, a, 2096)
	assert.NotEqual(t, x, p)
	assert.NotEqual(t, z, p)
	assert.Equal(t, []Ptr{z, x}, chain(a, bucket))
	assertInvariants(t, a)
}

func TestFreeList_ExactHeadReuseDoesNotGrow(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(4096))

	x := mustAlloc(t, a, 100)
	mustAlloc(t, a, 16)
	a.Free(x)

	grows := a.Stats().GrowCalls
	hi := heapSize(a)

	got := mustAlloc(t, a, 100)
	assert.Equal(t, x, got)
	assert.Equal(t, grows, a.Stats().GrowCalls)
	assert.Equal(t, hi, heapSize(a))
	assertInvariants(t, a)
}

func TestFreeList_NoRemainderBelowMinimum(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(4096))

	x := allocBlock(t, a, 64)
	mustAlloc(t, a, 16)
	a.Free(x)
	splits := a.Stats().SplitCount

	// A 48-byte block fits in x with 16 bytes to spare: too little to split.
	got := mustAlloc(t, a, 32)
	require.Equal(t, x, got)
	assert.Equal(t, 64, a.h.Size(got))
	assert.Equal(t, 48, a.UsableSize(got))
	assert.Equal(t, splits, a.Stats().SplitCount)

	a.Walk(func(b BlockInfo) bool {
		assert.GreaterOrEqual(t, b.Size, 32, "block at %d", b.Ptr)
		return true
	})
	assertInvariants(t, a)
}

func TestFreeList_RemoveInteriorAndTail(t *testing.T) {
	a := newTestAllocator(t, WithChunkSize(1<<16))

	x := allocBlock(t, a, 2112)
	mustAlloc(t, a, 16)
	y := allocBlock(t, a, 3008)
	gy := mustAlloc(t, a, 16)
	z := allocBlock(t, a, 2064)
	gz := mustAlloc(t, a, 16)
	a.Free(x)
	a.Free(y)
	a.Free(z)
	bucket := a.bucketIndex(2112)
	require.Equal(t, []Ptr{y, z, x}, chain(a, bucket))

	// Freeing the guard after z merges z with the heap tail: z (interior)
	// leaves the bucket.
	a.Free(gz)
	assert.Equal(t, []Ptr{y, x}, chain(a, bucket))

	// Freeing the guard after y merges y, the guard and the tail: y (head)
	// leaves the bucket.
	a.Free(gy)
	assert.Equal(t, []Ptr{x}, chain(a, bucket))
	assertInvariants(t, a)
}

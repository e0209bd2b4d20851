package alloc

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/joshuapare/mallockit/heap"
	"github.com/joshuapare/mallockit/internal/buf"
	"github.com/joshuapare/mallockit/internal/format"
)

// SegAllocator is a segregated free-list allocator with boundary-tag
// coalescing.
//
// NOT thread-safe.
type SegAllocator struct {
	p  heap.Provider
	h  format.Heap // view of p.Bytes(), refreshed after every extension
	dt DirtyTracker

	// Size class configuration and lookup table
	sizeTable *sizeClassTable

	// One doubly linked list of free blocks per size class, plus the
	// catch-all bucket at the end
	buckets []bucket

	chunkSize   int
	inPlaceGrow bool
	log         *logrus.Logger

	stats Stats

	// Test hook: called before every heap extension (nil in production)
	onGrow func(n int)
}

// bucket is one free list. Links live in the free blocks' payloads.
type bucket struct {
	head  Ptr
	count int
}

// New creates an allocator over p and initializes the heap.
func New(p heap.Provider, opts ...Option) (*SegAllocator, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err := o.classes.Validate(); err != nil {
		return nil, err
	}
	if o.chunkSize <= 0 {
		return nil, fmt.Errorf("%w: chunk size %d", ErrBadConfig, o.chunkSize)
	}

	sizeTable := newSizeClassTable(o.classes)
	a := &SegAllocator{
		p:           p,
		dt:          o.dt,
		sizeTable:   sizeTable,
		buckets:     make([]bucket, sizeTable.NumBuckets()),
		chunkSize:   format.Align16(o.chunkSize),
		inPlaceGrow: o.inPlaceGrow,
		log:         o.log,
	}
	if err := a.Init(); err != nil {
		return nil, err
	}
	return a, nil
}

// Init resets the heap to the empty layout: padding word, prologue and
// epilogue. All buckets and statistics are cleared. Providers implementing
// heap.Resetter are reset first; any other provider must be empty.
func (a *SegAllocator) Init() error {
	if r, ok := a.p.(heap.Resetter); ok {
		if err := r.Reset(); err != nil {
			return fmt.Errorf("alloc: init: %w", err)
		}
	}
	if lo, hi := a.p.Bounds(); lo != 0 || hi != 0 {
		return fmt.Errorf("%w: bounds [%d, %d)", ErrHeapNotEmpty, lo, hi)
	}

	if _, err := a.p.Extend(format.InitialHeapSize); err != nil {
		return fmt.Errorf("%w: init: %w", ErrOutOfMemory, err)
	}
	a.h = format.Heap(a.p.Bytes())

	a.h.PutWord(0, 0)
	a.setTags(format.PrologueOffset, format.PrologueSize, true)
	a.setEpilogue(format.InitialHeapSize)
	a.markDirty(0, format.WordSize)

	for i := range a.buckets {
		a.buckets[i] = bucket{}
	}
	a.stats = Stats{}

	if a.debug() {
		a.entry().WithFields(logrus.Fields{
			"classes": a.sizeTable.String(),
			"buckets": len(a.buckets),
			"chunk":   a.chunkSize,
		}).Debug("heap initialized")
	}
	return nil
}

// Alloc returns the payload offset of a block with at least size usable
// bytes. A zero size returns (Nil, nil) without touching the heap.
//
// On a miss the heap grows by max(adjusted size, chunk size); if the
// provider cannot grow, Alloc returns Nil and an error wrapping
// ErrOutOfMemory with the heap unchanged.
func (a *SegAllocator) Alloc(size int) (Ptr, error) {
	if size == 0 {
		return Nil, nil
	}
	a.stats.AllocCalls++
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if _, ok := buf.AddOverflowSafe(size, format.Overhead+format.AlignmentMask); !ok {
		a.stats.AllocFailures++
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, size)
	}
	asize := format.AdjustedSize(size)

	bp := a.findFit(asize)
	if bp != Nil {
		a.stats.AllocFastPath++
		a.remove(bp)
	} else {
		var err error
		bp, err = a.extendHeap(max(asize, a.chunkSize))
		if err != nil {
			a.stats.AllocFailures++
			a.entry().WithFields(logrus.Fields{
				"need":  size,
				"asize": asize,
			}).WithError(err).Debug("allocation failed")
			return Nil, err
		}
		a.stats.AllocSlowPath++
		a.remove(bp)
	}

	a.place(bp, asize)
	a.stats.BytesAllocated += int64(a.h.Size(bp))

	if a.debug() {
		a.entry().WithFields(logrus.Fields{
			"need":   size,
			"asize":  asize,
			"bucket": a.bucketIndex(asize),
			"off":    bp,
			"size":   a.h.Size(bp),
		}).Debug("alloc")
	}
	return bp, nil
}

// Free releases the block at p and merges it with free neighbors. Nil is a
// no-op. Freeing a pointer twice, or one that Alloc did not return, is
// undefined behavior and is not detected.
func (a *SegAllocator) Free(p Ptr) {
	if p == Nil {
		return
	}
	a.stats.FreeCalls++

	size := a.h.Size(p)
	a.stats.BytesFreed += int64(size)
	a.setTags(p, size, false)
	bp := a.coalesce(p)

	if a.debug() {
		a.entry().WithFields(logrus.Fields{
			"off":    p,
			"size":   size,
			"merged": a.h.Size(bp),
			"bucket": a.bucketIndex(a.h.Size(bp)),
		}).Debug("free")
	}
}

// Realloc resizes the block at p to hold size bytes.
//
//   - p == Nil behaves like Alloc(size).
//   - size == 0 frees p and returns Nil.
//   - A block that already covers the request is shrunk in place; a tail of
//     at least the minimum block size is split off and freed. Never fails.
//   - With in-place growth enabled a free successor (or fresh heap, when p is
//     the last block) is absorbed.
//   - Otherwise a new block is allocated, min(old usable, size) bytes are
//     copied and p is freed.
//
// On failure p is left untouched and still owned by the caller.
func (a *SegAllocator) Realloc(p Ptr, size int) (Ptr, error) {
	if p == Nil {
		return a.Alloc(size)
	}
	if size == 0 {
		a.Free(p)
		return Nil, nil
	}
	if size < 0 {
		return Nil, fmt.Errorf("%w: %d", ErrBadSize, size)
	}
	if _, ok := buf.AddOverflowSafe(size, format.Overhead+format.AlignmentMask); !ok {
		return Nil, fmt.Errorf("%w: request of %d bytes", ErrOutOfMemory, size)
	}
	a.stats.ReallocCalls++

	asize := format.AdjustedSize(size)
	old := a.h.Size(p)

	if old >= asize {
		a.shrink(p, asize)
		a.stats.ReallocInPlace++
		return p, nil
	}

	if a.inPlaceGrow && a.growInPlace(p, asize) {
		a.stats.ReallocInPlace++
		return p, nil
	}

	np, err := a.Alloc(size)
	if err != nil {
		return Nil, err
	}
	n := copy(a.h.Payload(np), a.h.Payload(p)[:min(old-format.Overhead, size)])
	a.markDirty(np, n)
	a.Free(p)
	a.stats.ReallocMoved++

	if a.debug() {
		a.entry().WithFields(logrus.Fields{
			"from": p,
			"to":   np,
			"need": size,
		}).Debug("realloc moved")
	}
	return np, nil
}

// Payload returns the usable bytes of the allocated block at p, or nil for
// Nil. The slice stays valid until p is freed or moved by Realloc.
func (a *SegAllocator) Payload(p Ptr) []byte {
	if p == Nil {
		return nil
	}
	return a.h.Payload(p)
}

// UsableSize returns the number of usable bytes at p, or 0 for Nil.
func (a *SegAllocator) UsableSize(p Ptr) int {
	if p == Nil {
		return 0
	}
	return a.h.Size(p) - format.Overhead
}

// Heap returns the underlying provider.
func (a *SegAllocator) Heap() heap.Provider { return a.p }

// ChunkSize returns the minimum heap extension.
func (a *SegAllocator) ChunkSize() int { return a.chunkSize }

// extendHeap grows the heap by n bytes (rounded to the alignment), formats
// the new region as one free block over the old epilogue, writes a new
// epilogue and coalesces with the previous block. The merged block is in the
// index on return.
func (a *SegAllocator) extendHeap(n int) (Ptr, error) {
	n = format.Align16(n)
	if a.onGrow != nil {
		a.onGrow(n)
	}

	bp, err := a.p.Extend(n)
	if err != nil {
		return Nil, fmt.Errorf("%w: %w", ErrOutOfMemory, err)
	}
	a.h = format.Heap(a.p.Bytes())
	a.stats.GrowCalls++
	a.stats.GrowBytes += int64(n)

	// The old epilogue header becomes the new block's header.
	a.setTags(bp, n, false)
	a.setEpilogue(bp + n)

	if a.debug() {
		a.entry().WithFields(logrus.Fields{
			"by":   n,
			"off":  bp,
			"heap": bp + n,
		}).Debug("heap extended")
	}
	return a.coalesce(bp), nil
}

// setTags writes matching header and footer words and reports both.
func (a *SegAllocator) setTags(bp, size int, allocated bool) {
	a.h.SetTags(bp, size, allocated)
	a.markDirty(format.HeaderOffset(bp), format.WordSize)
	a.markDirty(bp+size-format.DWordSize, format.WordSize)
}

func (a *SegAllocator) setEpilogue(bp int) {
	a.h.SetHeader(bp, 0, true)
	a.markDirty(format.HeaderOffset(bp), format.WordSize)
}

func (a *SegAllocator) markDirty(off, n int) {
	if a.dt != nil {
		a.dt.Add(off, n)
	}
}

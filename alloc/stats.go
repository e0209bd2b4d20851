package alloc

import (
	"fmt"
	"io"

	"github.com/joshuapare/mallockit/internal/format"
)

// Stats holds allocator call counters.
type Stats struct {
	AllocCalls       int   // Alloc() calls with a non-zero size
	AllocFastPath    int   // Allocations served from the index
	AllocSlowPath    int   // Allocations that required heap growth
	AllocFailures    int   // Allocations that returned ErrOutOfMemory
	FreeCalls        int   // Free() calls with a non-nil pointer
	ReallocCalls     int   // Realloc() calls that resized an existing block
	ReallocInPlace   int   // Resizes served without moving
	ReallocMoved     int   // Resizes that copied to a new block
	GrowCalls        int   // Heap extensions
	GrowBytes        int64 // Total bytes added by extensions
	BytesAllocated   int64 // Total block bytes handed out (overhead included)
	BytesFreed       int64 // Total block bytes released
	SplitCount       int   // Blocks split on placement or shrink
	CoalesceForward  int   // Merges with the following block
	CoalesceBackward int   // Merges with the preceding block
}

// Stats returns a copy of the current counters.
func (a *SegAllocator) Stats() Stats {
	return a.stats
}

// BlockInfo describes one block found by Walk.
type BlockInfo struct {
	Ptr       Ptr
	Size      int
	Allocated bool
}

// Usable returns the payload bytes of the block.
func (b BlockInfo) Usable() int { return b.Size - format.Overhead }

// Walk calls fn for every block between the prologue and the epilogue, in
// address order, until fn returns false.
func (a *SegAllocator) Walk(fn func(BlockInfo) bool) {
	for bp := format.FirstBlockOffset; ; {
		size := a.h.Size(bp)
		if size == 0 {
			return
		}
		if !fn(BlockInfo{Ptr: bp, Size: size, Allocated: a.h.Allocated(bp)}) {
			return
		}
		bp += size
	}
}

// BucketUsage summarizes one bucket of the index.
type BucketUsage struct {
	Index int
	Min   int // Inclusive lower size bound
	Max   int // Exclusive upper size bound, 0 for the catch-all
	Count int
	Bytes int
}

// Usage is a point-in-time picture of the heap.
type Usage struct {
	HeapSize        int // Bytes obtained from the provider
	AllocatedBlocks int
	AllocatedBytes  int // Block sizes, overhead included
	PayloadBytes    int // Usable bytes of allocated blocks
	FreeBlocks      int
	FreeBytes       int
	LargestFree     int
	Buckets         []BucketUsage
}

// Utilization returns payload bytes over heap size.
func (u Usage) Utilization() float64 {
	if u.HeapSize == 0 {
		return 0
	}
	return float64(u.PayloadBytes) / float64(u.HeapSize)
}

// Fragmentation returns 1 - largest free block / free bytes, 0 when nothing
// is free.
func (u Usage) Fragmentation() float64 {
	if u.FreeBytes == 0 {
		return 0
	}
	return 1 - float64(u.LargestFree)/float64(u.FreeBytes)
}

// Usage walks the heap and the index.
func (a *SegAllocator) Usage() Usage {
	_, hi := a.p.Bounds()
	u := Usage{HeapSize: hi}

	a.Walk(func(b BlockInfo) bool {
		if b.Allocated {
			u.AllocatedBlocks++
			u.AllocatedBytes += b.Size
			u.PayloadBytes += b.Usable()
		} else {
			u.FreeBlocks++
			u.FreeBytes += b.Size
			u.LargestFree = max(u.LargestFree, b.Size)
		}
		return true
	})

	u.Buckets = make([]BucketUsage, len(a.buckets))
	for i, b := range a.buckets {
		lo, hi := a.sizeTable.classRange(i)
		bu := BucketUsage{Index: i, Min: lo, Max: hi, Count: b.count}
		for bp := b.head; bp != Nil; bp = a.h.NextFree(bp) {
			bu.Bytes += a.h.Size(bp)
		}
		u.Buckets[i] = bu
	}
	return u
}

// PrintStats writes counters and usage to w.
func (a *SegAllocator) PrintStats(w io.Writer) {
	s := a.stats
	u := a.Usage()

	fmt.Fprintf(w, "\n=== ALLOCATOR STATISTICS (%s) ===\n", a.sizeTable)
	fmt.Fprintf(w, "Grow calls:         %d (%d bytes added)\n", s.GrowCalls, s.GrowBytes)
	fmt.Fprintf(w, "Alloc calls:        %d (fast: %d, slow: %d, failed: %d)\n",
		s.AllocCalls, s.AllocFastPath, s.AllocSlowPath, s.AllocFailures)
	fmt.Fprintf(w, "Free calls:         %d\n", s.FreeCalls)
	fmt.Fprintf(w, "Realloc calls:      %d (in place: %d, moved: %d)\n",
		s.ReallocCalls, s.ReallocInPlace, s.ReallocMoved)
	fmt.Fprintf(w, "Block splits:       %d\n", s.SplitCount)
	fmt.Fprintf(w, "Coalesce fwd:       %d\n", s.CoalesceForward)
	fmt.Fprintf(w, "Coalesce back:      %d\n", s.CoalesceBackward)

	fmt.Fprintf(w, "\nHeap:\n")
	fmt.Fprintf(w, "  Size:             %d bytes\n", u.HeapSize)
	fmt.Fprintf(w, "  Allocated:        %d blocks, %d bytes (%d payload)\n",
		u.AllocatedBlocks, u.AllocatedBytes, u.PayloadBytes)
	fmt.Fprintf(w, "  Free:             %d blocks, %d bytes (largest %d)\n",
		u.FreeBlocks, u.FreeBytes, u.LargestFree)
	fmt.Fprintf(w, "  Utilization:      %.1f%%\n", 100*u.Utilization())
	fmt.Fprintf(w, "  Fragmentation:    %.1f%%\n", 100*u.Fragmentation())

	fmt.Fprintf(w, "\nBuckets:\n")
	for _, b := range u.Buckets {
		if b.Count == 0 {
			continue
		}
		if b.Max == 0 {
			fmt.Fprintf(w, "  [%2d] %6d+       %5d blocks %8d bytes\n", b.Index, b.Min, b.Count, b.Bytes)
			continue
		}
		fmt.Fprintf(w, "  [%2d] %6d-%-6d %5d blocks %8d bytes\n", b.Index, b.Min, b.Max, b.Count, b.Bytes)
	}
	fmt.Fprintf(w, "============================\n\n")
}

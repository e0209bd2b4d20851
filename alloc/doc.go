// Package alloc implements a segregated free-list allocator with boundary
// tags over a growable byte arena.
//
// # Overview
//
// The heap is a heap.Provider: one contiguous byte range that only grows at
// its high end. Every block carries a one-word header before its payload and
// a matching footer in its last word, so neighbors can be found in either
// direction. Free blocks additionally hold prev/next links in the first two
// payload words and sit in exactly one bucket of the free-list index.
//
// "Pointers" are byte offsets (Ptr) into the arena. Nil (0) is never a payload.
//
// # Heap Layout
//
//	0      padding word
//	8      prologue header   (32, allocated)
//	16     prologue payload
//	32     prologue footer
//	40     header of the first block
//	48     first payload
//	...
//	hi-8   epilogue header   (0, allocated)
//
// # Size Classes
//
// DefaultConfig yields 17 buckets:
//
//	Bucket  0-7:   16-byte steps below 128 (0 and 1 stay empty)
//	Bucket  8-15:  [128,256) [256,512) ... [16K,32K)
//	Bucket  16:    32K and above
//
// Insertion is head-biased: a block larger than the current head becomes the
// head, anything else is linked right after it. Lookup scans buckets upward
// from the request's class and inspects only each bucket's head, so a fitting
// block deeper in a chain can be missed and the heap grown instead.
//
// # Usage Example
//
//	a, err := alloc.New(heap.NewMem(0))
//	if err != nil {
//	    return err
//	}
//
//	p, err := a.Alloc(100)
//	if err != nil {
//	    return err
//	}
//	copy(a.Payload(p), data)
//
//	p, err = a.Realloc(p, 400)
//	...
//	a.Free(p)
//
// # Undefined Behavior
//
// Freeing a pointer that did not come from Alloc/Realloc, freeing twice, and
// writing past a payload are not detected. They corrupt the boundary tags;
// Check and CheckHeap report the damage after the fact but never repair it.
//
// # Thread Safety
//
// A SegAllocator is not safe for concurrent use. Callers must synchronize
// access externally.
//
// # Logging
//
// Allocation-path debug logs are enabled by setting MALLOC_LOG_ALLOC in the
// environment, or by passing a logger through WithLogger.
package alloc

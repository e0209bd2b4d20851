package alloc

import "github.com/joshuapare/mallockit/internal/format"

// place marks the free, unlinked block at bp allocated for asize bytes. A
// remainder of at least MinBlockSize is split off and indexed; a smaller one
// stays attached to the allocation.
func (a *SegAllocator) place(bp Ptr, asize int) {
	size := a.h.Size(bp)
	if size-asize < format.MinBlockSize {
		a.setTags(bp, size, true)
		return
	}

	a.setTags(bp, asize, true)
	rest := bp + asize
	a.setTags(rest, size-asize, false)
	a.insert(rest)
	a.stats.SplitCount++
}

// shrink trims the allocated block at bp to asize when the tail is large
// enough to stand alone. The tail is freed and merged forward.
func (a *SegAllocator) shrink(bp Ptr, asize int) {
	size := a.h.Size(bp)
	if size-asize < format.MinBlockSize {
		return
	}

	a.setTags(bp, asize, true)
	rest := bp + asize
	a.setTags(rest, size-asize, false)
	a.coalesce(rest)
	a.stats.SplitCount++
}

// growInPlace extends the allocated block at bp to cover asize by absorbing
// its free successor. When bp is the last block the heap is extended first.
// Reports false, with the heap unchanged, when neither works.
func (a *SegAllocator) growInPlace(bp Ptr, asize int) bool {
	size := a.h.Size(bp)
	next := a.h.Next(bp)

	if a.h.Size(next) == 0 {
		if _, err := a.extendHeap(max(asize-size, a.chunkSize)); err != nil {
			return false
		}
	}

	if a.h.Allocated(next) || size+a.h.Size(next) < asize {
		return false
	}

	a.remove(next)
	a.setTags(bp, size+a.h.Size(next), true)
	a.stats.CoalesceForward++

	a.shrink(bp, asize)
	return true
}

package alloc

// coalesce merges the free block at bp with its free physical neighbors and
// indexes the result. bp must not be in the index. Returns the payload
// offset of the surviving block.
//
//	prev   next   result
//	alloc  alloc  bp inserted as is
//	alloc  free   bp absorbs next
//	free   alloc  prev absorbs bp
//	free   free   prev absorbs bp and next
func (a *SegAllocator) coalesce(bp Ptr) Ptr {
	prevAlloc := a.h.PrevAllocated(bp)
	next := a.h.Next(bp)
	nextAlloc := a.h.Allocated(next)
	size := a.h.Size(bp)

	switch {
	case prevAlloc && nextAlloc:

	case prevAlloc && !nextAlloc:
		a.remove(next)
		size += a.h.Size(next)
		a.setTags(bp, size, false)
		a.stats.CoalesceForward++

	case !prevAlloc && nextAlloc:
		prev := a.h.Prev(bp)
		a.remove(prev)
		size += a.h.Size(prev)
		bp = prev
		a.setTags(bp, size, false)
		a.stats.CoalesceBackward++

	default:
		prev := a.h.Prev(bp)
		a.remove(prev)
		a.remove(next)
		size += a.h.Size(prev) + a.h.Size(next)
		bp = prev
		a.setTags(bp, size, false)
		a.stats.CoalesceForward++
		a.stats.CoalesceBackward++
	}

	a.insert(bp)
	return bp
}

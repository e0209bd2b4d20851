package alloc

import "github.com/joshuapare/mallockit/internal/format"

// bucketIndex maps a block size to its bucket. Pure, monotonic and total.
func (a *SegAllocator) bucketIndex(size int) int {
	return a.sizeTable.getSizeClass(size)
}

// insert links the free block at bp into the bucket for its current size.
//
// Head-biased: a block larger than the head becomes the new head, anything
// else goes directly after the head.
func (a *SegAllocator) insert(bp Ptr) {
	size := a.h.Size(bp)
	b := &a.buckets[a.bucketIndex(size)]
	head := b.head

	switch {
	case head == Nil:
		a.setLinks(bp, Nil, Nil)
		b.head = bp
	case size > a.h.Size(head):
		a.setLinks(bp, Nil, head)
		a.setPrevFree(head, bp)
		b.head = bp
	default:
		next := a.h.NextFree(head)
		a.setLinks(bp, head, next)
		if next != Nil {
			a.setPrevFree(next, bp)
		}
		a.setNextFree(head, bp)
	}
	b.count++
}

// remove unlinks the free block at bp. The bucket is recomputed from the
// block's current size, so remove must run before the size changes.
func (a *SegAllocator) remove(bp Ptr) {
	b := &a.buckets[a.bucketIndex(a.h.Size(bp))]
	prev, next := a.h.PrevFree(bp), a.h.NextFree(bp)

	if prev == Nil {
		b.head = next
	} else {
		a.setNextFree(prev, next)
	}
	if next != Nil {
		a.setPrevFree(next, prev)
	}
	b.count--
}

// findFit returns the first bucket head, scanning upward from asize's
// bucket, whose size covers asize. Only heads are inspected.
func (a *SegAllocator) findFit(asize int) Ptr {
	for i := a.bucketIndex(asize); i < len(a.buckets); i++ {
		head := a.buckets[i].head
		if head != Nil && a.h.Size(head) >= asize {
			return head
		}
	}
	return Nil
}

func (a *SegAllocator) setLinks(bp, prev, next Ptr) {
	a.h.SetPrevFree(bp, prev)
	a.h.SetNextFree(bp, next)
	a.markDirty(bp, format.DWordSize)
}

func (a *SegAllocator) setPrevFree(bp, prev Ptr) {
	a.h.SetPrevFree(bp, prev)
	a.markDirty(bp, format.WordSize)
}

func (a *SegAllocator) setNextFree(bp, next Ptr) {
	a.h.SetNextFree(bp, next)
	a.markDirty(bp+format.WordSize, format.WordSize)
}

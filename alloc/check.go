package alloc

import (
	"errors"
	"fmt"

	"github.com/joshuapare/mallockit/internal/format"
)

// Invariant names the property a CheckError reports as violated.
type Invariant string

const (
	InvTags      Invariant = "tags"      // header and footer agree, block fits the heap
	InvCoalesced Invariant = "coalesced" // no two adjacent free blocks
	InvIndexed   Invariant = "indexed"   // every free block is in exactly one bucket
	InvLinks     Invariant = "links"     // prev/next links are symmetric, head prev is nil
	InvMinSize   Invariant = "min-size"  // every block is at least MinBlockSize
	InvAlignment Invariant = "alignment" // payloads and sizes are 16-aligned
	InvBounds    Invariant = "bounds"    // offsets lie inside the heap
	InvFreeMark  Invariant = "free-mark" // bucket members are marked free
	InvBucket    Invariant = "bucket"    // members sit in the bucket for their size
	InvCycle     Invariant = "cycle"     // chains terminate
	InvSentinel  Invariant = "sentinel"  // prologue and epilogue are intact
)

// CheckError describes the first consistency violation found.
type CheckError struct {
	Invariant Invariant
	Offset    int
	Detail    string
}

func (e *CheckError) Error() string {
	return fmt.Sprintf("alloc: %s invariant violated at %d: %s", e.Invariant, e.Offset, e.Detail)
}

// Unwrap returns ErrCorrupt.
func (e *CheckError) Unwrap() error { return ErrCorrupt }

func violation(inv Invariant, off int, msg string, args ...any) *CheckError {
	return &CheckError{Invariant: inv, Offset: off, Detail: fmt.Sprintf(msg, args...)}
}

// Check verifies the free-list index: every member is a well-formed free
// block inside the heap, links are symmetric, heads have a nil prev, each
// member sits in the bucket for its size, and every chain terminates.
func (a *SegAllocator) Check() error {
	_, err := a.checkIndex()
	return err
}

// Valid reports whether Check passes.
func (a *SegAllocator) Valid() bool {
	return a.Check() == nil
}

// checkIndex verifies every bucket and returns the set of members.
func (a *SegAllocator) checkIndex() (map[Ptr]int, error) {
	lo, hi := a.p.Bounds()
	h := format.Heap(a.p.Bytes())
	limit := (hi-lo)/format.MinBlockSize + 1
	members := make(map[Ptr]int)

	for i, b := range a.buckets {
		prev := Nil
		n := 0
		for bp := b.head; bp != Nil; bp = h.NextFree(bp) {
			if bp < lo+format.FirstBlockOffset || bp+format.DWordSize > hi {
				return nil, violation(InvBounds, bp, "bucket %d member outside heap [%d, %d)", i, lo, hi)
			}
			if other, dup := members[bp]; dup {
				if other == i {
					return nil, violation(InvCycle, bp, "bucket %d chain revisits a member", i)
				}
				return nil, violation(InvIndexed, bp, "member of buckets %d and %d", other, i)
			}
			blk, err := format.DecodeBlock(h, bp)
			if err != nil {
				return nil, decodeViolation(bp, err)
			}
			if blk.Size < format.MinBlockSize {
				return nil, violation(InvMinSize, bp, "bucket %d member of size %d", i, blk.Size)
			}
			if blk.Allocated {
				return nil, violation(InvFreeMark, bp, "bucket %d member marked allocated", i)
			}
			if got := h.PrevFree(bp); got != prev {
				return nil, violation(InvLinks, bp, "bucket %d prev link %d, want %d", i, got, prev)
			}
			if want := a.bucketIndex(blk.Size); want != i {
				return nil, violation(InvBucket, bp, "size %d in bucket %d, want %d", blk.Size, i, want)
			}
			n++
			if n > limit {
				return nil, violation(InvCycle, bp, "bucket %d chain exceeds %d members", i, limit)
			}
			members[bp] = i
			prev = bp
		}
		if n != b.count {
			return nil, violation(InvIndexed, b.head, "bucket %d holds %d members, counted %d", i, n, b.count)
		}
	}
	return members, nil
}

// CheckHeap walks every block from the prologue to the epilogue and verifies
// matching tags, 16-byte alignment, the minimum size, that no two free
// blocks are adjacent, and that the free blocks are exactly the index
// members. The index itself is verified first, as by Check.
func (a *SegAllocator) CheckHeap() error {
	members, err := a.checkIndex()
	if err != nil {
		return err
	}

	_, hi := a.p.Bounds()
	h := format.Heap(a.p.Bytes())

	pro, err := format.DecodeBlock(h, format.PrologueOffset)
	if err != nil {
		return decodeViolation(format.PrologueOffset, err)
	}
	if pro.Size != format.PrologueSize || !pro.Allocated {
		return violation(InvSentinel, format.PrologueOffset, "prologue size %d allocated %v", pro.Size, pro.Allocated)
	}

	prevFree := false
	bp := format.FirstBlockOffset
	for {
		blk, err := format.DecodeBlock(h, bp)
		if err != nil {
			return decodeViolation(bp, err)
		}
		if blk.Epilogue() {
			if !blk.Allocated || bp != hi {
				return violation(InvSentinel, bp, "epilogue allocated %v, heap ends at %d", blk.Allocated, hi)
			}
			break
		}
		if blk.Size < format.MinBlockSize {
			return violation(InvMinSize, bp, "block size %d", blk.Size)
		}
		if !format.IsAligned(blk.Size) {
			return violation(InvAlignment, bp, "block size %d", blk.Size)
		}
		if !blk.Allocated {
			if prevFree {
				return violation(InvCoalesced, bp, "free block follows a free block")
			}
			if _, ok := members[bp]; !ok {
				return violation(InvIndexed, bp, "free block of size %d is in no bucket", blk.Size)
			}
			delete(members, bp)
		}
		prevFree = !blk.Allocated
		bp = blk.End()
	}

	for bp := range members {
		return violation(InvIndexed, bp, "bucket member is not a block in the heap")
	}
	return nil
}

func decodeViolation(bp int, err error) *CheckError {
	switch {
	case errors.Is(err, format.ErrMisaligned):
		return violation(InvAlignment, bp, "%v", err)
	case errors.Is(err, format.ErrTruncated):
		return violation(InvBounds, bp, "%v", err)
	default:
		return violation(InvTags, bp, "%v", err)
	}
}

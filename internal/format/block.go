package format

import (
	"fmt"

	"github.com/joshuapare/mallockit/internal/buf"
)

// Heap is a view over the managed arena. Offsets passed to its methods are
// payload offsets (bp); the header of the block lives one word before bp.
//
// The accessors do no validation beyond Go's slice bounds checks. Callers on
// the allocation path only ever hold offsets produced by the allocator itself;
// diagnostics use DecodeBlock, which validates first.
type Heap []byte

// Word reads the tag word at absolute offset off.
func (h Heap) Word(off int) uint64 { return ReadU64(h, off) }

// PutWord writes the tag word at absolute offset off.
func (h Heap) PutWord(off int, v uint64) { PutU64(h, off, v) }

// HeaderOffset returns the absolute offset of bp's header.
func HeaderOffset(bp int) int { return bp - WordSize }

// FooterOffset returns the absolute offset of bp's footer.
func (h Heap) FooterOffset(bp int) int { return bp + h.Size(bp) - DWordSize }

// Header returns the raw header word of bp.
func (h Heap) Header(bp int) uint64 { return h.Word(bp - WordSize) }

// Footer returns the raw footer word of bp.
func (h Heap) Footer(bp int) uint64 { return h.Word(h.FooterOffset(bp)) }

// Size returns the block size recorded in bp's header.
func (h Heap) Size(bp int) int { return UnpackSize(h.Word(bp - WordSize)) }

// Allocated returns the allocation flag recorded in bp's header.
func (h Heap) Allocated(bp int) bool { return UnpackAllocated(h.Word(bp - WordSize)) }

// SetTags writes matching header and footer words for a block of the given size.
func (h Heap) SetTags(bp, size int, allocated bool) {
	w := Pack(size, allocated)
	h.PutWord(bp-WordSize, w)
	h.PutWord(bp+size-DWordSize, w)
}

// SetHeader writes only the header word. Used for the epilogue, which has no footer.
func (h Heap) SetHeader(bp, size int, allocated bool) {
	h.PutWord(bp-WordSize, Pack(size, allocated))
}

// Next returns the payload offset of the block physically after bp.
func (h Heap) Next(bp int) int { return bp + h.Size(bp) }

// Prev returns the payload offset of the block physically before bp, found
// through the footer that precedes bp's header.
func (h Heap) Prev(bp int) int { return bp - UnpackSize(h.Word(bp-DWordSize)) }

// PrevAllocated reads the allocation flag from the preceding block's footer.
func (h Heap) PrevAllocated(bp int) bool { return UnpackAllocated(h.Word(bp - DWordSize)) }

// PrevFree returns the prev_free link stored in a free block's payload.
func (h Heap) PrevFree(bp int) int { return int(h.Word(bp)) }

// NextFree returns the next_free link stored in a free block's payload.
func (h Heap) NextFree(bp int) int { return int(h.Word(bp + WordSize)) }

// SetPrevFree stores the prev_free link of a free block.
func (h Heap) SetPrevFree(bp, link int) { h.PutWord(bp, uint64(link)) }

// SetNextFree stores the next_free link of a free block.
func (h Heap) SetNextFree(bp, link int) { h.PutWord(bp+WordSize, uint64(link)) }

// Payload returns the usable bytes of the block at bp.
func (h Heap) Payload(bp int) []byte {
	end := bp + h.Size(bp) - Overhead
	return h[bp:end:end]
}

// Block is a decoded, validated view of one block.
type Block struct {
	Offset    int    // Payload offset
	Size      int    // Total size including header and footer
	Allocated bool   // Allocation flag from the header
	Header    uint64 // Raw header word
	Footer    uint64 // Raw footer word (0 for the epilogue)
}

// Epilogue reports whether the block is the zero-sized end sentinel.
func (b Block) Epilogue() bool { return b.Size == 0 }

// End returns the payload offset of the following block.
func (b Block) End() int { return b.Offset + b.Size }

// DecodeBlock validates and decodes the block at bp. It never panics on a
// corrupted arena; it returns an error describing the first problem instead.
func DecodeBlock(h Heap, bp int) (Block, error) {
	if bp < WordSize || !IsAligned(bp) {
		return Block{}, fmt.Errorf("block %d: %w", bp, ErrMisaligned)
	}
	if !buf.Has(h, bp-WordSize, WordSize) {
		return Block{}, fmt.Errorf("block %d header: %w", bp, ErrTruncated)
	}
	hdr := h.Word(bp - WordSize)
	b := Block{
		Offset:    bp,
		Size:      UnpackSize(hdr),
		Allocated: UnpackAllocated(hdr),
		Header:    hdr,
	}
	if b.Size == 0 {
		return b, nil
	}
	end, ok := buf.AddOverflowSafe(bp, b.Size-DWordSize)
	if !ok || !buf.Has(h, end, WordSize) {
		return b, fmt.Errorf("block %d size %d: %w", bp, b.Size, ErrTruncated)
	}
	b.Footer = h.Word(end)
	if b.Footer != hdr {
		return b, fmt.Errorf("block %d: header %#x footer %#x: %w", bp, hdr, b.Footer, ErrTagMismatch)
	}
	return b, nil
}

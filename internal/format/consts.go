// Package format defines the in-band block layout used by the allocator: the
// boundary-tag words written around every block and the address arithmetic
// that walks them. Everything that reads or writes raw heap words lives here
// so the allocator itself only deals in payload offsets.
package format

// Layout (all offsets are payload offsets into the arena, little-endian words):
//
//	bp-8    header   size | allocated
//	bp      payload  (free blocks: prev_free link)
//	bp+8             (free blocks: next_free link)
//	...
//	bp+size-16  footer   size | allocated
//	bp+size-8   header of the next block
const (
	// WordSize is the size of a boundary tag and of a free-list link.
	WordSize = 8

	// DWordSize is the double word size. Block sizes and payload offsets are
	// multiples of it.
	DWordSize = 2 * WordSize

	// Alignment is the minimum payload alignment.
	Alignment = DWordSize

	// AlignmentMask masks the low bits that are always zero in a block size.
	AlignmentMask = Alignment - 1

	// Overhead is the header plus footer cost of every block.
	Overhead = 2 * WordSize

	// MinBlockSize is the smallest block that can hold a header, a footer and
	// both free-list links while free.
	MinBlockSize = 2 * DWordSize

	// ChunkSize is the minimum amount the heap is extended by on a miss.
	ChunkSize = 1 << 7

	// PrologueSize is the size of the permanently allocated prologue block.
	PrologueSize = MinBlockSize

	// PrologueOffset is the payload offset of the prologue block. Word 0 is
	// alignment padding and word 1 is the prologue header.
	PrologueOffset = DWordSize

	// InitialHeapSize covers the padding word, the prologue and the epilogue
	// header.
	InitialHeapSize = WordSize + PrologueSize + WordSize

	// FirstBlockOffset is the payload offset of the first block after the
	// prologue.
	FirstBlockOffset = PrologueOffset + PrologueSize

	// NilLink terminates a free list. Offset 0 is the padding word and is
	// never a payload.
	NilLink = 0

	allocatedBit = 0x1
	sizeMask     = ^uint64(AlignmentMask)
)

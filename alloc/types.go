package alloc

import "github.com/joshuapare/mallockit/heap/dirty"

// Ptr is a payload offset into the arena.
type Ptr = int

// Nil is the none pointer. Offset 0 is the padding word and never a payload.
const Nil Ptr = 0

// DirtyTracker is the canonical interface defined in heap/dirty.
type DirtyTracker = dirty.DirtyTracker

// Allocator is the client-facing allocation interface.
//
// Implementations:
//   - SegAllocator: segregated free lists with boundary-tag coalescing
type Allocator interface {
	// Alloc returns a payload of at least size bytes, 16-byte aligned.
	// A zero size returns (Nil, nil).
	Alloc(size int) (Ptr, error)

	// Free releases p. Nil is a no-op.
	Free(p Ptr)

	// Realloc resizes p, moving it when it cannot be resized in place.
	Realloc(p Ptr, size int) (Ptr, error)

	// Payload returns the usable bytes of p.
	Payload(p Ptr) []byte
}

var _ Allocator = (*SegAllocator)(nil)
